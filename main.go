package main

import (
	"fmt"
	"os"

	"github.com/estatehub/listingguard/cmd"
	"github.com/estatehub/listingguard/internal/conf"
)

func main() {
	ctx := &conf.Context{}
	if err := cmd.RootCommand(ctx).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
