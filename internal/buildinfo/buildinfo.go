// Package buildinfo holds build-time metadata injected with -ldflags.
//
//	go build -ldflags "-X github.com/estatehub/listingguard/internal/buildinfo.version=v1.2.0 \
//	  -X github.com/estatehub/listingguard/internal/buildinfo.buildDate=2026-01-01T00:00:00Z"
package buildinfo

import "fmt"

const unknown = "unknown"

var (
	version   string
	buildDate string
)

// Info is the build metadata of the running binary.
type Info struct {
	Version   string `json:"version"`
	BuildDate string `json:"build_date"`
}

// Get returns the injected build metadata, with "unknown" for missing values.
func Get() Info {
	return Info{Version: orUnknown(version), BuildDate: orUnknown(buildDate)}
}

// String renders the info for --version output.
func (i Info) String() string {
	return fmt.Sprintf("%s (built %s)", i.Version, i.BuildDate)
}

// Release is the identifier reported to error telemetry.
func (i Info) Release() string {
	return "listingguard@" + i.Version
}

func orUnknown(s string) string {
	if s == "" {
		return unknown
	}
	return s
}
