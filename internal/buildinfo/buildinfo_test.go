package buildinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	saved, savedDate := version, buildDate
	t.Cleanup(func() { version, buildDate = saved, savedDate })

	version, buildDate = "", ""
	info := Get()
	assert.Equal(t, "unknown", info.Version)
	assert.Equal(t, "unknown (built unknown)", info.String())

	version, buildDate = "v1.4.0", "2026-05-01"
	info = Get()
	assert.Equal(t, "v1.4.0 (built 2026-05-01)", info.String())
	assert.Equal(t, "listingguard@v1.4.0", info.Release())
}
