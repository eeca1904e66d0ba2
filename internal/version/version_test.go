package version

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func buildInfo(version string, settings ...debug.BuildSetting) func() (*debug.BuildInfo, bool) {
	return func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{Main: debug.Module{Version: version}, Settings: settings}, true
	}
}

func TestResolveFromBuildInfo(t *testing.T) {
	info := resolve(buildInfo("v0.3.1",
		debug.BuildSetting{Key: "vcs.revision", Value: "0123456789abcdef0123"},
		debug.BuildSetting{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
		debug.BuildSetting{Key: "vcs.modified", Value: "true"},
	))

	assert.Equal(t, "v0.3.1", info.Version)
	assert.Equal(t, "0123456789abcdef0123", info.Commit)
	assert.Equal(t, "2026-01-02T03:04:05Z", info.BuildTime)
	assert.True(t, info.Modified)
	assert.NotEmpty(t, info.GoVersion)
	assert.Equal(t, "v0.3.1 (0123456789ab-dirty)", info.String())
}

func TestResolveDevelFallsBackToBuildTime(t *testing.T) {
	info := resolve(buildInfo("(devel)",
		debug.BuildSetting{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
	))
	assert.Equal(t, "2026-01-02T03:04:05Z", info.Version)
	assert.Equal(t, info.Version, info.String())
}

func TestResolveWithoutBuildInfo(t *testing.T) {
	info := resolve(func() (*debug.BuildInfo, bool) { return nil, false })
	assert.NotEmpty(t, info.Version)
	assert.Empty(t, info.Commit)
}

func TestShortCommit(t *testing.T) {
	assert.Equal(t, "abc", shortCommit("abc"))
	assert.Equal(t, "0123456789ab", shortCommit("0123456789abcdef"))
}
