package version

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func setBuild(t *testing.T, version, buildTime, commit string) {
	t.Helper()
	origVersion, origBuildTime, origCommit := Version, BuildTime, Commit
	t.Cleanup(func() {
		Version, BuildTime, Commit = origVersion, origBuildTime, origCommit
	})
	Version, BuildTime, Commit = version, buildTime, commit
}

func TestInfo(t *testing.T) {
	setBuild(t, "1.0.0", "2026-01-01", "abcdef0123456789")

	info := Info()
	assert.True(t, strings.HasPrefix(info, "gcu 1.0.0 (abcdef01) - 2026-01-01"), info)
	assert.Contains(t, info, runtime.GOOS+"/"+runtime.GOARCH)

	Commit = "abc123"
	assert.Contains(t, Info(), "(abc123)")
}

func TestMap(t *testing.T) {
	setBuild(t, "1.0.0", "2026-01-01", "abcdef0123456789")

	m := Map()
	assert.Equal(t, "1.0.0", m["version"])
	assert.Equal(t, "2026-01-01", m["buildTime"])
	assert.Equal(t, "abcdef0123456789", m["commit"])
	assert.Equal(t, runtime.GOOS, m["os"])
	assert.Equal(t, runtime.GOARCH, m["arch"])
	assert.True(t, strings.HasPrefix(m["goVersion"], "go1."))
}

func TestModels(t *testing.T) {
	out := Models("/usr/local/yang-models", map[string]string{
		"sonic-vlan": "2019-07-01",
		"sonic-port": "2019-07-01",
		"sonic-acl":  "",
	})
	assert.Equal(t, "YANG models (/usr/local/yang-models):\n"+
		"  sonic-acl   -\n"+
		"  sonic-port  2019-07-01\n"+
		"  sonic-vlan  2019-07-01\n", out)

	assert.Equal(t, "YANG models (empty):\n", Models("empty", nil))
}
