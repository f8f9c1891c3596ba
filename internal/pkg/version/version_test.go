package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestShort 測試簡短版本號
func TestShort(t *testing.T) {
	origVersion, origCommit := Version, GitCommit
	defer func() { Version, GitCommit = origVersion, origCommit }()

	Version, GitCommit = "1.2.0", ""
	assert.Equal(t, "v1.2.0", Short())

	GitCommit = "abcdef01"
	assert.Equal(t, "v1.2.0 (abcdef01)", Short())
}

// TestInfo 測試構建信息
func TestInfo(t *testing.T) {
	info := Info()
	assert.Contains(t, info, "Prism Desk v")
	assert.Contains(t, info, GoVersion)
}
