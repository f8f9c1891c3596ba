package appctx

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettings_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	s, err := LoadSettings(NewViper())
	require.NoError(t, err)

	assert.Equal(t, "info", s.Log.Level)
	assert.False(t, s.Log.Console)
	assert.Equal(t, 100*time.Millisecond, s.Store.Debounce)
	assert.Equal(t, 30*time.Second, s.Cache.TTL)
	assert.False(t, s.Secrets.Encrypt)
	assert.Equal(t, "sing-box", s.Kernel.Binary)
	assert.Equal(t, 10*time.Second, s.Kernel.CheckTimeout)
}

func TestLoadSettings_ConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	content := "log:\n  level: debug\nstore:\n  debounce: 250ms\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prism.yaml"), []byte(content), 0644))
	t.Setenv("PRISM_CACHE_TTL", "5s")

	s, err := LoadSettings(NewViper())
	require.NoError(t, err)

	assert.Equal(t, "debug", s.Log.Level)
	assert.Equal(t, 250*time.Millisecond, s.Store.Debounce)
	assert.Equal(t, 5*time.Second, s.Cache.TTL)
}

func TestLoadSettings_NegativeDebounce(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PRISM_STORE_DEBOUNCE", "-1s")

	_, err := LoadSettings(NewViper())
	assert.Error(t, err)
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent to testing.T.Chdir from Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
