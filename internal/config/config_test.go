package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromBytesDefaults(t *testing.T) {
	c, err := LoadFromBytes([]byte(""))
	require.NoError(t, err)

	assert.Equal(t, "https://duckduckgo.com", c.HomeURL)
	assert.Equal(t, "duckduckgo", c.SearchEngine)
	assert.Equal(t, 3*time.Second, c.ProbeTimeout)
	assert.True(t, c.AllowScripting)
	assert.Equal(t, 1280, c.Window.Width)
}

func TestLoadFromBytesSparseOverride(t *testing.T) {
	c, err := LoadFromBytes([]byte("homeURL: https://example.org\nwindow:\n  width: 900\n"))
	require.NoError(t, err)

	assert.Equal(t, "https://example.org", c.HomeURL)
	assert.Equal(t, 900, c.Window.Width)
	// Unnamed fields keep defaults
	assert.Equal(t, "duckduckgo", c.SearchEngine)
	assert.Equal(t, 860, c.Window.Height)
}

func TestLoadFromBytesEnvOverride(t *testing.T) {
	t.Setenv("FSB_SEARCH_ENGINE", "google")
	c, err := LoadFromBytes([]byte("searchEngine: bing\n"))
	require.NoError(t, err)
	assert.Equal(t, "google", c.SearchEngine)
}

func TestLoadFromBytesRejectsBadYAML(t *testing.T) {
	_, err := LoadFromBytes([]byte("homeURL: [unterminated"))
	assert.Error(t, err)
}

func TestFillZeroClampsGeometry(t *testing.T) {
	c, err := LoadFromBytes([]byte("window:\n  width: 10\n  height: 10\n"))
	require.NoError(t, err)
	assert.Equal(t, 1280, c.Window.Width)
	assert.Equal(t, 860, c.Window.Height)
}

func TestWatchReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flashseek.yaml")
	require.NoError(t, os.WriteFile(path, []byte("homeURL: https://one.example\n"), 0644))

	got := make(chan Config, 1)
	stop, err := Watch(path, func(c Config) {
		select {
		case got <- c:
		default:
		}
	})
	require.NoError(t, err)
	defer stop()

	require.NoError(t, os.WriteFile(path, []byte("homeURL: https://two.example\n"), 0644))

	select {
	case c := <-got:
		assert.Equal(t, "https://two.example", c.HomeURL)
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for config reload")
	}
}
