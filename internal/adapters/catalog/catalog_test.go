package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCatalog = `
packs:
  - name: pack-72
    weeks:
      - week: 1
        messageFileName: w1_1.wav
      - week: 2
        messageFileName: w2_1.wav
  - name: pack-48
    weeks:
      - week: 1
        messageFileName: p48_w1.wav
`

func writeCatalog(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "content_catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Lookup(t *testing.T) {
	path := writeCatalog(t, t.TempDir(), sampleCatalog)

	c, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())

	name, err := c.MessageFile("pack-72", 2)
	require.NoError(t, err)
	assert.Equal(t, "w2_1.wav", name)

	_, err = c.MessageFile("pack-72", 3)
	require.ErrorIs(t, err, ErrMessageNotFound)
	_, err = c.MessageFile("unknown", 1)
	require.ErrorIs(t, err, ErrMessageNotFound)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"missing pack name":  "packs:\n  - weeks:\n      - week: 1\n        messageFileName: a.wav\n",
		"zero week":          "packs:\n  - name: p\n    weeks:\n      - week: 0\n        messageFileName: a.wav\n",
		"missing file":       "packs:\n  - name: p\n    weeks:\n      - week: 1\n",
		"duplicate week":     "packs:\n  - name: p\n    weeks:\n      - {week: 1, messageFileName: a.wav}\n      - {week: 1, messageFileName: b.wav}\n",
		"duplicate pack":     "packs:\n  - name: p\n  - name: p\n",
		"malformed document": "packs: [",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeCatalog(t, t.TempDir(), body), nil)
			require.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)
}

func TestReload_KeepsPreviousOnError(t *testing.T) {
	path := writeCatalog(t, t.TempDir(), sampleCatalog)
	c, err := Load(path, nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("packs: ["), 0o600))
	require.Error(t, c.Reload())

	name, err := c.MessageFile("pack-48", 1)
	require.NoError(t, err)
	assert.Equal(t, "p48_w1.wav", name)
}

func TestWatch_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := writeCatalog(t, dir, sampleCatalog)
	c, err := Load(path, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Watch(ctx, 20*time.Millisecond) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})

	updated := sampleCatalog + "      - week: 2\n        messageFileName: p48_w2.wav\n"
	require.Eventually(t, func() bool {
		// Rewrite until the watcher has registered and picked the change up.
		_ = os.WriteFile(path, []byte(updated), 0o600)
		name, lookupErr := c.MessageFile("pack-48", 2)
		return lookupErr == nil && name == "p48_w2.wav"
	}, 5*time.Second, 50*time.Millisecond)
}
