package templates

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := LoadFromFile("")
	require.NoError(t, err)

	assert.False(t, c.IsPro("classic"))
	assert.False(t, c.IsPro("gallery"))
	assert.True(t, c.IsPro("minimal"))
	assert.True(t, c.IsPro("story"))
	assert.False(t, c.IsPro("unknown"))

	tmpl, ok := c.Lookup(DefaultKey)
	require.True(t, ok)
	assert.Equal(t, "Case Study", tmpl.Label)

	all := c.All()
	require.Len(t, all, 4)
	assert.Equal(t, "classic", all[0].Key)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(dir, "ok.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"templates":[{"key":"classic","label":"Classic","tier":"free"},{"key":"noir","label":"Noir","tier":"pro"}]}`), 0o644))
		c, err := LoadFromFile(path)
		require.NoError(t, err)
		assert.True(t, c.IsPro("noir"))
		_, ok := c.Lookup("story")
		assert.False(t, ok)
	})

	t.Run("unknown tier", func(t *testing.T) {
		path := filepath.Join(dir, "tier.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"templates":[{"key":"x","tier":"gold"}]}`), 0o644))
		_, err := LoadFromFile(path)
		assert.Error(t, err)
	})

	t.Run("missing default template", func(t *testing.T) {
		path := filepath.Join(dir, "nodefault.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"templates":[{"key":"noir","label":"Noir","tier":"pro"}]}`), 0o644))
		_, err := LoadFromFile(path)
		assert.ErrorContains(t, err, DefaultKey)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFromFile(filepath.Join(dir, "absent.json"))
		assert.Error(t, err)
	})
}

func TestWatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "templates.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"templates":[{"key":"classic","label":"Classic","tier":"free"}]}`), 0o644))

	c, err := LoadFromFile(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, c.Watch(ctx, path))

	require.NoError(t, os.WriteFile(path, []byte(`{"templates":[{"key":"classic","label":"Classic","tier":"free"},{"key":"story","label":"Story","tier":"pro"}]}`), 0o644))
	assert.Eventually(t, func() bool { return c.IsPro("story") }, 2*time.Second, 20*time.Millisecond)

	// A file without the default template is rejected like a broken one.
	require.NoError(t, os.WriteFile(path, []byte(`{"templates":[{"key":"story","label":"Story","tier":"pro"}]}`), 0o644))
	time.Sleep(100 * time.Millisecond)
	_, ok := c.Lookup(DefaultKey)
	assert.True(t, ok)

	// A broken file keeps the last good catalog.
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))
	time.Sleep(100 * time.Millisecond)
	assert.True(t, c.IsPro("story"))
}
