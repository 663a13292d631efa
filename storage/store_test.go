package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStem(t *testing.T) {
	tests := []struct {
		location string
		want     string
	}{
		{"/data/in/tower.ifc", "tower"},
		{"tower.IFC", "tower"},
		{"file://localhost/data/in/a.b.ifc", "a.b"},
		{"noextension", "noextension"},
		{`C:\models\site.ifc`, "site"},
	}

	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			assert.Equal(t, tt.want, Stem(tt.location))
		})
	}
}

func TestStore_List(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	for _, name := range []string{"b.ifc", "a.ifc", "C.IFC", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.ifc"), 0o755))

	store := NewStore(nil)

	t.Run("matches pattern case-insensitively and sorts", func(t *testing.T) {
		files, err := store.List(ctx, dir, "*.ifc")
		require.NoError(t, err)
		require.Len(t, files, 3)
		assert.Equal(t, "C.IFC", filepath.Base(files[0]))
		assert.Equal(t, "a.ifc", filepath.Base(files[1]))
		assert.Equal(t, "b.ifc", filepath.Base(files[2]))
	})

	t.Run("no matches", func(t *testing.T) {
		files, err := store.List(ctx, dir, "*.gml")
		require.NoError(t, err)
		assert.Empty(t, files)
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := store.List(ctx, filepath.Join(dir, "absent"), "*.ifc")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("file instead of directory", func(t *testing.T) {
		_, err := store.List(ctx, filepath.Join(dir, "a.ifc"), "*.ifc")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNotDirectory)
	})

	t.Run("invalid pattern", func(t *testing.T) {
		_, err := store.List(ctx, dir, "[")
		require.Error(t, err)
	})
}

func TestStore_ReadWrite(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := NewStore(nil)

	location := Join(dir, "out", "model.gml")
	require.NoError(t, store.EnsureDir(ctx, Join(dir, "out")))
	require.NoError(t, store.Write(ctx, location, []byte("<CityModel/>")))

	data, err := store.Read(ctx, location)
	require.NoError(t, err)
	assert.Equal(t, "<CityModel/>", string(data))

	ok, err := store.Exists(ctx, location)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = store.Read(ctx, Join(dir, "out", "missing.gml"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_EnsureDirIdempotent(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "a", "b")
	store := NewStore(nil)

	require.NoError(t, store.EnsureDir(ctx, dir))
	require.NoError(t, store.EnsureDir(ctx, dir))

	isDir, err := store.IsDir(ctx, dir)
	require.NoError(t, err)
	assert.True(t, isDir)
}
