package store

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDisk(t *testing.T) (*Disk, string) {
	dir := t.TempDir()
	return NewDisk(dir), dir
}

func writeOwnerFile(t *testing.T, root string, owner, rel string, data []byte, modTime time.Time) {
	path := filepath.Join(root, owner, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	if !modTime.IsZero() {
		require.NoError(t, os.Chtimes(path, modTime, modTime))
	}
}

func TestDiskStore(t *testing.T) {
	ctx := context.Background()

	t.Run("folders resolve by id and list their children", func(t *testing.T) {
		d, root := newTestDisk(t)
		writeOwnerFile(t, root, "1", "Podcasts/episode1.mp3", []byte("audio-bytes"), time.Time{})
		writeOwnerFile(t, root, "1", "Podcasts/notes.txt", []byte("n"), time.Time{})

		folder, err := d.EnsureFolder(ctx, 1, 0, "Podcasts")
		require.NoError(t, err)
		assert.True(t, folder.IsFolder())
		assert.Equal(t, "/1/files/Podcasts", folder.Path)
		require.NotZero(t, folder.ID)

		children, err := d.List(ctx, 1, folder.ID)
		require.NoError(t, err)
		require.Len(t, children, 2)

		byName := map[string]NodeInfo{}
		for _, c := range children {
			byName[c.Name] = c
		}
		ep := byName["episode1.mp3"]
		assert.Equal(t, KindFile, ep.Kind)
		assert.Equal(t, int64(11), ep.Size)
		assert.Equal(t, "/1/files/Podcasts/episode1.mp3", ep.Path)
		assert.True(t, strings.HasPrefix(ep.MimeType, "audio/mpeg"))
	})

	t.Run("open streams file content", func(t *testing.T) {
		d, root := newTestDisk(t)
		writeOwnerFile(t, root, "1", "Podcasts/episode1.mp3", []byte("audio-bytes"), time.Time{})
		folder, err := d.EnsureFolder(ctx, 1, 0, "Podcasts")
		require.NoError(t, err)
		children, err := d.List(ctx, 1, folder.ID)
		require.NoError(t, err)
		require.Len(t, children, 1)

		rc, err := d.Open(ctx, 1, children[0].ID)
		require.NoError(t, err)
		defer rc.Close()
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "audio-bytes", string(data))
	})

	t.Run("identifiers do not cross owner boundaries", func(t *testing.T) {
		d, root := newTestDisk(t)
		writeOwnerFile(t, root, "1", "Podcasts/secret.mp3", []byte("s"), time.Time{})
		folder, err := d.EnsureFolder(ctx, 1, 0, "Podcasts")
		require.NoError(t, err)
		children, err := d.List(ctx, 1, folder.ID)
		require.NoError(t, err)
		require.Len(t, children, 1)

		_, err = d.NodeByID(ctx, 2, children[0].ID)
		assert.ErrorIs(t, err, ErrNotExist)
	})

	t.Run("put writes into a folder and delete removes by id", func(t *testing.T) {
		d, _ := newTestDisk(t)
		folder, err := d.EnsureFolder(ctx, 1, 0, "Podcasts")
		require.NoError(t, err)

		node, err := d.Put(ctx, 1, folder.ID, "_logo.png", strings.NewReader("img"))
		require.NoError(t, err)
		assert.Equal(t, "_logo.png", node.Name)
		assert.Equal(t, "image/png", node.MimeType)
		assert.Equal(t, int64(3), node.Size)

		require.NoError(t, d.Delete(ctx, 1, node.ID))
		_, err = d.NodeByID(ctx, 1, node.ID)
		assert.ErrorIs(t, err, ErrNotExist)
	})

	t.Run("ensure folder nests and is idempotent", func(t *testing.T) {
		d, _ := newTestDisk(t)
		parent, err := d.EnsureFolder(ctx, 1, 0, "Podcasts")
		require.NoError(t, err)
		child, err := d.EnsureFolder(ctx, 1, parent.ID, "Daily")
		require.NoError(t, err)
		assert.Equal(t, "/1/files/Podcasts/Daily", child.Path)

		again, err := d.EnsureFolder(ctx, 1, parent.ID, "Daily")
		require.NoError(t, err)
		assert.Equal(t, child.ID, again.ID)
	})

	t.Run("unknown ids are ErrNotExist", func(t *testing.T) {
		d, _ := newTestDisk(t)
		_, err := d.NodeByID(ctx, 1, 123456789)
		assert.ErrorIs(t, err, ErrNotExist)
	})
}
