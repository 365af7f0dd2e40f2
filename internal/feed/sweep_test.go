package feed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"foldercast/internal/store"
)

func TestSweep(t *testing.T) {
	old := time.Now().Add(-10 * 24 * time.Hour)
	fresh := time.Now().Add(-time.Hour)

	newFolder := func(t *testing.T) (*store.Memory, store.NodeInfo) {
		st := store.NewMemory()
		folder := st.AddFolder(testOwner, 0, "Podcasts")
		st.AddFile(testOwner, folder.ID, "old.mp3", "audio/mpeg", old, []byte("o"))
		st.AddFile(testOwner, folder.ID, "new.mp3", "audio/mpeg", fresh, []byte("n"))
		st.AddFile(testOwner, folder.ID, "podcast.json", "application/json", old, []byte("{}"))
		st.AddFile(testOwner, folder.ID, "_logo.png", "image/png", old, []byte("img"))
		return st, folder
	}

	t.Run("deletes aged files and protects configuration assets", func(t *testing.T) {
		st, folder := newFolder(t)
		deleted := Sweep(context.Background(), st, testOwner, folder.ID, 5)
		assert.Equal(t, 1, deleted)

		children, err := st.List(context.Background(), testOwner, folder.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"new.mp3", "podcast.json", "_logo.png"}, names(children))
	})

	t.Run("no-op when retention is disabled", func(t *testing.T) {
		st, folder := newFolder(t)
		assert.Zero(t, Sweep(context.Background(), st, testOwner, folder.ID, 0))
		assert.Zero(t, Sweep(context.Background(), st, testOwner, folder.ID, -3))

		children, err := st.List(context.Background(), testOwner, folder.ID)
		require.NoError(t, err)
		assert.Len(t, children, 4)
	})

	t.Run("shallow sweep leaves subfolders alone", func(t *testing.T) {
		st, folder := newFolder(t)
		sub := st.AddFolder(testOwner, folder.ID, "archive")
		st.AddFile(testOwner, sub.ID, "ancient.mp3", "audio/mpeg", old, []byte("a"))

		Sweep(context.Background(), st, testOwner, folder.ID, 5)

		subChildren, err := st.List(context.Background(), testOwner, sub.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"ancient.mp3"}, names(subChildren))
	})
}
