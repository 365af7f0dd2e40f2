package feed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"foldercast/internal/store"
)

func TestResolveFile(t *testing.T) {
	now := time.Now()
	st := store.NewMemory()
	root := st.Root(testOwner)
	podcasts := st.AddFolder(testOwner, root.ID, "Podcasts")
	inside := st.AddFile(testOwner, podcasts.ID, "inside.mp3", "audio/mpeg", now, []byte("i"))
	sub := st.AddFolder(testOwner, podcasts.ID, "archive")
	nested := st.AddFile(testOwner, sub.ID, "nested.mp3", "audio/mpeg", now, []byte("n"))
	outside := st.AddFile(testOwner, root.ID, "private.mp3", "audio/mpeg", now, []byte("p"))
	// A sibling whose name shares the folder's prefix must not slip through
	// the containment check.
	sibling := st.AddFolder(testOwner, root.ID, "PodcastsBackup")
	siblingFile := st.AddFile(testOwner, sibling.ID, "backup.mp3", "audio/mpeg", now, []byte("b"))

	f := testFeed(podcasts.ID, "")

	t.Run("accepts direct children", func(t *testing.T) {
		node, ok := ResolveFile(context.Background(), st, f, inside.ID)
		assert.True(t, ok)
		assert.Equal(t, "inside.mp3", node.Name)
	})

	t.Run("accepts deep descendants", func(t *testing.T) {
		_, ok := ResolveFile(context.Background(), st, f, nested.ID)
		assert.True(t, ok)
	})

	t.Run("rejects the owner's files outside the subtree", func(t *testing.T) {
		_, ok := ResolveFile(context.Background(), st, f, outside.ID)
		assert.False(t, ok)
	})

	t.Run("rejects files under a prefix-sharing sibling folder", func(t *testing.T) {
		_, ok := ResolveFile(context.Background(), st, f, siblingFile.ID)
		assert.False(t, ok)
	})

	t.Run("rejects other owners' files", func(t *testing.T) {
		other := st.AddFile(2, 0, "theirs.mp3", "audio/mpeg", now, []byte("t"))
		_, ok := ResolveFile(context.Background(), st, f, other.ID)
		assert.False(t, ok)
	})

	t.Run("rejects folders as downloads", func(t *testing.T) {
		_, ok := ResolveFile(context.Background(), st, f, sub.ID)
		assert.False(t, ok)
	})

	t.Run("unresolvable bound folder resolves nothing", func(t *testing.T) {
		dangling := testFeed(99999, "")
		_, ok := ResolveFile(context.Background(), st, dangling, inside.ID)
		assert.False(t, ok)
	})
}
