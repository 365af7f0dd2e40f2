package worker

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"foldercast/internal/store"
	"foldercast/internal/test"
	"foldercast/pkg/tasks"
)

const testOwner = int64(1)

func feedRow(id, owner, folder int64, token, config string) *sqlmock.Rows {
	if config == "" {
		config = "{}"
	}
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "owner_id", "folder_id", "token", "configuration", "metadata_override", "created_at", "updated_at",
	}).AddRow(id, owner, folder, token, []byte(config), []byte("{}"), now, now)
}

func TestHandleSweepFeedTask(t *testing.T) {
	old := time.Now().Add(-10 * 24 * time.Hour)
	fresh := time.Now()

	t.Run("sweeps aged files and invalidates the cache", func(t *testing.T) {
		_, mock := test.NewMockDB(t)
		st := store.NewMemory()
		c := test.NewMemCache()
		h := NewTaskHandler(&test.MockTaskEnqueuer{}, st, c)

		folder := st.AddFolder(testOwner, 0, "Podcasts")
		st.AddFile(testOwner, folder.ID, "old.mp3", "audio/mpeg", old, []byte("o"))
		st.AddFile(testOwner, folder.ID, "new.mp3", "audio/mpeg", fresh, []byte("n"))
		mock.ExpectQuery("SELECT \\* FROM feeds WHERE id").
			WithArgs(int64(7)).
			WillReturnRows(feedRow(7, testOwner, folder.ID, "tok", `{"autoremoveDays":5}`))

		task, err := tasks.NewSweepFeedTask(7)
		require.NoError(t, err)
		require.NoError(t, h.HandleSweepFeedTask(context.Background(), task))

		children, err := st.List(context.Background(), testOwner, folder.ID)
		require.NoError(t, err)
		require.Len(t, children, 1)
		assert.Equal(t, "new.mp3", children[0].Name)
		assert.Equal(t, []string{"tok"}, c.Invalidated)
	})

	t.Run("nothing deleted leaves the cache alone", func(t *testing.T) {
		_, mock := test.NewMockDB(t)
		st := store.NewMemory()
		c := test.NewMemCache()
		h := NewTaskHandler(&test.MockTaskEnqueuer{}, st, c)

		folder := st.AddFolder(testOwner, 0, "Podcasts")
		st.AddFile(testOwner, folder.ID, "new.mp3", "audio/mpeg", fresh, []byte("n"))
		mock.ExpectQuery("SELECT \\* FROM feeds WHERE id").
			WillReturnRows(feedRow(7, testOwner, folder.ID, "tok", `{"autoremoveDays":5}`))

		task, _ := tasks.NewSweepFeedTask(7)
		require.NoError(t, h.HandleSweepFeedTask(context.Background(), task))
		assert.Empty(t, c.Invalidated)
	})

	t.Run("retention disabled is a no-op", func(t *testing.T) {
		_, mock := test.NewMockDB(t)
		st := store.NewMemory()
		h := NewTaskHandler(&test.MockTaskEnqueuer{}, st, test.NewMemCache())

		folder := st.AddFolder(testOwner, 0, "Podcasts")
		st.AddFile(testOwner, folder.ID, "old.mp3", "audio/mpeg", old, []byte("o"))
		mock.ExpectQuery("SELECT \\* FROM feeds WHERE id").
			WillReturnRows(feedRow(7, testOwner, folder.ID, "tok", ""))

		task, _ := tasks.NewSweepFeedTask(7)
		require.NoError(t, h.HandleSweepFeedTask(context.Background(), task))

		children, err := st.List(context.Background(), testOwner, folder.ID)
		require.NoError(t, err)
		assert.Len(t, children, 1)
	})

	t.Run("feed deleted after queueing is not an error", func(t *testing.T) {
		_, mock := test.NewMockDB(t)
		h := NewTaskHandler(&test.MockTaskEnqueuer{}, store.NewMemory(), test.NewMemCache())
		mock.ExpectQuery("SELECT \\* FROM feeds WHERE id").
			WillReturnError(sql.ErrNoRows)

		task, _ := tasks.NewSweepFeedTask(7)
		assert.NoError(t, h.HandleSweepFeedTask(context.Background(), task))
	})
}

func TestHandleSweepAllTask(t *testing.T) {
	_, mock := test.NewMockDB(t)
	enq := &test.MockTaskEnqueuer{}
	h := NewTaskHandler(enq, store.NewMemory(), test.NewMemCache())

	rows := feedRow(1, testOwner, 10, "tok1", `{"autoremoveDays":5}`)
	rows.AddRow(int64(2), testOwner, int64(11), "tok2", []byte("{}"), []byte("{}"), time.Now(), time.Now())
	rows.AddRow(int64(3), testOwner, int64(12), "tok3", []byte(`{"autoremoveDays":30}`), []byte("{}"), time.Now(), time.Now())
	mock.ExpectQuery("SELECT \\* FROM feeds ORDER BY id").WillReturnRows(rows)

	task, err := tasks.NewSweepAllTask()
	require.NoError(t, err)
	require.NoError(t, h.HandleSweepAllTask(context.Background(), task))

	require.Len(t, enq.EnqueuedTasks, 2, "only feeds with retention get a sweep")
	for _, queued := range enq.EnqueuedTasks {
		assert.Equal(t, tasks.TypeSweepFeed, queued.Type())
	}

	var first tasks.SweepFeedTaskPayload
	require.NoError(t, json.Unmarshal(enq.EnqueuedTasks[0].Payload(), &first))
	assert.Equal(t, int64(1), first.FeedID)
}
