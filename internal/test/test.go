package test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	"foldercast/internal/db"
)

// MockTaskEnqueuer is a mock implementation of tasks.TaskEnqueuer for testing.
type MockTaskEnqueuer struct {
	EnqueuedTasks []*asynq.Task
}

func (m *MockTaskEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	m.EnqueuedTasks = append(m.EnqueuedTasks, task)
	return &asynq.TaskInfo{ID: "test-task-id", Queue: "default"}, nil
}

// NewMockDB swaps the global DB for a sqlmock connection for the duration of
// the test.
func NewMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	mockDb, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	sqlxDB := sqlx.NewDb(mockDb, "sqlmock")

	originalDB := db.DB
	db.DB = sqlxDB
	t.Cleanup(func() {
		db.DB = originalDB
		mockDb.Close()
	})

	return sqlxDB, mock
}

// MemCache is a map-backed cache.Cache for handler tests. It records which
// tokens were invalidated.
type MemCache struct {
	mu          sync.Mutex
	Entries     map[string]string
	Invalidated []string
}

func NewMemCache() *MemCache {
	return &MemCache{Entries: make(map[string]string)}
}

func (c *MemCache) Get(_ context.Context, token string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.Entries[token]
	return v, ok
}

func (c *MemCache) Put(_ context.Context, token, xml string, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Entries[token] = xml
}

func (c *MemCache) Invalidate(_ context.Context, token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.Entries, token)
	c.Invalidated = append(c.Invalidated, token)
}
