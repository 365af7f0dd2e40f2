package worker

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/hibiken/asynq"
	"foldercast/internal/cache"
	"foldercast/internal/db"
	"foldercast/internal/feed"
	"foldercast/internal/store"
	"foldercast/pkg/tasks"
)

type TaskHandler struct {
	asynqClient tasks.TaskEnqueuer
	store       store.Store
	cache       cache.Cache
}

func NewTaskHandler(client tasks.TaskEnqueuer, st store.Store, c cache.Cache) *TaskHandler {
	return &TaskHandler{asynqClient: client, store: st, cache: c}
}

// HandleSweepFeedTask runs the retention sweep for one feed's folder. When
// the sweep deleted anything the cached rendering is stale, so the feed's
// cache entry is invalidated.
func (h *TaskHandler) HandleSweepFeedTask(ctx context.Context, t *asynq.Task) error {
	var p tasks.SweepFeedTaskPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}

	f, err := db.GetFeedByID(p.FeedID)
	if errors.Is(err, sql.ErrNoRows) {
		// Feed was deleted after the task was queued. Nothing to sweep.
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get feed %d: %w", p.FeedID, err)
	}

	cfg := f.Config()
	if cfg.AutoremoveDays <= 0 {
		return nil
	}

	log.Printf("Sweeping folder %d for feed %d (maxAgeDays=%d)", f.FolderID, f.ID, cfg.AutoremoveDays)
	deleted := feed.Sweep(ctx, h.store, f.OwnerID, f.FolderID, cfg.AutoremoveDays)
	if deleted > 0 {
		h.cache.Invalidate(ctx, f.Token)
		log.Printf("Swept %d file(s) from feed %d", deleted, f.ID)
	}
	return nil
}

// HandleSweepAllTask fans out per-feed sweep tasks for every feed with
// retention configured.
func (h *TaskHandler) HandleSweepAllTask(ctx context.Context, t *asynq.Task) error {
	log.Println("Checking all feeds for retention sweeps...")

	feeds, err := db.GetAllFeeds()
	if err != nil {
		return fmt.Errorf("failed to get feeds: %w", err)
	}

	for _, f := range feeds {
		if f.Config().AutoremoveDays <= 0 {
			continue
		}
		task, err := tasks.NewSweepFeedTask(f.ID)
		if err != nil {
			log.Printf("failed to create sweep task for feed %d: %v", f.ID, err)
			continue
		}
		if _, err := h.asynqClient.Enqueue(task); err != nil {
			log.Printf("failed to enqueue sweep task for feed %d: %v", f.ID, err)
			continue
		}
	}

	log.Println("Finished queueing retention sweeps.")
	return nil
}
