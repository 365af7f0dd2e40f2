package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	TypeSweepFeed = "feed:sweep"
	TypeSweepAll  = "feeds:sweep_all"
)

type SweepFeedTaskPayload struct {
	FeedID int64
}

// NewSweepFeedTask builds a retention sweep task for one feed's folder.
func NewSweepFeedTask(feedID int64) (*asynq.Task, error) {
	payload, err := json.Marshal(SweepFeedTaskPayload{FeedID: feedID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeSweepFeed, payload), nil
}

// NewSweepAllTask builds the periodic task that fans out per-feed sweeps.
func NewSweepAllTask() (*asynq.Task, error) {
	return asynq.NewTask(TypeSweepAll, nil), nil
}
