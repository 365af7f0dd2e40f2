package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"foldercast/internal/cache"
	"foldercast/internal/feed"
	"foldercast/internal/store"
	"foldercast/pkg/tasks"
)

// CoverSource extracts embedded cover art on demand. *metadata.Extractor
// implements it.
type CoverSource interface {
	Cover(ctx context.Context, ownerID int64, node store.NodeInfo) ([]byte, string, error)
}

type Handlers struct {
	store       store.Store
	cache       cache.Cache
	renderer    *feed.Renderer
	covers      CoverSource
	asynqClient tasks.TaskEnqueuer
	cacheTTL    time.Duration
}

func New(st store.Store, c cache.Cache, renderer *feed.Renderer, covers CoverSource, asynqClient tasks.TaskEnqueuer, cacheTTL time.Duration) *Handlers {
	return &Handlers{
		store:       st,
		cache:       c,
		renderer:    renderer,
		covers:      covers,
		asynqClient: asynqClient,
		cacheTTL:    cacheTTL,
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}
