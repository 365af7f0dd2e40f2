package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx/types"
	"foldercast/internal/db"
	"foldercast/internal/feed"
	"foldercast/internal/middleware"
	"foldercast/internal/models"
	"foldercast/internal/store"
	"foldercast/pkg/tasks"
)

// feedView is a feed enriched with the resolved folder path for the UI.
type feedView struct {
	models.Feed
	FolderPath string `json:"folderPath"`
}

// ListFeeds returns the caller's feeds. A feed whose folder no longer
// resolves is still listed, with an empty folder path.
func (h *Handlers) ListFeeds(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(middleware.UserContextKey).(*models.User)

	feeds, err := db.GetFeedsByOwnerID(user.ID)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	views := make([]feedView, 0, len(feeds))
	for _, f := range feeds {
		view := feedView{Feed: f}
		if node, err := h.store.NodeByID(r.Context(), f.OwnerID, f.FolderID); err == nil && node.IsFolder() {
			view.FolderPath = node.Path
		}
		views = append(views, view)
	}
	writeJSON(w, views)
}

// CreateFeed binds a new feed to an existing folder, or auto-creates
// Podcasts/<podcastName> when a name is given instead.
func (h *Handlers) CreateFeed(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(middleware.UserContextKey).(*models.User)

	var req struct {
		FolderID    int64          `json:"folderId"`
		PodcastName string         `json:"podcastName"`
		Config      map[string]any `json:"config"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	folderID := req.FolderID
	switch {
	case folderID == 0 && strings.TrimSpace(req.PodcastName) == "":
		http.Error(w, "folderId or podcastName is required", http.StatusBadRequest)
		return
	case folderID == 0:
		parent, err := h.store.EnsureFolder(r.Context(), user.ID, 0, "Podcasts")
		if err != nil {
			http.Error(w, "Could not create podcast folder", http.StatusBadRequest)
			return
		}
		folder, err := h.store.EnsureFolder(r.Context(), user.ID, parent.ID, strings.TrimSpace(req.PodcastName))
		if err != nil {
			http.Error(w, "Could not create podcast folder", http.StatusBadRequest)
			return
		}
		folderID = folder.ID
	default:
		node, err := h.store.NodeByID(r.Context(), user.ID, folderID)
		if errors.Is(err, store.ErrNotExist) {
			http.Error(w, "Folder not found", http.StatusNotFound)
			return
		}
		if err != nil || !node.IsFolder() {
			http.Error(w, "Invalid folder", http.StatusBadRequest)
			return
		}
	}

	var blob types.JSONText
	if req.Config != nil {
		b, err := json.Marshal(req.Config)
		if err != nil {
			http.Error(w, "Invalid config", http.StatusBadRequest)
			return
		}
		blob = types.JSONText(b)
	}

	f, err := db.CreateFeed(user.ID, folderID, blob)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// A feed created with retention already configured gets its first sweep
	// queued right away instead of waiting for the daily schedule.
	if h.asynqClient != nil && f.Config().AutoremoveDays > 0 {
		if task, err := tasks.NewSweepFeedTask(f.ID); err != nil {
			log.Printf("Error creating sweep task: %v", err)
		} else if _, err := h.asynqClient.Enqueue(task); err != nil {
			log.Printf("Error enqueuing sweep task: %v", err)
		}
	}

	writeJSON(w, f)
}

// UpdateFeed merges a JSON patch into the feed configuration and invalidates
// the cached rendering for the feed's token.
func (h *Handlers) UpdateFeed(w http.ResponseWriter, r *http.Request) {
	f, ok := h.ownedFeed(w, r)
	if !ok {
		return
	}

	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := f.MergeConfiguration(patch); err != nil {
		http.Error(w, "Invalid configuration", http.StatusBadRequest)
		return
	}
	if err := db.UpdateFeedConfiguration(f.ID, f.Configuration); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.cache.Invalidate(r.Context(), f.Token)
	writeJSON(w, f)
}

// DeleteFeed removes the feed record and its cache entry. Skipping the
// invalidation would keep serving the deleted feed until the TTL ran out.
func (h *Handlers) DeleteFeed(w http.ResponseWriter, r *http.Request) {
	f, ok := h.ownedFeed(w, r)
	if !ok {
		return
	}

	if err := db.DeleteFeed(f.ID); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.cache.Invalidate(r.Context(), f.Token)
	w.WriteHeader(http.StatusOK)
}

// UploadLogo stores a custom logo as _logo.<ext> in the feed's folder and
// records its file id in the configuration.
func (h *Handlers) UploadLogo(w http.ResponseWriter, r *http.Request) {
	f, ok := h.ownedFeed(w, r)
	if !ok {
		return
	}

	file, header, err := r.FormFile("logo")
	if err != nil {
		http.Error(w, "logo file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	ext := filepath.Ext(header.Filename)
	if ext == "" {
		ext = ".png"
	}
	name := strings.TrimSuffix(feed.LogoPrefix, ".") + ext

	node, err := h.store.Put(r.Context(), f.OwnerID, f.FolderID, name, file)
	if err != nil {
		// The one place a store failure surfaces with its message.
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := f.MergeConfiguration(map[string]any{"logoFileId": node.ID}); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if err := db.UpdateFeedConfiguration(f.ID, f.Configuration); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.cache.Invalidate(r.Context(), f.Token)
	writeJSON(w, map[string]int64{"fileId": node.ID})
}

// ownedFeed loads the feed addressed by the {id} path variable and enforces
// ownership. It writes the error response itself when returning !ok.
func (h *Handlers) ownedFeed(w http.ResponseWriter, r *http.Request) (*models.Feed, bool) {
	user := r.Context().Value(middleware.UserContextKey).(*models.User)

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid feed ID", http.StatusBadRequest)
		return nil, false
	}

	f, err := db.GetFeedByID(id)
	if err != nil {
		http.Error(w, "Not found", http.StatusNotFound)
		return nil, false
	}
	if f.OwnerID != user.ID {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return nil, false
	}
	return &f, true
}
