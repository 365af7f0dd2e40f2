package handlers

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"foldercast/internal/db"
	"foldercast/internal/feed"
	"foldercast/internal/models"
)

// GetFeed serves the rendered RSS document for a token, from cache when the
// entry is still live. Any rendering-path failure degrades to 404 so a bad
// token, a dangling folder and an internal hiccup all look the same to an
// anonymous caller.
func (h *Handlers) GetFeed(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]
	ctx := r.Context()

	if xml, ok := h.cache.Get(ctx, token); ok {
		writeXML(w, xml)
		return
	}

	f, err := db.GetFeedByToken(token)
	if err != nil {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	xml, err := h.renderer.Render(ctx, &f)
	if err != nil {
		log.Printf("Error rendering feed %s: %v", token, err)
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	h.cache.Put(ctx, token, xml, h.cacheTTL)
	writeXML(w, xml)
}

func writeXML(w http.ResponseWriter, xml string) {
	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.Write([]byte(xml))
}

// ServeAudio streams an audio file scoped to the feed's folder subtree.
func (h *Handlers) ServeAudio(w http.ResponseWriter, r *http.Request) {
	f, fileID, ok := h.feedAndFile(r)
	if !ok {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	node, ok := feed.ResolveFile(r.Context(), h.store, f, fileID)
	if !ok {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	rc, err := h.store.Open(r.Context(), f.OwnerID, node.ID)
	if err != nil {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", node.MimeType)
	w.Header().Set("Content-Length", strconv.FormatInt(node.Size, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", node.Name))
	if _, err := io.Copy(w, rc); err != nil {
		log.Printf("Error streaming %s: %v", node.Name, err)
	}
}

// ServeLogo streams the feed's uploaded logo, resolved through the same
// scoping as audio downloads.
func (h *Handlers) ServeLogo(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]
	f, err := db.GetFeedByToken(token)
	if err != nil {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	cfg := f.Config()
	if cfg.LogoFileID == 0 {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	node, ok := feed.ResolveFile(r.Context(), h.store, &f, cfg.LogoFileID)
	if !ok {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	rc, err := h.store.Open(r.Context(), f.OwnerID, node.ID)
	if err != nil {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", node.MimeType)
	w.Header().Set("Content-Length", strconv.FormatInt(node.Size, 10))
	io.Copy(w, rc)
}

// ServeCover extracts and returns the embedded cover image of one item.
func (h *Handlers) ServeCover(w http.ResponseWriter, r *http.Request) {
	f, fileID, ok := h.feedAndFile(r)
	if !ok {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	node, ok := feed.ResolveFile(r.Context(), h.store, f, fileID)
	if !ok {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	data, mimeType, err := h.covers.Cover(r.Context(), f.OwnerID, node)
	if err != nil {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

func (h *Handlers) feedAndFile(r *http.Request) (*models.Feed, int64, bool) {
	vars := mux.Vars(r)
	fileID, err := strconv.ParseInt(vars["fileId"], 10, 64)
	if err != nil {
		return nil, 0, false
	}
	f, err := db.GetFeedByToken(vars["token"])
	if err != nil {
		return nil, 0, false
	}
	return &f, fileID, true
}
