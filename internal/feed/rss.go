package feed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/eduncan911/podcast"
	"foldercast/internal/metadata"
	"foldercast/internal/models"
	"foldercast/internal/store"
)

// ErrFolderNotFound signals a dangling feed: the bound folder was deleted or
// is no longer resolvable in the file store.
var ErrFolderNotFound = errors.New("feed: folder not found")

// MetadataReader provides per-file tag metadata. *metadata.Extractor
// implements it; tests substitute a stub.
type MetadataReader interface {
	Read(ctx context.Context, ownerID int64, node store.NodeInfo) metadata.Metadata
}

// Renderer turns a feed record into an RSS 2.0 document with the iTunes
// podcast namespace.
type Renderer struct {
	store   store.Store
	meta    MetadataReader
	baseURL string
}

// NewRenderer wires a renderer to the file store and tag extractor. baseURL
// is the external base for download, cover and logo links, without a
// trailing slash.
func NewRenderer(st store.Store, meta MetadataReader, baseURL string) *Renderer {
	return &Renderer{store: st, meta: meta, baseURL: strings.TrimRight(baseURL, "/")}
}

// Render builds the full XML document in memory and returns it as a string.
// On a configured retention age the folder is swept first, so the rendered
// file set reflects the sweep's deletions.
func (r *Renderer) Render(ctx context.Context, f *models.Feed) (string, error) {
	folder, err := r.store.NodeByID(ctx, f.OwnerID, f.FolderID)
	if err != nil || !folder.IsFolder() {
		return "", ErrFolderNotFound
	}

	cfg := f.Config()
	if cfg.AutoremoveDays > 0 {
		Sweep(ctx, r.store, f.OwnerID, f.FolderID, cfg.AutoremoveDays)
	}

	meta := resolveChannelMeta(
		defaultsLayer(folder.Name),
		podcastJSONLayer(ctx, r.store, f.OwnerID, f.FolderID),
		configLayer(cfg),
	)

	p := podcast.New(meta.Title, r.feedURL(f.Token), meta.Description, nil, nil)
	if meta.Author != "" {
		p.IAuthor = meta.Author
	}
	switch {
	case cfg.LogoFileID != 0:
		// The file id doubles as a cache-busting query value.
		p.AddImage(fmt.Sprintf("%s/logo?v=%d", r.feedURL(f.Token), cfg.LogoFileID))
	case cfg.ImageURL != "":
		p.AddImage(cfg.ImageURL)
	}

	files, err := Scan(ctx, r.store, f.OwnerID, f.FolderID, cfg.Flatten)
	if err != nil {
		return "", fmt.Errorf("feed: scanning folder %d: %w", f.FolderID, err)
	}

	for _, file := range files {
		m := r.meta.Read(ctx, f.OwnerID, file)

		item := podcast.Item{
			Title:       m.Title,
			Description: m.Title,
			GUID:        strconv.FormatInt(file.ID, 10),
		}
		if m.Description != "" {
			item.Description = m.Description
			item.AddSummary(m.Description)
		}
		if m.Artist != "" {
			item.IAuthor = m.Artist
		}
		if m.URL != "" {
			item.Link = m.URL
		}
		pub := pubDate(m.RecordingDate, file.ModTime)
		item.AddPubDate(&pub)
		item.AddEnclosure(
			fmt.Sprintf("%s/audio/%d", r.feedURL(f.Token), file.ID),
			enclosureType(file.MimeType),
			m.FileSize,
		)
		if m.HasCover {
			item.AddImage(fmt.Sprintf("%s/cover/%d", r.feedURL(f.Token), file.ID))
		}
		if m.DurationSeconds > 0 {
			item.AddDuration(int64(m.DurationSeconds))
		}
		if _, err := p.AddItem(item); err != nil {
			log.Printf("feed: skipping item %s: %v", file.Name, err)
		}
	}

	return p.String(), nil
}

func (r *Renderer) feedURL(token string) string {
	return fmt.Sprintf("%s/feed/%s", r.baseURL, token)
}

var pubDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"20060102",
	"2006",
}

// pubDate parses the extracted recording date, falling back to the file's
// last-modified time when the tag is absent or unparseable.
func pubDate(recorded string, modTime time.Time) time.Time {
	s := strings.TrimSpace(recorded)
	if s == "" {
		return modTime
	}
	for _, layout := range pubDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return modTime
}

// enclosureType maps a store MIME type onto the serializer's enclosure
// enum. Anything unrecognized declares MP3, which every podcast client
// accepts for audio enclosures.
func enclosureType(mimeType string) podcast.EnclosureType {
	mt := mimeType
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	switch {
	case strings.HasSuffix(mt, "m4a") || mt == "audio/mp4":
		return podcast.M4A
	case strings.HasSuffix(mt, "m4v"):
		return podcast.M4V
	case strings.HasPrefix(mt, "video/"):
		return podcast.MP4
	default:
		return podcast.MP3
	}
}
