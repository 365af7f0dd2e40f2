// Package metadata extracts embedded audio tags (title, artist, duration,
// cover art) from files held in the file store. Extraction is best-effort:
// corrupt or tagless files degrade to filename-derived defaults and are
// never surfaced as errors to rendering.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/google/uuid"
	"github.com/tcolgate/mp3"
	"foldercast/internal/store"
)

// ErrNoCover is returned by Cover when a file carries no embedded image.
var ErrNoCover = errors.New("metadata: no embedded cover image")

// Metadata is the per-file tag summary used to build feed items. Cover bytes
// are intentionally absent; Cover performs a separate targeted extraction so
// large images never ride along with routine reads.
type Metadata struct {
	Title           string
	Artist          string
	Album           string
	DurationSeconds int
	FileSize        int64
	MimeType        string
	Description     string
	URL             string
	RecordingDate   string
	HasCover        bool
}

// Extractor reads tags from store files. Tag parsers need random access to a
// local byte stream, so each extraction materializes a private temp copy.
type Extractor struct {
	store  store.Store
	tmpDir string
}

// NewExtractor returns an extractor backed by st, staging temp copies under
// the system temp directory.
func NewExtractor(st store.Store) *Extractor {
	return &Extractor{store: st, tmpDir: os.TempDir()}
}

// Read extracts tag metadata from a file. It never fails: any analysis error
// is logged and the returned record falls back to the file name as title,
// zero duration and no cover.
func (e *Extractor) Read(ctx context.Context, ownerID int64, node store.NodeInfo) Metadata {
	meta := Metadata{
		Title:    node.Name,
		FileSize: node.Size,
		MimeType: node.MimeType,
	}

	local, cleanup, err := e.materialize(ctx, ownerID, node)
	if err != nil {
		log.Printf("metadata: could not materialize %s for analysis: %v", node.Name, err)
		return meta
	}
	defer cleanup()

	f, err := os.Open(local)
	if err != nil {
		log.Printf("metadata: could not open temp copy of %s: %v", node.Name, err)
		return meta
	}
	defer f.Close()

	t, err := tag.ReadFrom(f)
	if err != nil {
		log.Printf("metadata: no readable tags in %s: %v", node.Name, err)
	} else {
		applyTags(&meta, t)
	}

	if isMP3(node) {
		if _, err := f.Seek(0, io.SeekStart); err == nil {
			meta.DurationSeconds = mp3Duration(f)
		}
	}

	return meta
}

// Cover re-opens the file and extracts the embedded image payload and its
// MIME type. Kept separate from Read so image bytes are only pulled into
// memory when a cover endpoint asks for them.
func (e *Extractor) Cover(ctx context.Context, ownerID int64, node store.NodeInfo) ([]byte, string, error) {
	local, cleanup, err := e.materialize(ctx, ownerID, node)
	if err != nil {
		return nil, "", err
	}
	defer cleanup()

	f, err := os.Open(local)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	t, err := tag.ReadFrom(f)
	if err != nil {
		return nil, "", fmt.Errorf("metadata: reading tags of %s: %w", node.Name, err)
	}
	pic := t.Picture()
	if pic == nil || len(pic.Data) == 0 {
		return nil, "", ErrNoCover
	}
	mimeType := pic.MIMEType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return pic.Data, mimeType, nil
}

// materialize copies the store object to a private temp file. The name is
// unique per (file, request) so concurrent extractions cannot collide; the
// returned cleanup must run on every exit path.
func (e *Extractor) materialize(ctx context.Context, ownerID int64, node store.NodeInfo) (string, func(), error) {
	rc, err := e.store.Open(ctx, ownerID, node.ID)
	if err != nil {
		return "", nil, err
	}
	defer rc.Close()

	name := fmt.Sprintf("foldercast-%d-%s%s", node.ID, uuid.NewString(), filepath.Ext(node.Name))
	path := filepath.Join(e.tmpDir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", nil, err
	}
	if _, err := io.Copy(f, rc); err != nil {
		f.Close()
		os.Remove(path)
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", nil, err
	}
	return path, func() { os.Remove(path) }, nil
}

func applyTags(meta *Metadata, t tag.Metadata) {
	if v := strings.TrimSpace(t.Title()); v != "" {
		meta.Title = v
	}
	meta.Artist = strings.TrimSpace(t.Artist())
	meta.Album = strings.TrimSpace(t.Album())

	// Prefer unsynchronized lyrics frames for the description, then fall
	// back to the free-text comment field.
	if v := strings.TrimSpace(t.Lyrics()); v != "" {
		meta.Description = v
	} else if v := strings.TrimSpace(t.Comment()); v != "" {
		meta.Description = v
	}

	meta.URL = rawString(t, "WXXX", "WOAR", "WOAS", "purl")
	meta.RecordingDate = recordingDate(t)
	meta.HasCover = t.Picture() != nil
}

// recordingDate probes recording-time, then date, then year frames.
func recordingDate(t tag.Metadata) string {
	if v := rawString(t, "TDRC", "TDRL", "TDAT", "date"); v != "" {
		return v
	}
	if y := t.Year(); y > 0 {
		return strconv.Itoa(y)
	}
	return ""
}

// rawString returns the first non-empty raw frame among keys, coping with
// the handful of value shapes the tag library produces.
func rawString(t tag.Metadata, keys ...string) string {
	raw := t.Raw()
	for _, k := range keys {
		switch v := raw[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case *tag.Comm:
			if s := strings.TrimSpace(v.Text); s != "" {
				return s
			}
		case fmt.Stringer:
			if s := strings.TrimSpace(v.String()); s != "" {
				return s
			}
		}
	}
	return ""
}

func isMP3(node store.NodeInfo) bool {
	if strings.HasPrefix(node.MimeType, "audio/mpeg") {
		return true
	}
	return strings.EqualFold(filepath.Ext(node.Name), ".mp3")
}

// mp3Duration sums frame durations across the whole stream. Truncated or
// garbage trailing data just ends the scan.
func mp3Duration(r io.Reader) int {
	d := mp3.NewDecoder(r)
	var frame mp3.Frame
	var skipped int
	var total time.Duration
	for {
		if err := d.Decode(&frame, &skipped); err != nil {
			break
		}
		total += frame.Duration()
	}
	return int(total.Seconds())
}
