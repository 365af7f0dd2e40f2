package feed

import (
	"context"
	"strings"

	"foldercast/internal/store"
)

// Names the retention sweep must never delete and the renderer treats
// specially inside a feed folder.
const (
	ConfigFileName = "podcast.json"
	LogoPrefix     = "_logo."
)

// Scan collects the audio files of a folder in listing order. Subfolders are
// descended only when recursive is set, flattening their contents into the
// one result list. Non-audio files and, when non-recursive, subfolders are
// silently skipped.
func Scan(ctx context.Context, st store.Store, ownerID, folderID int64, recursive bool) ([]store.NodeInfo, error) {
	children, err := st.List(ctx, ownerID, folderID)
	if err != nil {
		return nil, err
	}
	var out []store.NodeInfo
	for _, child := range children {
		if child.IsFolder() {
			if !recursive {
				continue
			}
			sub, err := Scan(ctx, st, ownerID, child.ID, true)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
			continue
		}
		if isAudio(child.MimeType) {
			out = append(out, child)
		}
	}
	return out, nil
}

// isAudio accepts declared audio types plus the common mislabeled-upload
// cases: video containers and the generic octet-stream type.
func isAudio(mimeType string) bool {
	mt := mimeType
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return strings.HasPrefix(mt, "audio/") ||
		strings.HasPrefix(mt, "video/") ||
		mt == "application/octet-stream"
}
