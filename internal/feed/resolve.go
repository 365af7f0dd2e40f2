package feed

import (
	"context"
	"strings"

	"foldercast/internal/models"
	"foldercast/internal/store"
)

// ResolveFile resolves fileID for the feed owner and accepts it only when it
// is a descendant of the feed's bound folder. This is the sole access
// boundary keeping a feed token from fetching the owner's files outside the
// designated subtree. Every failure mode — missing file, missing folder,
// containment failure — collapses into the same negative result so callers
// cannot leak folder structure through differing responses.
func ResolveFile(ctx context.Context, st store.Store, f *models.Feed, fileID int64) (store.NodeInfo, bool) {
	node, err := st.NodeByID(ctx, f.OwnerID, fileID)
	if err != nil || node.IsFolder() {
		return store.NodeInfo{}, false
	}
	folder, err := st.NodeByID(ctx, f.OwnerID, f.FolderID)
	if err != nil || !folder.IsFolder() {
		return store.NodeInfo{}, false
	}
	if !strings.HasPrefix(node.Path, folder.Path+"/") {
		return store.NodeInfo{}, false
	}
	return node, true
}
