package feed

import (
	"context"
	"log"
	"strings"
	"time"

	"foldercast/internal/store"
)

// Sweep deletes files older than maxAgeDays from the folder's top level and
// returns how many were removed. podcast.json and _logo.* assets are never
// touched. A no-op when maxAgeDays <= 0. Per-file deletion failures are
// logged and do not abort the rest of the sweep.
func Sweep(ctx context.Context, st store.Store, ownerID, folderID int64, maxAgeDays int) int {
	if maxAgeDays <= 0 {
		return 0
	}
	children, err := st.List(ctx, ownerID, folderID)
	if err != nil {
		log.Printf("sweep: listing folder %d: %v", folderID, err)
		return 0
	}
	cutoff := time.Now().Add(-time.Duration(maxAgeDays) * 24 * time.Hour)
	deleted := 0
	for _, child := range children {
		if child.IsFolder() || protectedName(child.Name) {
			continue
		}
		if !child.ModTime.Before(cutoff) {
			continue
		}
		if err := st.Delete(ctx, ownerID, child.ID); err != nil {
			log.Printf("sweep: could not delete %s: %v", child.Name, err)
			continue
		}
		deleted++
	}
	return deleted
}

func protectedName(name string) bool {
	return name == ConfigFileName || strings.HasPrefix(name, LogoPrefix)
}
