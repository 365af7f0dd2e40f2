package models

import (
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Feed binds a public token to a folder in the file store. The token is
// minted once at creation and identifies the feed to anonymous requests.
type Feed struct {
	ID               int64          `db:"id" json:"id"`
	OwnerID          int64          `db:"owner_id" json:"ownerId"`
	FolderID         int64          `db:"folder_id" json:"folderId"`
	Token            string         `db:"token" json:"token"`
	Configuration    types.JSONText `db:"configuration" json:"configuration"`
	MetadataOverride types.JSONText `db:"metadata_override" json:"metadataOverride,omitempty"`
	CreatedAt        time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updatedAt"`
}

// FeedConfig is the typed view of the per-feed configuration blob.
// Flatten controls whether folder scanning recurses into subfolders and
// flattens the result into one list.
type FeedConfig struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Author         string `json:"author"`
	Flatten        bool   `json:"flatten"`
	AutoremoveDays int    `json:"autoremoveDays"`
	LogoFileID     int64  `json:"logoFileId"`
	ImageURL       string `json:"imageUrl"`
}

func defaultConfig() FeedConfig {
	return FeedConfig{Flatten: true}
}

// Config parses the configuration blob. Absent or invalid JSON yields the
// defaults; it never fails.
func (f *Feed) Config() FeedConfig {
	cfg := defaultConfig()
	if len(f.Configuration) == 0 {
		return cfg
	}
	if err := json.Unmarshal(f.Configuration, &cfg); err != nil {
		return defaultConfig()
	}
	return cfg
}

// MergeConfiguration overlays patch onto the stored configuration blob.
// Keys present in patch override or extend existing ones; omitted keys
// persist, and unrecognized keys survive the merge untouched.
func (f *Feed) MergeConfiguration(patch map[string]any) error {
	merged := map[string]any{}
	if len(f.Configuration) > 0 {
		if err := json.Unmarshal(f.Configuration, &merged); err != nil {
			merged = map[string]any{}
		}
	}
	for k, v := range patch {
		merged[k] = v
	}
	blob, err := json.Marshal(merged)
	if err != nil {
		return err
	}
	f.Configuration = types.JSONText(blob)
	return nil
}
