package feed

import (
	"context"
	"encoding/json"
	"io"

	"foldercast/internal/models"
	"foldercast/internal/store"
)

// channelMeta is the channel-level metadata resolved by the waterfall.
type channelMeta struct {
	Title       string
	Description string
	Author      string
}

// metaLayer overrides fields of a channelMeta. Layers apply in a fixed
// order; a later layer wins for every field it sets.
type metaLayer func(*channelMeta)

// resolveChannelMeta applies the override layers in order.
func resolveChannelMeta(layers ...metaLayer) channelMeta {
	var m channelMeta
	for _, layer := range layers {
		layer(&m)
	}
	return m
}

// defaultsLayer seeds the channel metadata from the folder name.
func defaultsLayer(folderName string) metaLayer {
	return func(m *channelMeta) {
		m.Title = folderName
		m.Description = "Podcast from " + folderName
		m.Author = ""
	}
}

// podcastJSONLayer overrides from a podcast.json directly inside the folder.
// A missing file, unreadable content or invalid JSON keeps the prior values.
func podcastJSONLayer(ctx context.Context, st store.Store, ownerID, folderID int64) metaLayer {
	noop := func(*channelMeta) {}

	children, err := st.List(ctx, ownerID, folderID)
	if err != nil {
		return noop
	}
	var cfgFile *store.NodeInfo
	for i := range children {
		if !children[i].IsFolder() && children[i].Name == ConfigFileName {
			cfgFile = &children[i]
			break
		}
	}
	if cfgFile == nil {
		return noop
	}

	rc, err := st.Open(ctx, ownerID, cfgFile.ID)
	if err != nil {
		return noop
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return noop
	}

	var doc struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Author      string `json:"author"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return noop
	}
	return func(m *channelMeta) {
		if doc.Title != "" {
			m.Title = doc.Title
		}
		if doc.Description != "" {
			m.Description = doc.Description
		}
		if doc.Author != "" {
			m.Author = doc.Author
		}
	}
}

// configLayer overrides from the per-feed database configuration. Highest
// priority; only non-empty fields apply.
func configLayer(cfg models.FeedConfig) metaLayer {
	return func(m *channelMeta) {
		if cfg.Title != "" {
			m.Title = cfg.Title
		}
		if cfg.Description != "" {
			m.Description = cfg.Description
		}
		if cfg.Author != "" {
			m.Author = cfg.Author
		}
	}
}
