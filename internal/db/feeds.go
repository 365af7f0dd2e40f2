package db

import (
	"crypto/rand"
	"log"
	"math/big"

	"github.com/jmoiron/sqlx/types"
	"foldercast/internal/models"
)

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// tokenLength is the number of alphanumeric characters in a feed token.
const tokenLength = 32

// NewToken mints a random alphanumeric feed token. Tokens are generated once
// at feed creation and never change.
func NewToken() (string, error) {
	buf := make([]byte, tokenLength)
	max := big.NewInt(int64(len(tokenAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = tokenAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// CreateFeed inserts a feed with a freshly minted token.
func CreateFeed(ownerID, folderID int64, configuration types.JSONText) (*models.Feed, error) {
	token, err := NewToken()
	if err != nil {
		return nil, err
	}
	if len(configuration) == 0 {
		configuration = types.JSONText("{}")
	}
	query := `
		INSERT INTO feeds (owner_id, folder_id, token, configuration)
		VALUES ($1, $2, $3, $4)
		RETURNING id, owner_id, folder_id, token, configuration, metadata_override, created_at, updated_at
	`
	feed := &models.Feed{}
	if err := DB.Get(feed, query, ownerID, folderID, token, configuration); err != nil {
		log.Printf("Error creating feed for user %d: %v", ownerID, err)
		return nil, err
	}
	return feed, nil
}

// GetFeedByID returns the feed with the given id. Absence surfaces as
// sql.ErrNoRows.
func GetFeedByID(id int64) (models.Feed, error) {
	feed := models.Feed{}
	err := DB.Get(&feed, "SELECT * FROM feeds WHERE id = $1", id)
	return feed, err
}

// GetFeedByToken returns the feed identified by a public token.
func GetFeedByToken(token string) (models.Feed, error) {
	feed := models.Feed{}
	err := DB.Get(&feed, "SELECT * FROM feeds WHERE token = $1", token)
	return feed, err
}

// GetFeedByFolderID returns the first feed bound to a folder. Multiple feeds
// may share a folder; this lookup is a convenience, not a uniqueness check.
func GetFeedByFolderID(folderID int64) (models.Feed, error) {
	feed := models.Feed{}
	err := DB.Get(&feed, "SELECT * FROM feeds WHERE folder_id = $1 ORDER BY id LIMIT 1", folderID)
	return feed, err
}

// GetFeedsByOwnerID returns all feeds owned by a user.
func GetFeedsByOwnerID(ownerID int64) ([]models.Feed, error) {
	query := `
		SELECT id, owner_id, folder_id, token, configuration, metadata_override, created_at, updated_at
		FROM feeds
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`
	var feeds []models.Feed
	if err := DB.Select(&feeds, query, ownerID); err != nil {
		log.Printf("Error getting feeds for user %d: %v", ownerID, err)
		return nil, err
	}
	return feeds, nil
}

// GetAllFeeds returns every feed. Used by the retention scheduler.
func GetAllFeeds() ([]models.Feed, error) {
	var feeds []models.Feed
	err := DB.Select(&feeds, "SELECT * FROM feeds ORDER BY id")
	return feeds, err
}

// UpdateFeedConfiguration persists a merged configuration blob.
func UpdateFeedConfiguration(id int64, configuration types.JSONText) error {
	_, err := DB.Exec(
		"UPDATE feeds SET configuration = $1, updated_at = NOW() WHERE id = $2",
		configuration, id)
	if err != nil {
		log.Printf("Error updating configuration for feed %d: %v", id, err)
	}
	return err
}

// DeleteFeed removes a feed record.
func DeleteFeed(id int64) error {
	_, err := DB.Exec("DELETE FROM feeds WHERE id = $1", id)
	if err != nil {
		log.Printf("Error deleting feed %d: %v", id, err)
	}
	return err
}
