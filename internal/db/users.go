package db

import (
	"log"

	"foldercast/internal/models"
)

// UpsertUser inserts a new user or refreshes an existing one by username.
func UpsertUser(username string) (*models.User, error) {
	query := `
		INSERT INTO users (username)
		VALUES ($1)
		ON CONFLICT (username) DO UPDATE SET
			updated_at = NOW()
		RETURNING id, username, created_at, updated_at
	`
	user := &models.User{}
	err := DB.Get(user, query, username)
	if err != nil {
		log.Printf("Error upserting user: %v", err)
		return nil, err
	}
	return user, nil
}
