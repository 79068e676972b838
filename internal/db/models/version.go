package models

import "time"

// Version is a leaf of the hierarchy; (provider_id, version) is unique on the
// canonical semantic-version string. The db tags support sqlx struct scanning
// in the version repository.
type Version struct {
	ID         string    `json:"-" db:"id"`
	ProviderID string    `json:"-" db:"provider_id"`
	Version    string    `json:"version" db:"version"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}
