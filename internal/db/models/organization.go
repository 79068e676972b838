// Package models defines the persisted entity types of the registry's
// four-level hierarchy: Organization -> Module -> Provider -> Version.
package models

import "time"

// Organization is the root of the hierarchy. Names are globally unique.
type Organization struct {
	ID        string    `json:"-"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
