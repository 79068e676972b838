package models

import "time"

// Provider belongs to a module; (module_id, name) is unique.
type Provider struct {
	ID        string    `json:"-"`
	ModuleID  string    `json:"-"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
