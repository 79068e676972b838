// version_repository.go implements VersionRepository on sqlx. Versions are the
// leaf entity; struct scanning via db tags keeps the query surface compact.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/module-registry/module-registry/internal/db/models"
	"github.com/module-registry/module-registry/internal/pagination"
)

// VersionRepository handles database operations for versions
type VersionRepository struct {
	db *sqlx.DB
}

// NewVersionRepository creates a new version repository
func NewVersionRepository(db *sqlx.DB) *VersionRepository {
	return &VersionRepository{db: db}
}

// Get retrieves a version by its canonical version string within a provider
func (r *VersionRepository) Get(ctx context.Context, providerID, version string) (*models.Version, error) {
	v := &models.Version{}
	err := r.db.GetContext(ctx, v, `
		SELECT id, provider_id, version, created_at, updated_at
		FROM versions
		WHERE provider_id = $1 AND version = $2
	`, providerID, version)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get version: %w", err)
	}

	return v, nil
}

// GetByID retrieves a version by ID, used for pagination anchor resolution
// and artifact addressing.
func (r *VersionRepository) GetByID(ctx context.Context, id string) (*models.Version, error) {
	v := &models.Version{}
	err := r.db.GetContext(ctx, v, `
		SELECT id, provider_id, version, created_at, updated_at
		FROM versions
		WHERE id = $1
	`, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get version: %w", err)
	}

	return v, nil
}

// Create inserts a new version under its provider. The version string must
// already be in canonical semver form.
func (r *VersionRepository) Create(ctx context.Context, v *models.Version) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO versions (provider_id, version)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`, v.ProviderID, v.Version).Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)

	if err != nil {
		return insertError("create version", err)
	}

	return nil
}

// Delete removes a version. Versions have no children so this never reports
// ErrRestricted. Returns false when no row matched.
func (r *VersionRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM versions WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete version: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete version: %w", err)
	}
	return affected > 0, nil
}

// ListFrom returns up to limit versions of a provider ordered by created_at
// DESC, id DESC, starting at the anchor row inclusive.
func (r *VersionRepository) ListFrom(ctx context.Context, providerID string, from *pagination.Anchor, limit int) ([]*models.Version, error) {
	query := `
		SELECT id, provider_id, version, created_at, updated_at
		FROM versions
		WHERE provider_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	args := []interface{}{providerID, limit}

	if from != nil {
		query = `
			SELECT id, provider_id, version, created_at, updated_at
			FROM versions
			WHERE provider_id = $1 AND (created_at, id) <= ($2, $3)
			ORDER BY created_at DESC, id DESC
			LIMIT $4
		`
		args = []interface{}{providerID, from.CreatedAt, from.ID, limit}
	}

	var versions []*models.Version
	if err := r.db.SelectContext(ctx, &versions, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}

	return versions, nil
}

// ListAll returns every version of a provider, newest first. Used by the
// version discovery document, which is unpaginated by protocol.
func (r *VersionRepository) ListAll(ctx context.Context, providerID string) ([]*models.Version, error) {
	var versions []*models.Version
	err := r.db.SelectContext(ctx, &versions, `
		SELECT id, provider_id, version, created_at, updated_at
		FROM versions
		WHERE provider_id = $1
		ORDER BY created_at DESC, id DESC
	`, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}

	return versions, nil
}
