// provider_repository.go implements ProviderRepository, the data access for
// the third level of the hierarchy. All lookups are scoped to a parent module
// id.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/module-registry/module-registry/internal/db/models"
	"github.com/module-registry/module-registry/internal/pagination"
)

// ProviderRepository handles database operations for providers
type ProviderRepository struct {
	db *sql.DB
}

// NewProviderRepository creates a new provider repository
func NewProviderRepository(db *sql.DB) *ProviderRepository {
	return &ProviderRepository{db: db}
}

// Get retrieves a provider by name within a module
func (r *ProviderRepository) Get(ctx context.Context, moduleID, name string) (*models.Provider, error) {
	query := `
		SELECT id, module_id, name, created_at, updated_at
		FROM providers
		WHERE module_id = $1 AND name = $2
	`

	p := &models.Provider{}
	err := r.db.QueryRowContext(ctx, query, moduleID, name).Scan(
		&p.ID,
		&p.ModuleID,
		&p.Name,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get provider: %w", err)
	}

	return p, nil
}

// GetByID retrieves a provider by ID, used for pagination anchor resolution.
func (r *ProviderRepository) GetByID(ctx context.Context, id string) (*models.Provider, error) {
	query := `
		SELECT id, module_id, name, created_at, updated_at
		FROM providers
		WHERE id = $1
	`

	p := &models.Provider{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.ModuleID,
		&p.Name,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get provider: %w", err)
	}

	return p, nil
}

// Create inserts a new provider under its module.
func (r *ProviderRepository) Create(ctx context.Context, p *models.Provider) error {
	query := `
		INSERT INTO providers (module_id, name)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query, p.ModuleID, p.Name).Scan(
		&p.ID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return insertError("create provider", err)
	}

	return nil
}

// Delete removes a provider. Returns false when no row matched, and
// ErrRestricted when versions still reference it.
func (r *ProviderRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM providers WHERE id = $1`, id)
	if err != nil {
		return false, deleteError("delete provider", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete provider: %w", err)
	}
	return affected > 0, nil
}

// HasVersions reports whether any version exists under the provider.
func (r *ProviderRepository) HasVersions(ctx context.Context, providerID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM versions WHERE provider_id = $1)`
	if err := r.db.QueryRowContext(ctx, query, providerID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check for versions: %w", err)
	}
	return exists, nil
}

// ListFrom returns up to limit providers of a module ordered by created_at
// DESC, id DESC, starting at the anchor row inclusive.
func (r *ProviderRepository) ListFrom(ctx context.Context, moduleID string, from *pagination.Anchor, limit int) ([]*models.Provider, error) {
	query := `
		SELECT id, module_id, name, created_at, updated_at
		FROM providers
		WHERE module_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	args := []interface{}{moduleID, limit}

	if from != nil {
		query = `
			SELECT id, module_id, name, created_at, updated_at
			FROM providers
			WHERE module_id = $1 AND (created_at, id) <= ($2, $3)
			ORDER BY created_at DESC, id DESC
			LIMIT $4
		`
		args = []interface{}{moduleID, from.CreatedAt, from.ID, limit}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}
	defer rows.Close()

	var providers []*models.Provider
	for rows.Next() {
		p := &models.Provider{}
		if err := rows.Scan(&p.ID, &p.ModuleID, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan provider: %w", err)
		}
		providers = append(providers, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating providers: %w", err)
	}

	return providers, nil
}
