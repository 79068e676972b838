// module_repository.go implements ModuleRepository, the data access for the
// second level of the hierarchy. All lookups are scoped to a parent
// organization id.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/module-registry/module-registry/internal/db/models"
	"github.com/module-registry/module-registry/internal/pagination"
)

// ModuleRepository handles database operations for modules
type ModuleRepository struct {
	db *sql.DB
}

// NewModuleRepository creates a new module repository
func NewModuleRepository(db *sql.DB) *ModuleRepository {
	return &ModuleRepository{db: db}
}

// Get retrieves a module by name within an organization
func (r *ModuleRepository) Get(ctx context.Context, orgID, name string) (*models.Module, error) {
	query := `
		SELECT id, organization_id, name, created_at, updated_at
		FROM modules
		WHERE organization_id = $1 AND name = $2
	`

	m := &models.Module{}
	err := r.db.QueryRowContext(ctx, query, orgID, name).Scan(
		&m.ID,
		&m.OrganizationID,
		&m.Name,
		&m.CreatedAt,
		&m.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get module: %w", err)
	}

	return m, nil
}

// GetByID retrieves a module by ID, used for pagination anchor resolution.
func (r *ModuleRepository) GetByID(ctx context.Context, id string) (*models.Module, error) {
	query := `
		SELECT id, organization_id, name, created_at, updated_at
		FROM modules
		WHERE id = $1
	`

	m := &models.Module{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&m.ID,
		&m.OrganizationID,
		&m.Name,
		&m.CreatedAt,
		&m.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get module: %w", err)
	}

	return m, nil
}

// Create inserts a new module under its organization. Returns ErrDuplicate on
// a sibling name collision and ErrParentMissing when the organization was
// deleted concurrently.
func (r *ModuleRepository) Create(ctx context.Context, m *models.Module) error {
	query := `
		INSERT INTO modules (organization_id, name)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query, m.OrganizationID, m.Name).Scan(
		&m.ID,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return insertError("create module", err)
	}

	return nil
}

// Delete removes a module. Returns false when no row matched, and
// ErrRestricted when providers still reference it.
func (r *ModuleRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM modules WHERE id = $1`, id)
	if err != nil {
		return false, deleteError("delete module", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete module: %w", err)
	}
	return affected > 0, nil
}

// HasProviders reports whether any provider exists under the module.
func (r *ModuleRepository) HasProviders(ctx context.Context, moduleID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM providers WHERE module_id = $1)`
	if err := r.db.QueryRowContext(ctx, query, moduleID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check for providers: %w", err)
	}
	return exists, nil
}

// ListFrom returns up to limit modules of an organization ordered by
// created_at DESC, id DESC, starting at the anchor row inclusive.
func (r *ModuleRepository) ListFrom(ctx context.Context, orgID string, from *pagination.Anchor, limit int) ([]*models.Module, error) {
	query := `
		SELECT id, organization_id, name, created_at, updated_at
		FROM modules
		WHERE organization_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	args := []interface{}{orgID, limit}

	if from != nil {
		query = `
			SELECT id, organization_id, name, created_at, updated_at
			FROM modules
			WHERE organization_id = $1 AND (created_at, id) <= ($2, $3)
			ORDER BY created_at DESC, id DESC
			LIMIT $4
		`
		args = []interface{}{orgID, from.CreatedAt, from.ID, limit}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}
	defer rows.Close()

	var modules []*models.Module
	for rows.Next() {
		m := &models.Module{}
		if err := rows.Scan(&m.ID, &m.OrganizationID, &m.Name, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan module: %w", err)
		}
		modules = append(modules, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating modules: %w", err)
	}

	return modules, nil
}
