// organization_repository.go implements OrganizationRepository, the data
// access for the root level of the hierarchy.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/module-registry/module-registry/internal/db/models"
	"github.com/module-registry/module-registry/internal/pagination"
)

// OrganizationRepository handles database operations for organizations
type OrganizationRepository struct {
	db *sql.DB
}

// NewOrganizationRepository creates a new organization repository
func NewOrganizationRepository(db *sql.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

// GetByName retrieves an organization by its globally unique name
func (r *OrganizationRepository) GetByName(ctx context.Context, name string) (*models.Organization, error) {
	query := `
		SELECT id, name, created_at, updated_at
		FROM organizations
		WHERE name = $1
	`

	org := &models.Organization{}
	err := r.db.QueryRowContext(ctx, query, name).Scan(
		&org.ID,
		&org.Name,
		&org.CreatedAt,
		&org.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	return org, nil
}

// GetByID retrieves an organization by ID. Used by the pagination engine to
// resolve a marker to its anchor row.
func (r *OrganizationRepository) GetByID(ctx context.Context, id string) (*models.Organization, error) {
	query := `
		SELECT id, name, created_at, updated_at
		FROM organizations
		WHERE id = $1
	`

	org := &models.Organization{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&org.ID,
		&org.Name,
		&org.CreatedAt,
		&org.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	return org, nil
}

// Create inserts a new organization and fills in the generated id and
// timestamps. Returns ErrDuplicate when the name is already taken.
func (r *OrganizationRepository) Create(ctx context.Context, org *models.Organization) error {
	query := `
		INSERT INTO organizations (name)
		VALUES ($1)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query, org.Name).Scan(
		&org.ID,
		&org.CreatedAt,
		&org.UpdatedAt,
	)
	if err != nil {
		return insertError("create organization", err)
	}

	return nil
}

// Delete removes an organization. Returns false when no row matched, and
// ErrRestricted when modules still reference it.
func (r *OrganizationRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM organizations WHERE id = $1`, id)
	if err != nil {
		return false, deleteError("delete organization", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete organization: %w", err)
	}
	return affected > 0, nil
}

// HasModules reports whether any module exists under the organization. This
// is an EXISTS probe, not a count.
func (r *OrganizationRepository) HasModules(ctx context.Context, orgID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM modules WHERE organization_id = $1)`
	if err := r.db.QueryRowContext(ctx, query, orgID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check for modules: %w", err)
	}
	return exists, nil
}

// ListFrom returns up to limit organizations ordered by created_at DESC with
// id as tie-break, starting at the anchor row inclusive. A nil anchor starts
// at the newest row.
func (r *OrganizationRepository) ListFrom(ctx context.Context, from *pagination.Anchor, limit int) ([]*models.Organization, error) {
	query := `
		SELECT id, name, created_at, updated_at
		FROM organizations
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`
	args := []interface{}{limit}

	if from != nil {
		query = `
			SELECT id, name, created_at, updated_at
			FROM organizations
			WHERE (created_at, id) <= ($1, $2)
			ORDER BY created_at DESC, id DESC
			LIMIT $3
		`
		args = []interface{}{from.CreatedAt, from.ID, limit}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	var orgs []*models.Organization
	for rows.Next() {
		org := &models.Organization{}
		if err := rows.Scan(&org.ID, &org.Name, &org.CreatedAt, &org.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		orgs = append(orgs, org)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating organizations: %w", err)
	}

	return orgs, nil
}
