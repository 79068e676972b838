package registry

import (
	"context"

	"github.com/module-registry/module-registry/internal/db/models"
	"github.com/module-registry/module-registry/internal/db/repositories"
	"github.com/module-registry/module-registry/internal/pagination"
)

// The source types adapt the repositories to pagination.Source, binding the
// parent scope at construction so the pagination engine stays agnostic of the
// hierarchy.

type organizationSource struct {
	repo *repositories.OrganizationRepository
}

func (s organizationSource) Anchor(ctx context.Context, id string) (*pagination.Anchor, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil || o == nil {
		return nil, err
	}
	return &pagination.Anchor{ID: o.ID, CreatedAt: o.CreatedAt}, nil
}

func (s organizationSource) ListFrom(ctx context.Context, from *pagination.Anchor, limit int) ([]*models.Organization, error) {
	return s.repo.ListFrom(ctx, from, limit)
}

type moduleSource struct {
	repo           *repositories.ModuleRepository
	organizationID string
}

func (s moduleSource) Anchor(ctx context.Context, id string) (*pagination.Anchor, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil || m == nil {
		return nil, err
	}
	return &pagination.Anchor{ID: m.ID, CreatedAt: m.CreatedAt}, nil
}

func (s moduleSource) ListFrom(ctx context.Context, from *pagination.Anchor, limit int) ([]*models.Module, error) {
	return s.repo.ListFrom(ctx, s.organizationID, from, limit)
}

type providerSource struct {
	repo     *repositories.ProviderRepository
	moduleID string
}

func (s providerSource) Anchor(ctx context.Context, id string) (*pagination.Anchor, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil || p == nil {
		return nil, err
	}
	return &pagination.Anchor{ID: p.ID, CreatedAt: p.CreatedAt}, nil
}

func (s providerSource) ListFrom(ctx context.Context, from *pagination.Anchor, limit int) ([]*models.Provider, error) {
	return s.repo.ListFrom(ctx, s.moduleID, from, limit)
}

type versionSource struct {
	repo       *repositories.VersionRepository
	providerID string
}

func (s versionSource) Anchor(ctx context.Context, id string) (*pagination.Anchor, error) {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil || v == nil {
		return nil, err
	}
	return &pagination.Anchor{ID: v.ID, CreatedAt: v.CreatedAt}, nil
}

func (s versionSource) ListFrom(ctx context.Context, from *pagination.Anchor, limit int) ([]*models.Version, error) {
	return s.repo.ListFrom(ctx, s.providerID, from, limit)
}
