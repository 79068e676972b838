// Package registry implements the lifecycle of the four-level hierarchy:
// organizations own modules, modules own providers, providers own versions.
// The service resolves request paths top-down, enforces name and version
// validity, and translates store constraint violations into the typed errors
// of this package so that HTTP handlers never inspect database errors.
package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/module-registry/module-registry/internal/db/models"
	"github.com/module-registry/module-registry/internal/db/repositories"
	"github.com/module-registry/module-registry/internal/pagination"
	"github.com/module-registry/module-registry/internal/validation"
)

// Service coordinates the per-table repositories. All methods are safe for
// concurrent use; consistency under racing writers comes from the store's
// unique and referential constraints, not from locking here.
type Service struct {
	orgs      *repositories.OrganizationRepository
	modules   *repositories.ModuleRepository
	providers *repositories.ProviderRepository
	versions  *repositories.VersionRepository
}

func NewService(
	orgs *repositories.OrganizationRepository,
	modules *repositories.ModuleRepository,
	providers *repositories.ProviderRepository,
	versions *repositories.VersionRepository,
) *Service {
	return &Service{
		orgs:      orgs,
		modules:   modules,
		providers: providers,
		versions:  versions,
	}
}

// Path holds the entities resolved along a request path. Fields deeper than
// the requested level are nil.
type Path struct {
	Organization *models.Organization
	Module       *models.Module
	Provider     *models.Provider
	Version      *models.Version
}

func checkName(name string) error {
	if err := validation.ValidateName(name); err != nil {
		return &InvalidNameError{Name: name, Reason: err}
	}
	return nil
}

// ResolveOrganization looks up a single organization by name.
func (s *Service) ResolveOrganization(ctx context.Context, org string) (*models.Organization, error) {
	if err := checkName(org); err != nil {
		return nil, err
	}
	o, err := s.orgs.GetByName(ctx, org)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve organization: %w", err)
	}
	if o == nil {
		return nil, &NotFoundError{Kind: KindOrganization, Name: org}
	}
	return o, nil
}

// ResolveModule walks org -> module, failing on the first missing segment.
func (s *Service) ResolveModule(ctx context.Context, org, module string) (*Path, error) {
	o, err := s.ResolveOrganization(ctx, org)
	if err != nil {
		return nil, err
	}
	if err := checkName(module); err != nil {
		return nil, err
	}
	m, err := s.modules.Get(ctx, o.ID, module)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve module: %w", err)
	}
	if m == nil {
		return nil, &NotFoundError{Kind: KindModule, Name: module}
	}
	return &Path{Organization: o, Module: m}, nil
}

// ResolveProvider walks org -> module -> provider.
func (s *Service) ResolveProvider(ctx context.Context, org, module, provider string) (*Path, error) {
	p, err := s.ResolveModule(ctx, org, module)
	if err != nil {
		return nil, err
	}
	if err := checkName(provider); err != nil {
		return nil, err
	}
	pr, err := s.providers.Get(ctx, p.Module.ID, provider)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve provider: %w", err)
	}
	if pr == nil {
		return nil, &NotFoundError{Kind: KindProvider, Name: provider}
	}
	p.Provider = pr
	return p, nil
}

// ResolveVersion walks the full path. The version segment is canonicalized
// before lookup, so "1.0" and "1.0.0" name the same version.
func (s *Service) ResolveVersion(ctx context.Context, org, module, provider, version string) (*Path, error) {
	p, err := s.ResolveProvider(ctx, org, module, provider)
	if err != nil {
		return nil, err
	}
	canonical, err := validation.CanonicalVersion(version)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidVersion, version)
	}
	v, err := s.versions.Get(ctx, p.Provider.ID, canonical)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve version: %w", err)
	}
	if v == nil {
		return nil, &NotFoundError{Kind: KindVersion, Name: canonical}
	}
	p.Version = v
	return p, nil
}

// CreateOrganization creates a top-level organization. The name check and the
// advisory existence probe run first; a concurrent create slipping between the
// probe and the insert is still reported as AlreadyExistsError via the unique
// constraint.
func (s *Service) CreateOrganization(ctx context.Context, name string) (*models.Organization, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	existing, err := s.orgs.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to check organization: %w", err)
	}
	if existing != nil {
		return nil, &AlreadyExistsError{Kind: KindOrganization, Name: name}
	}
	org := &models.Organization{Name: name}
	if err := s.orgs.Create(ctx, org); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, &AlreadyExistsError{Kind: KindOrganization, Name: name}
		}
		return nil, err
	}
	return org, nil
}

// CreateModule creates a module under an existing organization.
func (s *Service) CreateModule(ctx context.Context, org, name string) (*models.Module, error) {
	o, err := s.ResolveOrganization(ctx, org)
	if err != nil {
		return nil, err
	}
	if err := checkName(name); err != nil {
		return nil, err
	}
	existing, err := s.modules.Get(ctx, o.ID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to check module: %w", err)
	}
	if existing != nil {
		return nil, &AlreadyExistsError{Kind: KindModule, Name: name}
	}
	m := &models.Module{OrganizationID: o.ID, Name: name}
	if err := s.modules.Create(ctx, m); err != nil {
		switch {
		case errors.Is(err, repositories.ErrDuplicate):
			return nil, &AlreadyExistsError{Kind: KindModule, Name: name}
		case errors.Is(err, repositories.ErrParentMissing):
			return nil, &NotFoundError{Kind: KindOrganization, Name: org}
		}
		return nil, err
	}
	return m, nil
}

// CreateProvider creates a provider under an existing module.
func (s *Service) CreateProvider(ctx context.Context, org, module, name string) (*models.Provider, error) {
	p, err := s.ResolveModule(ctx, org, module)
	if err != nil {
		return nil, err
	}
	if err := checkName(name); err != nil {
		return nil, err
	}
	existing, err := s.providers.Get(ctx, p.Module.ID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to check provider: %w", err)
	}
	if existing != nil {
		return nil, &AlreadyExistsError{Kind: KindProvider, Name: name}
	}
	pr := &models.Provider{ModuleID: p.Module.ID, Name: name}
	if err := s.providers.Create(ctx, pr); err != nil {
		switch {
		case errors.Is(err, repositories.ErrDuplicate):
			return nil, &AlreadyExistsError{Kind: KindProvider, Name: name}
		case errors.Is(err, repositories.ErrParentMissing):
			return nil, &NotFoundError{Kind: KindModule, Name: module}
		}
		return nil, err
	}
	return pr, nil
}

// CreateVersion creates a version under an existing provider. The stored
// version string is the canonical form of the request segment.
func (s *Service) CreateVersion(ctx context.Context, org, module, provider, version string) (*models.Version, error) {
	p, err := s.ResolveProvider(ctx, org, module, provider)
	if err != nil {
		return nil, err
	}
	canonical, err := validation.CanonicalVersion(version)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidVersion, version)
	}
	existing, err := s.versions.Get(ctx, p.Provider.ID, canonical)
	if err != nil {
		return nil, fmt.Errorf("failed to check version: %w", err)
	}
	if existing != nil {
		return nil, &AlreadyExistsError{Kind: KindVersion, Name: canonical}
	}
	v := &models.Version{ProviderID: p.Provider.ID, Version: canonical}
	if err := s.versions.Create(ctx, v); err != nil {
		switch {
		case errors.Is(err, repositories.ErrDuplicate):
			return nil, &AlreadyExistsError{Kind: KindVersion, Name: canonical}
		case errors.Is(err, repositories.ErrParentMissing):
			return nil, &NotFoundError{Kind: KindProvider, Name: provider}
		}
		return nil, err
	}
	return v, nil
}

// DeleteOrganization removes an empty organization. The child probe is
// advisory; the ON DELETE RESTRICT constraint is the authoritative guard
// against a module created between the probe and the delete.
func (s *Service) DeleteOrganization(ctx context.Context, org string) error {
	o, err := s.ResolveOrganization(ctx, org)
	if err != nil {
		return err
	}
	has, err := s.orgs.HasModules(ctx, o.ID)
	if err != nil {
		return fmt.Errorf("failed to check organization modules: %w", err)
	}
	if has {
		return &HasChildrenError{Kind: KindOrganization}
	}
	deleted, err := s.orgs.Delete(ctx, o.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrRestricted) {
			return &HasChildrenError{Kind: KindOrganization}
		}
		return err
	}
	if !deleted {
		return &NotFoundError{Kind: KindOrganization, Name: org}
	}
	return nil
}

// DeleteModule removes a module that has no providers.
func (s *Service) DeleteModule(ctx context.Context, org, module string) error {
	p, err := s.ResolveModule(ctx, org, module)
	if err != nil {
		return err
	}
	has, err := s.modules.HasProviders(ctx, p.Module.ID)
	if err != nil {
		return fmt.Errorf("failed to check module providers: %w", err)
	}
	if has {
		return &HasChildrenError{Kind: KindModule}
	}
	deleted, err := s.modules.Delete(ctx, p.Module.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrRestricted) {
			return &HasChildrenError{Kind: KindModule}
		}
		return err
	}
	if !deleted {
		return &NotFoundError{Kind: KindModule, Name: module}
	}
	return nil
}

// DeleteProvider removes a provider that has no versions.
func (s *Service) DeleteProvider(ctx context.Context, org, module, provider string) error {
	p, err := s.ResolveProvider(ctx, org, module, provider)
	if err != nil {
		return err
	}
	has, err := s.providers.HasVersions(ctx, p.Provider.ID)
	if err != nil {
		return fmt.Errorf("failed to check provider versions: %w", err)
	}
	if has {
		return &HasChildrenError{Kind: KindProvider}
	}
	deleted, err := s.providers.Delete(ctx, p.Provider.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrRestricted) {
			return &HasChildrenError{Kind: KindProvider}
		}
		return err
	}
	if !deleted {
		return &NotFoundError{Kind: KindProvider, Name: provider}
	}
	return nil
}

// DeleteVersion removes a version and returns the deleted record so the
// caller can remove the stored artifact afterwards. Versions are leaves, so
// there is no child guard.
func (s *Service) DeleteVersion(ctx context.Context, org, module, provider, version string) (*models.Version, error) {
	p, err := s.ResolveVersion(ctx, org, module, provider, version)
	if err != nil {
		return nil, err
	}
	deleted, err := s.versions.Delete(ctx, p.Version.ID)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return nil, &NotFoundError{Kind: KindVersion, Name: p.Version.Version}
	}
	return p.Version, nil
}

// ListOrganizations returns one page of organizations, newest first.
func (s *Service) ListOrganizations(ctx context.Context, limit int, marker string) (*pagination.Page[*models.Organization], error) {
	return pagination.List(ctx, organizationSource{repo: s.orgs}, limit, marker,
		func(o *models.Organization) string { return o.ID })
}

// ListModules returns one page of an organization's modules.
func (s *Service) ListModules(ctx context.Context, org string, limit int, marker string) (*pagination.Page[*models.Module], error) {
	o, err := s.ResolveOrganization(ctx, org)
	if err != nil {
		return nil, err
	}
	return pagination.List(ctx, moduleSource{repo: s.modules, organizationID: o.ID}, limit, marker,
		func(m *models.Module) string { return m.ID })
}

// ListProviders returns one page of a module's providers.
func (s *Service) ListProviders(ctx context.Context, org, module string, limit int, marker string) (*pagination.Page[*models.Provider], error) {
	p, err := s.ResolveModule(ctx, org, module)
	if err != nil {
		return nil, err
	}
	return pagination.List(ctx, providerSource{repo: s.providers, moduleID: p.Module.ID}, limit, marker,
		func(pr *models.Provider) string { return pr.ID })
}

// ListVersions returns one page of a provider's versions.
func (s *Service) ListVersions(ctx context.Context, org, module, provider string, limit int, marker string) (*pagination.Page[*models.Version], error) {
	p, err := s.ResolveProvider(ctx, org, module, provider)
	if err != nil {
		return nil, err
	}
	return pagination.List(ctx, versionSource{repo: s.versions, providerID: p.Provider.ID}, limit, marker,
		func(v *models.Version) string { return v.ID })
}

// AllVersions returns every version of a provider, newest first, for the
// discovery endpoint. No pagination: providers carry at most a few hundred
// versions in practice.
func (s *Service) AllVersions(ctx context.Context, org, module, provider string) (*Path, []*models.Version, error) {
	p, err := s.ResolveProvider(ctx, org, module, provider)
	if err != nil {
		return nil, nil, err
	}
	versions, err := s.versions.ListAll(ctx, p.Provider.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list versions: %w", err)
	}
	return p, versions, nil
}
