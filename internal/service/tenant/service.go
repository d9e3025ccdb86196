package tenant

import (
	"context"
	"fmt"

	"github.com/wardline/ward-api/internal/model"
	"github.com/wardline/ward-api/internal/repository"
	"github.com/wardline/ward-api/internal/tenancy"
	"github.com/wardline/ward-api/pkg/auth"
	apperrors "github.com/wardline/ward-api/pkg/errors"
	"github.com/wardline/ward-api/pkg/logger"
	"github.com/wardline/ward-api/pkg/security"
)

// Provisioner creates and migrates a tenant namespace; the migration
// orchestrator implements it.
type Provisioner interface {
	ProvisionNamespace(ctx context.Context, schema string) error
}

// CacheInvalidator busts a tenant from the scoper's resolution cache.
type CacheInvalidator interface {
	Invalidate(tenantID string)
}

type Service struct {
	repo        repository.TenantRepository
	provisioner Provisioner
	cache       CacheInvalidator
	hasher      security.KeyHasher
	tokens      *auth.TokenService
	logger      *logger.Logger
}

func NewService(
	repo repository.TenantRepository,
	provisioner Provisioner,
	cache CacheInvalidator,
	hasher security.KeyHasher,
	tokens *auth.TokenService,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:        repo,
		provisioner: provisioner,
		cache:       cache,
		hasher:      hasher,
		tokens:      tokens,
		logger:      log,
	}
}

// Register onboards a tenant: derives its namespace from the id, persists
// the registry row, then provisions the schema. Ids outside the allow-list
// are rejected here rather than sanitized, since the namespace name ends up
// interpolated into schema-scoped statement text. The returned API key is
// shown once; only its hash is stored.
func (s *Service) Register(ctx context.Context, tenantID, name string) (*model.RegisteredTenant, error) {
	if !tenancy.ValidTenantID(tenantID) {
		return nil, apperrors.InvalidTenantID(tenantID)
	}
	if name == "" {
		return nil, apperrors.NewBadRequest("tenant name is required", nil)
	}

	apiKey, err := security.GenerateAPIKey(24)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	hash, err := s.hasher.Hash(apiKey)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	tenant := &model.Tenant{
		ID:         tenantID,
		Name:       name,
		Schema:     tenancy.SchemaFor(tenantID),
		Status:     model.TenantStatusActive,
		APIKeyHash: hash,
	}

	if err := s.repo.Create(ctx, tenant); err != nil {
		return nil, err
	}

	if err := s.provisioner.ProvisionNamespace(ctx, tenant.Schema); err != nil {
		// Registry row stays; a later migration run brings the namespace up.
		s.logger.Error(err, "namespace provisioning failed", "tenant_id", tenantID)
		return nil, fmt.Errorf("failed to provision namespace for %s: %w", tenantID, err)
	}

	s.logger.Info("tenant registered", "tenant_id", tenantID, "schema", tenant.Schema)
	return &model.RegisteredTenant{Tenant: tenant, APIKey: apiKey}, nil
}

// IssueToken exchanges a tenant's API key for a short-lived bearer token
// carrying the tenant id. Suspended tenants cannot authenticate.
func (s *Service) IssueToken(ctx context.Context, tenantID, apiKey string) (string, error) {
	tenant, err := s.repo.Get(ctx, tenantID)
	if err != nil {
		return "", err
	}
	if !tenant.Active() {
		return "", apperrors.TenantInactive(tenantID)
	}
	if err := s.hasher.Compare(tenant.APIKeyHash, apiKey); err != nil {
		return "", apperrors.NewUnauthorized("invalid api key")
	}
	token, err := s.tokens.Generate(tenantID)
	if err != nil {
		return "", apperrors.Internal(err)
	}
	return token, nil
}

func (s *Service) Resolve(ctx context.Context, tenantID string) (*model.Tenant, error) {
	return s.repo.Get(ctx, tenantID)
}

// Deactivate suspends a tenant. The namespace and its data stay in place;
// only scoping stops.
func (s *Service) Deactivate(ctx context.Context, tenantID string) error {
	if err := s.repo.UpdateStatus(ctx, tenantID, model.TenantStatusSuspended); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Invalidate(tenantID)
	}
	s.logger.Info("tenant deactivated", "tenant_id", tenantID)
	return nil
}

func (s *Service) List(ctx context.Context) ([]*model.Tenant, error) {
	return s.repo.List(ctx)
}
