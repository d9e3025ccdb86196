package tenancy

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/patrickmn/go-cache"

	"github.com/wardline/ward-api/internal/model"
	apperrors "github.com/wardline/ward-api/pkg/errors"
	"github.com/wardline/ward-api/pkg/metrics"
)

// Registry is the tenant catalog the Scoper resolves against.
type Registry interface {
	Resolve(ctx context.Context, tenantID string) (*model.Tenant, error)
}

type ScoperConfig struct {
	CacheTTL     time.Duration
	CacheCleanup time.Duration
}

func DefaultScoperConfig() ScoperConfig {
	return ScoperConfig{
		CacheTTL:     5 * time.Minute,
		CacheCleanup: 15 * time.Minute,
	}
}

// Scoper turns an untrusted inbound tenant identifier into a ScopedSession.
// It is the only component that ever interpolates a schema name into
// statement text, and only after allow-list validation plus registry
// resolution. There is no fallback namespace: every failure is surfaced as
// its own error kind.
type Scoper struct {
	db       *sqlx.DB
	registry Registry
	cache    *cache.Cache
	metrics  *metrics.Metrics
}

func NewScoper(db *sqlx.DB, registry Registry, cfg ScoperConfig, m *metrics.Metrics) *Scoper {
	if cfg.CacheTTL <= 0 {
		cfg = DefaultScoperConfig()
	}
	return &Scoper{
		db:       db,
		registry: registry,
		cache:    cache.New(cfg.CacheTTL, cfg.CacheCleanup),
		metrics:  m,
	}
}

// ScopeTo resolves tenantID and binds a pooled connection to its namespace
// for one unit of work. Callers must Close the returned session on every
// exit path.
func (s *Scoper) ScopeTo(ctx context.Context, tenantID string) (*ScopedSession, error) {
	tenant, err := s.resolve(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	conn, err := s.db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}

	// Schema names pass the allow-list before reaching this point; quoting
	// is belt and braces.
	setPath := fmt.Sprintf("SET search_path TO %s, %s",
		pq.QuoteIdentifier(tenant.Schema), pq.QuoteIdentifier(SharedSchema))
	if _, err := conn.ExecContext(ctx, setPath); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to scope session to %s: %w", tenant.Schema, err)
	}

	if s.metrics != nil {
		s.metrics.ScopedSessionsAcquired.Inc()
	}

	return &ScopedSession{
		conn:    conn,
		tenant:  tenant,
		metrics: s.metrics,
	}, nil
}

func (s *Scoper) resolve(ctx context.Context, tenantID string) (*model.Tenant, error) {
	if !ValidTenantID(tenantID) {
		s.countResolutionError("invalid_id")
		return nil, apperrors.InvalidTenantID(tenantID)
	}

	var tenant *model.Tenant
	if cached, found := s.cache.Get(tenantID); found {
		tenant = cached.(*model.Tenant)
	} else {
		resolved, err := s.registry.Resolve(ctx, tenantID)
		if err != nil {
			s.countResolutionError("unknown")
			return nil, err
		}
		s.cache.Set(tenantID, resolved, cache.DefaultExpiration)
		tenant = resolved
	}

	if !tenant.Active() {
		s.countResolutionError("inactive")
		return nil, apperrors.TenantInactive(tenantID)
	}
	return tenant, nil
}

// Invalidate drops a tenant from the resolution cache. The registry calls
// this on deactivation so suspended tenants stop scoping immediately.
func (s *Scoper) Invalidate(tenantID string) {
	s.cache.Delete(tenantID)
}

func (s *Scoper) countResolutionError(kind string) {
	if s.metrics != nil {
		s.metrics.TenantResolutionErrors.WithLabelValues(kind).Inc()
	}
}
