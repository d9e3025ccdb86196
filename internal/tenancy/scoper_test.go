package tenancy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardline/ward-api/internal/model"
	apperrors "github.com/wardline/ward-api/pkg/errors"
)

type fakeRegistry struct {
	tenants map[string]*model.Tenant
	calls   int
}

func (r *fakeRegistry) Resolve(ctx context.Context, tenantID string) (*model.Tenant, error) {
	r.calls++
	t, ok := r.tenants[tenantID]
	if !ok {
		return nil, apperrors.UnknownTenant(tenantID)
	}
	return t, nil
}

func newTestScoper(registry Registry) *Scoper {
	return NewScoper(nil, registry, ScoperConfig{
		CacheTTL:     time.Minute,
		CacheCleanup: time.Minute,
	}, nil)
}

func TestScopeToRejectsInvalidID(t *testing.T) {
	s := newTestScoper(&fakeRegistry{})

	for _, id := range []string{"", "Acme", "a;b", `x"y`} {
		_, err := s.ScopeTo(context.Background(), id)
		assert.ErrorIs(t, err, apperrors.InvalidTenantID(id), "id %q", id)
	}
}

func TestScopeToUnknownTenant(t *testing.T) {
	s := newTestScoper(&fakeRegistry{tenants: map[string]*model.Tenant{}})

	_, err := s.ScopeTo(context.Background(), "ghost")
	assert.ErrorIs(t, err, apperrors.UnknownTenant("ghost"))
}

func TestScopeToInactiveTenant(t *testing.T) {
	registry := &fakeRegistry{tenants: map[string]*model.Tenant{
		"acme": {ID: "acme", Schema: "tenant_acme", Status: model.TenantStatusSuspended},
	}}
	s := newTestScoper(registry)

	_, err := s.ScopeTo(context.Background(), "acme")
	assert.ErrorIs(t, err, apperrors.TenantInactive("acme"))
}

func TestResolutionCacheAndInvalidate(t *testing.T) {
	registry := &fakeRegistry{tenants: map[string]*model.Tenant{
		"acme": {ID: "acme", Schema: "tenant_acme", Status: model.TenantStatusSuspended},
	}}
	s := newTestScoper(registry)

	_, err := s.ScopeTo(context.Background(), "acme")
	require.ErrorIs(t, err, apperrors.TenantInactive("acme"))
	require.Equal(t, 1, registry.calls)

	// Second resolution is served from cache.
	_, err = s.ScopeTo(context.Background(), "acme")
	require.ErrorIs(t, err, apperrors.TenantInactive("acme"))
	assert.Equal(t, 1, registry.calls)

	// After invalidation the registry is consulted again; the tenant is
	// gone now, and that is what the caller sees.
	delete(registry.tenants, "acme")
	s.Invalidate("acme")

	_, err = s.ScopeTo(context.Background(), "acme")
	assert.ErrorIs(t, err, apperrors.UnknownTenant("acme"))
	assert.Equal(t, 2, registry.calls)
}

func TestResolutionErrorsAreDistinct(t *testing.T) {
	// The three failure kinds never collapse into each other.
	var kinds = []error{
		apperrors.InvalidTenantID("x"),
		apperrors.UnknownTenant("x"),
		apperrors.TenantInactive("x"),
	}
	for i, a := range kinds {
		for j, b := range kinds {
			if i == j {
				continue
			}
			assert.False(t, errors.Is(a, b))
		}
	}
}
