package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bedhandler "github.com/wardline/ward-api/internal/handler/bed"
	healthhandler "github.com/wardline/ward-api/internal/handler/health"
	migrationhandler "github.com/wardline/ward-api/internal/handler/migration"
	patienthandler "github.com/wardline/ward-api/internal/handler/patient"
	tenanthandler "github.com/wardline/ward-api/internal/handler/tenant"
	"github.com/wardline/ward-api/internal/middleware"
	"github.com/wardline/ward-api/internal/migrate"
	"github.com/wardline/ward-api/internal/model"
	bedService "github.com/wardline/ward-api/internal/service/bed"
	patientService "github.com/wardline/ward-api/internal/service/patient"
	tenantService "github.com/wardline/ward-api/internal/service/tenant"
	"github.com/wardline/ward-api/internal/tenancy"
	"github.com/wardline/ward-api/pkg/auth"
	apperrors "github.com/wardline/ward-api/pkg/errors"
	"github.com/wardline/ward-api/pkg/logger"
)

// emptyRegistry knows no tenants, so every scoped request stops at
// resolution, before any connection is acquired.
type emptyRegistry struct{}

func (emptyRegistry) Resolve(ctx context.Context, tenantID string) (*model.Tenant, error) {
	return nil, apperrors.UnknownTenant(tenantID)
}

func newTestRouter(t *testing.T, tokens *auth.TokenService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.NewLogger(nil)
	orchestrator, err := migrate.NewOrchestrator(nil, migrate.Config{}, log, nil)
	require.NoError(t, err)

	scoper := tenancy.NewScoper(nil, emptyRegistry{}, tenancy.DefaultScoperConfig(), nil)

	return New(Deps{
		Health:    healthhandler.NewHandler(nil),
		Tenants:   tenanthandler.NewHandler(tenantService.NewService(nil, nil, nil, nil, tokens, log)),
		Migration: migrationhandler.NewHandler(orchestrator),
		Beds:      bedhandler.NewHandler(bedService.NewService(nil, nil, nil, nil, log)),
		Patients:  patienthandler.NewHandler(patientService.NewService(nil, nil)),
		Scoper:    scoper,
		Tokens:    tokens,
		Logger:    log,
	})
}

func do(r *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(t, nil)

	w := do(r, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok"`)
}

func TestUnknownRoute(t *testing.T) {
	r := newTestRouter(t, nil)

	w := do(r, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRequestIDHeader(t *testing.T) {
	r := newTestRouter(t, nil)

	w := do(r, http.MethodGet, "/healthz", "", nil)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	// A caller-supplied id is echoed back.
	w = do(r, http.MethodGet, "/healthz", "", map[string]string{"X-Request-ID": "req-42"})
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
}

func TestRegisterTenantMalformedBody(t *testing.T) {
	r := newTestRouter(t, nil)

	w := do(r, http.MethodPost, "/admin/v1/tenants", "{", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
}

func TestRegisterTenantMissingFieldsReportsFieldNames(t *testing.T) {
	r := newTestRouter(t, nil)

	w := do(r, http.MethodPost, "/admin/v1/tenants", `{"name":"St Marys"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "id is required")
}

func TestScopedRoutesRequireBearerToken(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", time.Hour)
	r := newTestRouter(t, tokens)

	w := do(r, http.MethodGet, "/api/v1/beds", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodGet, "/api/v1/beds", "", map[string]string{
		"Authorization": "Bearer garbage",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestScopedRoutesHeaderFallbackWithoutTokenService(t *testing.T) {
	r := newTestRouter(t, nil)

	// No identity at all.
	w := do(r, http.MethodGet, "/api/v1/beds", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Identity outside the allow-list never reaches the registry.
	w = do(r, http.MethodGet, "/api/v1/beds", "", map[string]string{
		middleware.HeaderXTenantID: "Bad!Tenant",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Well-formed but unknown tenant.
	w = do(r, http.MethodGet, "/api/v1/beds", "", map[string]string{
		middleware.HeaderXTenantID: "ghost",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestValidTokenForUnknownTenantIsRejectedAtScope(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", time.Hour)
	r := newTestRouter(t, tokens)

	token, err := tokens.Generate("ghost")
	require.NoError(t, err)

	w := do(r, http.MethodGet, "/api/v1/beds", "", map[string]string{
		"Authorization": "Bearer " + token,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
