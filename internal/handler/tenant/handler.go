package tenant

import (
	"github.com/gin-gonic/gin"

	"github.com/wardline/ward-api/internal/model"
	"github.com/wardline/ward-api/internal/service/tenant"
	"github.com/wardline/ward-api/pkg/httputil"
)

// Handler exposes the tenant registry: onboarding, listing, suspension
// and API-key-for-token exchange. These routes are not tenant-scoped.
type Handler struct {
	svc *tenant.Service
}

func NewHandler(svc *tenant.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	tenants := r.Group("/tenants")
	{
		tenants.POST("", h.Register)
		tenants.GET("", h.List)
		tenants.GET("/:id", h.Get)
		tenants.POST("/:id/deactivate", h.Deactivate)
	}
	r.POST("/auth/token", h.IssueToken)
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	registered, err := h.svc.Register(c.Request.Context(), req.ID, req.Name)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, registered)
}

func (h *Handler) List(c *gin.Context) {
	tenants, err := h.svc.List(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, tenants)
}

func (h *Handler) Get(c *gin.Context) {
	t, err := h.svc.Resolve(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, t)
}

func (h *Handler) Deactivate(c *gin.Context) {
	if err := h.svc.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"status": "deactivated"})
}

func (h *Handler) IssueToken(c *gin.Context) {
	var req model.IssueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	token, err := h.svc.IssueToken(c.Request.Context(), req.TenantID, req.APIKey)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"token": token})
}
