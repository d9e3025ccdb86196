package patient

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wardline/ward-api/internal/middleware"
	"github.com/wardline/ward-api/internal/model"
	"github.com/wardline/ward-api/internal/service/patient"
	apperrors "github.com/wardline/ward-api/pkg/errors"
	"github.com/wardline/ward-api/pkg/httputil"
)

type Handler struct {
	svc *patient.Service
}

func NewHandler(svc *patient.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	patients := r.Group("/patients")
	{
		patients.POST("", h.Create)
		patients.GET("", h.List)
		patients.GET("/:id", h.Get)
	}
}

func (h *Handler) Create(c *gin.Context) {
	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Internal(nil))
		return
	}

	var req model.CreatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	p := &model.Patient{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		DateOfBirth: req.DateOfBirth,
		Email:       req.Email,
	}
	created, err := h.svc.CreatePatient(c.Request.Context(), sess, p)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, created)
}

func (h *Handler) List(c *gin.Context) {
	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Internal(nil))
		return
	}

	patients, err := h.svc.ListPatients(c.Request.Context(), sess)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, patients)
}

func (h *Handler) Get(c *gin.Context) {
	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Internal(nil))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest(err.Error(), nil))
		return
	}

	p, err := h.svc.GetPatient(c.Request.Context(), sess, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, p)
}
