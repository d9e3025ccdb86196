package bed

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wardline/ward-api/internal/middleware"
	"github.com/wardline/ward-api/internal/model"
	"github.com/wardline/ward-api/internal/service/bed"
	apperrors "github.com/wardline/ward-api/pkg/errors"
	"github.com/wardline/ward-api/pkg/httputil"
)

// Handler exposes departments, beds and the assignment engine inside a
// tenant-scoped route group.
type Handler struct {
	svc *bed.Service
}

func NewHandler(svc *bed.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	departments := r.Group("/departments")
	{
		departments.POST("", h.CreateDepartment)
		departments.GET("", h.ListDepartments)
	}

	beds := r.Group("/beds")
	{
		beds.POST("", h.CreateBed)
		beds.GET("", h.ListBeds)
		beds.GET("/:id", h.GetBed)
		beds.GET("/:id/assignment", h.ActiveAssignment)
		beds.POST("/:id/assign", h.Assign)
		beds.POST("/:id/maintenance", h.SetMaintenance)
		beds.POST("/:id/maintenance/hold", h.HoldMaintenance)
	}

	r.POST("/assignments/:id/discharge", h.Discharge)
}

func (h *Handler) CreateDepartment(c *gin.Context) {
	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Internal(nil))
		return
	}

	var req model.CreateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	dept := &model.Department{Name: req.Name, Floor: req.Floor}
	if err := h.svc.CreateDepartment(c.Request.Context(), sess, dept); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, dept)
}

func (h *Handler) ListDepartments(c *gin.Context) {
	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Internal(nil))
		return
	}

	departments, err := h.svc.ListDepartments(c.Request.Context(), sess)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, departments)
}

func (h *Handler) CreateBed(c *gin.Context) {
	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Internal(nil))
		return
	}

	var req model.CreateBedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}
	departmentID, err := uuid.Parse(req.DepartmentID)
	if err != nil {
		httputil.RespondWithError(c, badRequest(err))
		return
	}

	b := &model.Bed{
		DepartmentID: departmentID,
		Number:       req.Number,
		Status:       model.BedStatusAvailable,
	}
	if err := h.svc.CreateBed(c.Request.Context(), sess, b); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, b)
}

func (h *Handler) ListBeds(c *gin.Context) {
	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Internal(nil))
		return
	}

	var departmentID uuid.UUID
	if raw := c.Query("department_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			httputil.RespondWithError(c, badRequest(err))
			return
		}
		departmentID = parsed
	}

	beds, err := h.svc.ListBeds(c.Request.Context(), sess, departmentID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, beds)
}

func (h *Handler) GetBed(c *gin.Context) {
	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Internal(nil))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, badRequest(err))
		return
	}

	b, err := h.svc.GetBed(c.Request.Context(), sess, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, b)
}

func (h *Handler) ActiveAssignment(c *gin.Context) {
	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Internal(nil))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, badRequest(err))
		return
	}

	assignment, err := h.svc.ActiveAssignment(c.Request.Context(), sess, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, assignment)
}

func (h *Handler) Assign(c *gin.Context) {
	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Internal(nil))
		return
	}

	bedID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, badRequest(err))
		return
	}

	var req model.AssignBedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		httputil.RespondWithError(c, badRequest(err))
		return
	}

	assignment, err := h.svc.Assign(c.Request.Context(), sess, bedID, patientID, req.AdmissionTime)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, assignment)
}

func (h *Handler) Discharge(c *gin.Context) {
	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Internal(nil))
		return
	}

	assignmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, badRequest(err))
		return
	}

	var req model.DischargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	assignment, err := h.svc.Discharge(c.Request.Context(), sess, assignmentID, req.DischargeTime)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, assignment)
}

func (h *Handler) SetMaintenance(c *gin.Context) {
	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Internal(nil))
		return
	}

	bedID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, badRequest(err))
		return
	}

	var req model.MaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	if err := h.svc.SetMaintenance(c.Request.Context(), sess, bedID, req.On); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"status": "ok"})
}

func (h *Handler) HoldMaintenance(c *gin.Context) {
	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Internal(nil))
		return
	}

	bedID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, badRequest(err))
		return
	}

	if err := h.svc.HoldMaintenance(c.Request.Context(), sess, bedID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"status": "ok"})
}

func badRequest(err error) error {
	return apperrors.NewBadRequest(err.Error(), nil)
}
