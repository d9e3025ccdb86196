package migration

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wardline/ward-api/internal/migrate"
	"github.com/wardline/ward-api/pkg/httputil"
)

// Handler triggers migration runs over the fleet. Run is synchronous;
// operators call it from deploy tooling and read the summary.
type Handler struct {
	orchestrator *migrate.Orchestrator
}

func NewHandler(orchestrator *migrate.Orchestrator) *Handler {
	return &Handler{orchestrator: orchestrator}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/migrations/run", h.Run)
}

func (h *Handler) Run(c *gin.Context) {
	summary, err := h.orchestrator.Run(c.Request.Context())
	if err != nil {
		if errors.Is(err, migrate.ErrRunInProgress) {
			c.JSON(http.StatusConflict, httputil.Response{
				Success: false,
				Error: &httputil.Error{
					Code:    http.StatusConflict,
					Message: err.Error(),
				},
			})
			return
		}
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{
		"namespaces": len(summary.Results),
		"succeeded":  summary.Succeeded(),
		"failed":     summary.Failed(),
		"degraded":   summary.Degraded(),
		"duration":   summary.Duration.String(),
		"results":    summaryRows(summary),
	})
}

type row struct {
	Schema  string `json:"schema"`
	Applied int    `json:"applied"`
	Skipped int    `json:"skipped"`
	Error   string `json:"error,omitempty"`
}

func summaryRows(summary *migrate.RunSummary) []row {
	rows := make([]row, 0, len(summary.Results))
	for _, r := range summary.Results {
		out := row{Schema: r.Schema, Applied: r.Applied, Skipped: r.Skipped}
		if r.Err != nil {
			out.Error = r.Err.Error()
		}
		rows = append(rows, out)
	}
	return rows
}
