package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/wardline/ward-api/pkg/errors"
	"github.com/wardline/ward-api/pkg/validator"
)

// Response wraps all API responses.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error carries the application error code alongside the message so
// clients can branch on it without parsing text.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

func RespondWithCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithBindError turns a request binding failure into a 400 with
// per-field messages where the error carries them.
func RespondWithBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Error: &Error{
			Code:    int(apperrors.ErrBadRequest),
			Message: validator.Message(err),
		},
	})
}

// RespondWithError maps application error codes to HTTP statuses.
// Unknown errors never leak their message to the client.
func RespondWithError(c *gin.Context, err error) {
	if appErr, ok := err.(*apperrors.AppError); ok {
		c.JSON(statusFor(appErr.Code), Response{
			Success: false,
			Error: &Error{
				Code:    int(appErr.Code),
				Message: appErr.Message,
			},
		})
		return
	}

	c.JSON(http.StatusInternalServerError, Response{
		Success: false,
		Error: &Error{
			Code:    int(apperrors.ErrInternal),
			Message: "internal server error",
		},
	})
}

func statusFor(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrNotFound, apperrors.ErrUnknownTenant:
		return http.StatusNotFound
	case apperrors.ErrBadRequest, apperrors.ErrInvalidTenantID, apperrors.ErrInvalidInterval:
		return http.StatusBadRequest
	case apperrors.ErrUnauthorized:
		return http.StatusUnauthorized
	case apperrors.ErrForbidden, apperrors.ErrTenantInactive:
		return http.StatusForbidden
	case apperrors.ErrConflict, apperrors.ErrDuplicateTenant,
		apperrors.ErrOverlapConflict, apperrors.ErrBedNotAvailable,
		apperrors.ErrAssignmentNotActive, apperrors.ErrBedOccupied:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
