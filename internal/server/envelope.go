package server

import (
	"errors"
	"net/http"

	"github.com/MarcoPoloResearchLab/daypoll/backend/internal/rooms"
	"github.com/gin-gonic/gin"
)

const (
	codeInvalidRequest = "invalid_request"
	codeUnauthorized   = "unauthorized"
	codeInternal       = "internal_error"
	messageInternal    = "something went wrong, please retry"
)

type successEnvelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

type errorEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

func respondSuccess(c *gin.Context, status int, data any, message string) {
	c.JSON(status, successEnvelope{Success: true, Data: data, Message: message})
}

func respondFailure(c *gin.Context, status int, reason, code string) {
	c.AbortWithStatusJSON(status, errorEnvelope{Success: false, Error: reason, Code: code})
}

func respondInvalidRequest(c *gin.Context, reason string) {
	respondFailure(c, http.StatusBadRequest, reason, codeInvalidRequest)
}

// respondError maps a service error onto the envelope. Internal failures get a
// generic reason.
func respondError(c *gin.Context, err error) {
	status := statusForError(err)
	code := codeInternal
	var serviceErr *rooms.ServiceError
	if errors.As(err, &serviceErr) {
		code = serviceErr.Code()
	}
	if status == http.StatusInternalServerError {
		respondFailure(c, status, messageInternal, code)
		return
	}
	reason := err.Error()
	var domainErr *rooms.Error
	if errors.As(err, &domainErr) {
		reason = domainErr.Reason()
	}
	respondFailure(c, status, reason, code)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, rooms.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, rooms.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, rooms.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, rooms.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
