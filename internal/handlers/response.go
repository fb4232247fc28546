package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/apperr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondServiceError maps the service error taxonomy onto HTTP statuses.
func RespondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotAuthenticated):
		RespondError(c, http.StatusUnauthorized, "not_authenticated", err)
	case errors.Is(err, apperr.ErrAccessDenied):
		RespondError(c, http.StatusForbidden, "access_denied", err)
	case errors.Is(err, apperr.ErrNotFound):
		RespondError(c, http.StatusNotFound, "not_found", err)
	case apperr.IsInvalidOperation(err):
		RespondError(c, http.StatusUnprocessableEntity, "invalid_operation", err)
	default:
		RespondError(c, http.StatusBadRequest, "bad_request", err)
	}
}
