package app

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/mark3748/helpdesk-sla/internal/tenant"
)

// Error represents a structured error response.
type Error struct {
	Code        string            `json:"code"`
	Message     string            `json:"message"`
	FieldErrors map[string]string `json:"field_errors,omitempty"`
}

// Envelope wraps successful data or an error.
type Envelope struct {
	Data  interface{} `json:"data,omitempty"`
	Error *Error      `json:"error,omitempty"`
}

// AbortError records an error and aborts the handler. The response will be
// rendered by the Errors middleware.
func AbortError(c *gin.Context, status int, code, message string, fields map[string]string) {
	c.Set("app_error", &Error{Code: code, Message: message, FieldErrors: fields})
	c.AbortWithStatus(status)
}

// AbortBind reports a request body that failed binding or validation.
func AbortBind(c *gin.Context, err error) {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		fields := make(map[string]string, len(ve))
		for _, fe := range ve {
			fields[fieldPath(fe.Namespace())] = fe.Tag()
		}
		AbortError(c, http.StatusBadRequest, "invalid_request", "validation failed", fields)
		return
	}
	AbortError(c, http.StatusBadRequest, "invalid_request", err.Error(), nil)
}

// AbortTenant maps a tenant lookup failure to 404 or 500.
func AbortTenant(c *gin.Context, err error) {
	if errors.Is(err, tenant.ErrNotFound) {
		AbortError(c, http.StatusNotFound, "tenant_not_found", err.Error(), nil)
		return
	}
	AbortError(c, http.StatusInternalServerError, "tenant_unavailable", err.Error(), nil)
}

// fieldPath drops the top-level struct name: "EvaluationRequest.Tickets[0].ID"
// becomes "Tickets[0].ID".
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// Errors emits a JSON error envelope and structured log entry when an error
// was recorded via AbortError.
func Errors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		v, ok := c.Get("app_error")
		if !ok {
			return
		}
		err, ok := v.(*Error)
		if !ok {
			return
		}
		status := c.Writer.Status()
		logger := log.Ctx(c.Request.Context()).Error().Str("code", err.Code)
		for k, v := range err.FieldErrors {
			logger = logger.Str("field_"+k, v)
		}
		logger.Msg(err.Message)
		c.JSON(status, Envelope{Error: err})
	}
}
