package rest

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/printpeak/internal/common"
	"github.com/gin-gonic/gin"
)

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", common.ErrValidation, fmt.Sprintf(format, args...))
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrInvalidCredential):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrRefreshTokenExpired),
		errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrConflict), errors.Is(err, common.ErrInvalidTransition),
		errors.Is(err, common.ErrLastAdmin):
		return http.StatusConflict
	case errors.Is(err, common.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError aborts the request with {"message": ...}. Internal failures
// are logged and answered with a generic text.
func (s *Server) writeError(c *gin.Context, err error) {
	code := statusFor(err)
	msg := err.Error()
	switch code {
	case http.StatusInternalServerError:
		s.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		msg = "internal error"
		if errors.Is(err, common.ErrOrderCreation) {
			msg = common.ErrOrderCreation.Error()
		}
	case http.StatusBadGateway:
		s.logger.Warn(c.Request.Context(), "upstream failure", "path", c.FullPath(), "error", err)
	case http.StatusUnauthorized:
		if errors.Is(err, common.ErrorUnauthorized) {
			msg = "invalid credentials"
		}
	}
	c.AbortWithStatusJSON(code, gin.H{"message": msg})
}
