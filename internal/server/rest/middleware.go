package rest

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/printpeak/internal/common"
	"github.com/dmitrijs2005/printpeak/internal/server/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	userIDKey       = "userID"
	isAdminKey      = "isAdmin"
	requestIDHeader = "X-Request-ID"
)

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := c.GetHeader(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header(requestIDHeader, reqID)

		c.Next()

		s.logger.Info(c.Request.Context(), "request",
			"request_id", reqID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}

func (s *Server) recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, rec any) {
		s.logger.Error(c.Request.Context(), "panic in handler", "path", c.Request.URL.Path, "panic", rec)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
	})
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader(common.AuthorizationHeaderName)
	n := len(common.BearerPrefix)
	if len(h) > n && strings.EqualFold(h[:n], common.BearerPrefix) {
		return strings.TrimSpace(h[n:])
	}
	return ""
}

// requireSession verifies the access token and stores the account id in
// the context. With fromQuery the token may also come from the
// access_token query parameter, which browsers need for websockets.
func (s *Server) requireSession(fromQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" && fromQuery {
			token = c.Query(common.AccessTokenQueryParam)
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing token"})
			return
		}

		userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": err.Error()})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// requireAdmin must run after requireSession.
func (s *Server) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		admin, err := s.isAdmin(c)
		if err != nil {
			s.writeError(c, err)
			return
		}
		if !admin {
			s.writeError(c, common.ErrForbidden)
			return
		}
		c.Next()
	}
}

func sessionUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// isAdmin looks the session account up once per request. A token for a
// deleted account is treated as unauthenticated.
func (s *Server) isAdmin(c *gin.Context) (bool, error) {
	if v, ok := c.Get(isAdminKey); ok {
		return v.(bool), nil
	}
	u, err := s.svc.Accounts.Get(c.Request.Context(), sessionUserID(c))
	if err != nil {
		if statusFor(err) == http.StatusNotFound {
			return false, common.ErrorUnauthorized
		}
		return false, err
	}
	c.Set(isAdminKey, u.IsAdmin)
	return u.IsAdmin, nil
}

// actingAccount resolves the account a request acts on. An empty claimed
// id means the session account; another account's id needs admin rights.
func (s *Server) actingAccount(c *gin.Context, claimed string) (string, error) {
	self := sessionUserID(c)
	if claimed == "" || claimed == self {
		return self, nil
	}
	admin, err := s.isAdmin(c)
	if err != nil {
		return "", err
	}
	if !admin {
		return "", common.ErrForbidden
	}
	return claimed, nil
}
