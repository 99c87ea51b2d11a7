package dashboard

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quantummeet/quantummeet/internal/auth"
	"github.com/quantummeet/quantummeet/internal/models"
	"github.com/quantummeet/quantummeet/internal/rpc"
	"github.com/sirupsen/logrus"
)

const userKey = "qm.user"

// requestLogger logs one structured line per request.
func requestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"client":  c.ClientIP(),
		})
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Error("request")
		case c.Writer.Status() >= http.StatusBadRequest:
			entry.Warn("request")
		default:
			entry.Debug("request")
		}
	}
}

// sessionTokens returns the candidate tokens in lookup order: the session
// cookie, then an Authorization: Bearer header.
func (s *server) sessionTokens(c *gin.Context) []string {
	var tokens []string
	if token, err := c.Cookie(s.auth.CookieName); err == nil && token != "" {
		tokens = append(tokens, token)
	}
	if token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer "); ok {
		if token = strings.TrimSpace(token); token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// sessionToken returns the first candidate token, or "".
func (s *server) sessionToken(c *gin.Context) string {
	if tokens := s.sessionTokens(c); len(tokens) > 0 {
		return tokens[0]
	}
	return ""
}

// currentUser resolves the caller's session. A stale cookie falls through to
// the bearer token. No usable token is an UNAUTHORIZED error.
func (s *server) currentUser(c *gin.Context) (*models.User, error) {
	if v, ok := c.Get(userKey); ok {
		return v.(*models.User), nil
	}
	for _, token := range s.sessionTokens(c) {
		user, err := auth.Lookup(c.Request.Context(), s.db, token)
		if err == nil {
			c.Set(userKey, user)
			return user, nil
		}
		if rpc.CodeOf(err) != rpc.CodeUnauthorized {
			return nil, err
		}
	}
	return nil, rpc.Unauthorized()
}

// requirePageSession redirects callers without a session to the sign-in page.
func (s *server) requirePageSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, err := s.currentUser(c)
		if err == nil {
			c.Next()
			return
		}
		if rpc.CodeOf(err) != rpc.CodeUnauthorized {
			s.log.WithError(err).Error("dashboard: session lookup")
			c.String(http.StatusInternalServerError, "Something went wrong")
			c.Abort()
			return
		}
		c.Redirect(http.StatusFound, "/sign-in?next="+url.QueryEscape(c.Request.URL.RequestURI()))
		c.Abort()
	}
}

// pageUser returns the user stored by requirePageSession.
func pageUser(c *gin.Context) *models.User {
	return c.MustGet(userKey).(*models.User)
}
