package dashboard

import (
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/quantummeet/quantummeet/internal/auth"
)

type signInView struct {
	Layout     layoutView
	Email      string
	Next       string
	Error      string
	Dehydrated template.JS
}

const emptyDehydrated = template.JS(`{"queries":[]}`)

func (s *server) handleSignInForm(c *gin.Context) {
	if _, err := s.currentUser(c); err == nil {
		c.Redirect(http.StatusFound, safeNext(c.Query("next")))
		return
	}
	c.HTML(http.StatusOK, "sign_in", signInView{
		Layout:     layoutView{Title: "Sign in"},
		Next:       c.Query("next"),
		Dehydrated: emptyDehydrated,
	})
}

func (s *server) handleSignIn(c *gin.Context) {
	email := c.PostForm("email")
	next := c.PostForm("next")

	session, err := auth.SignIn(c.Request.Context(), s.db, email, c.PostForm("password"), auth.SessionOpts{
		TTL:       s.auth.SessionTTL,
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		status, msg := http.StatusUnauthorized, "Invalid email or password"
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			s.log.WithError(err).Error("dashboard: sign in")
			status, msg = http.StatusInternalServerError, "Something went wrong"
		}
		c.HTML(status, "sign_in", signInView{
			Layout:     layoutView{Title: "Sign in"},
			Email:      email,
			Next:       next,
			Error:      msg,
			Dehydrated: emptyDehydrated,
		})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.auth.CookieName, session.Token, int(s.auth.SessionTTL.Seconds()), "/", "", s.auth.SecureCookie, true)
	c.Redirect(http.StatusSeeOther, safeNext(next))
}

func (s *server) handleSignOut(c *gin.Context) {
	if err := auth.SignOut(c.Request.Context(), s.db, s.sessionToken(c)); err != nil {
		s.log.WithError(err).Error("dashboard: sign out")
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.auth.CookieName, "", -1, "/", "", s.auth.SecureCookie, true)
	c.Redirect(http.StatusSeeOther, "/sign-in")
}

// safeNext keeps post-sign-in redirects on this site.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/meetings"
	}
	return next
}
