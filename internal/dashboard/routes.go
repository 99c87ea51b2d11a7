package dashboard

import (
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
)

// registerRoutes sets up all dashboard routes on the Gin router.
func registerRoutes(router *gin.Engine, s *server) {
	// Embedded static assets (served from assets/ subdir of the embed.FS).
	staticFS, _ := fs.Sub(assetsFS, "assets")
	router.StaticFS("/static", http.FS(staticFS))

	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/meetings")
	})

	router.GET("/sign-in", s.handleSignInForm)
	router.POST("/sign-in", s.handleSignIn)
	router.POST("/sign-out", s.handleSignOut)

	pages := router.Group("/", s.requirePageSession())
	pages.GET("/agents", s.handleAgentList)
	pages.GET("/agents/:id", s.handleAgentDetail)
	pages.GET("/meetings", s.handleMeetingList)
	pages.POST("/meetings", s.handleMeetingCreate)
	pages.GET("/meetings/:id", s.handleMeetingDetail)

	// Procedures validate the method themselves, so a wrong verb is
	// METHOD_NOT_SUPPORTED rather than a routing 404.
	router.Any("/api/rpc/:path", s.handleRPC)
}
