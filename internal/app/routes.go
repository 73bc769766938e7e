package app

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/littlenest/core/internal/middleware"
	"github.com/littlenest/core/internal/models"
	"github.com/littlenest/core/internal/modules/accounts"
	"github.com/littlenest/core/internal/modules/content"
	"github.com/littlenest/core/internal/modules/dailyreport"
	"github.com/littlenest/core/internal/modules/dashboard"
	"github.com/littlenest/core/internal/modules/feed"
	"github.com/littlenest/core/internal/modules/legacyimport"
	"github.com/littlenest/core/internal/modules/progress"
	"github.com/littlenest/core/internal/modules/schedule"
	"github.com/littlenest/core/internal/modules/school"
	"github.com/littlenest/core/internal/modules/upload"
	pkgredis "github.com/littlenest/core/internal/pkg/redis"
	"github.com/littlenest/core/internal/pkg/response"
)

const apiPrefix = "/api/v1"

func (a *App) registerRoutes(rc *pkgredis.Client) {
	r := a.router
	db := a.db

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	// Rate limiting and idempotence run on every route (requires Redis).
	r.Use(middleware.RateLimit(rc.Raw()))
	r.Use(middleware.Idempotence(rc.Raw()))

	// socket.io transport, plus polling fallback under the same path.
	socketHandler := a.hub.Handler()
	r.Any("/socket.io", gin.WrapH(socketHandler))
	r.Any("/socket.io/*any", gin.WrapH(socketHandler))

	api := r.Group(apiPrefix)

	api.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"data": "pong"}) })
	api.GET("/uptime", func(c *gin.Context) {
		uptime := time.Since(processStart)
		c.JSON(http.StatusOK, gin.H{
			"timestamp": uptime.Milliseconds(),
			"humanize":  humanizeDuration(uptime),
		})
	})

	accounts.NewHandler(accounts.NewService(db, rc, a.mails, a.cfg.TokenTTL())).RegisterRoutes(api)
	school.NewHandler(school.NewService(db)).RegisterRoutes(api)
	feed.NewHandler(feed.NewService(db)).RegisterRoutes(api)
	dailyreport.NewHandler(dailyreport.NewService(db)).RegisterRoutes(api)
	progress.NewHandler(progress.NewService(db)).RegisterRoutes(api)
	schedule.NewHandler(schedule.NewService(db)).RegisterRoutes(api)
	content.NewHandler(content.NewService(db)).RegisterRoutes(api)
	dashboard.NewHandler(dashboard.NewService(db, rc, a.logger)).RegisterRoutes(api)
	upload.NewHandler(upload.NewService(a.cfg.S3, a.logger)).RegisterRoutes(api)
	legacyimport.NewHandler(legacyimport.NewService(db, a.logger)).RegisterRoutes(api)
	a.hub.RegisterRoutes(api)

	a.registerAdminRoutes(api)
}

// registerAdminRoutes exposes operational endpoints: background job
// inspection and the mail outbox.
func (a *App) registerAdminRoutes(api *gin.RouterGroup) {
	admin := api.Group("/admin", middleware.RequireRole(models.RoleAdmin))

	admin.GET("/jobs", func(c *gin.Context) {
		response.OK(c, a.sched.List())
	})
	admin.POST("/jobs/:name/run", func(c *gin.Context) {
		if err := a.sched.Trigger(c.Request.Context(), c.Param("name")); err != nil {
			response.NotFoundMsg(c, err.Error())
			return
		}
		response.NoContent(c)
	})

	admin.GET("/mail/outbox", func(c *gin.Context) {
		entries, err := a.mails.List(c.Request.Context(), 50)
		if err != nil {
			response.InternalError(c, err)
			return
		}
		response.OK(c, entries)
	})
}

func humanizeDuration(d time.Duration) string {
	if d < time.Minute {
		return d.Truncate(time.Second).String()
	}
	if d < time.Hour {
		return d.Truncate(time.Minute).String()
	}
	if d < 24*time.Hour {
		return d.Truncate(time.Hour).String()
	}
	return d.Truncate(24 * time.Hour).String()
}
