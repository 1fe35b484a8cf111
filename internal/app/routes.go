package app

import (
	"net/http"
	"time"

	"github.com/campaign-hub/core/internal/middleware"
	"github.com/campaign-hub/core/internal/modules/chat"
	"github.com/campaign-hub/core/internal/modules/content"
	"github.com/campaign-hub/core/internal/modules/diagnostics"
	"github.com/campaign-hub/core/internal/modules/mailer"
	"github.com/campaign-hub/core/internal/modules/notification"
	"github.com/campaign-hub/core/internal/modules/submission"
	"github.com/campaign-hub/core/internal/modules/subscription"
	pkgredis "github.com/campaign-hub/core/internal/pkg/redis"
	"github.com/campaign-hub/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(rc *pkgredis.Client) {
	r := a.router
	operatorMW := middleware.OperatorAuth(a.cfg.OperatorToken)

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	appInfo := gin.H{
		"name":     "campaign-hub-core",
		"version":  "1.0.0",
		"homepage": "https://github.com/campaign-hub/core",
	}

	apiPrefix := "/api/v2"

	// Operator marking must precede rate limiting so operator calls are
	// exempt; the hard gate sits on individual route groups.
	r.Use(middleware.OperatorDetect(a.cfg.OperatorToken))
	r.Use(middleware.RateLimit(rc.Raw(), a.logger))
	r.Use(middleware.Idempotence(rc.Raw(), apiPrefix+"/subscriptions*"))

	api := r.Group(apiPrefix)
	api.Use(middleware.HTTPCache(rc.Raw(), middleware.HTTPCacheOptions{
		TTL:     15 * time.Second,
		Disable: a.cfg.IsDev(),
		SkipPaths: []string{
			apiPrefix + "/subscriptions*",
			apiPrefix + "/forms*",
			apiPrefix + "/mail*",
			apiPrefix + "/chat*",
			apiPrefix + "/notifications*",
			apiPrefix + "/cron*",
			apiPrefix + "/diagnostics*",
		},
	}))

	api.GET("", func(c *gin.Context) { c.PureJSON(http.StatusOK, appInfo) })
	api.GET("/info", func(c *gin.Context) { c.PureJSON(http.StatusOK, appInfo) })
	api.GET("/uptime", func(c *gin.Context) {
		uptime := time.Since(processStart)
		c.JSON(http.StatusOK, gin.H{
			"timestamp": uptime.Milliseconds(),
			"humanize":  humanizeDuration(uptime),
		})
	})

	content.NewHandler(a.cmsClient, a.logger).RegisterRoutes(api)
	subscription.NewHandler(a.subscriptionSvc).RegisterRoutes(api)
	submission.NewHandler(a.submissionSvc).RegisterRoutes(api, operatorMW)
	mailer.NewHandler(a.mailerSvc).RegisterRoutes(api)
	chat.NewHandler(a.slackSvc, a.logger).RegisterRoutes(api)
	notification.NewHandler(a.notificationSvc).RegisterRoutes(api, operatorMW)
	diagnostics.NewHandler(a.cfg).RegisterRoutes(api)

	cron := api.Group("/cron", operatorMW)
	cron.GET("", func(c *gin.Context) {
		response.OK(c, a.sched.List())
	})
	cron.POST("/run/:name", func(c *gin.Context) {
		if err := a.sched.Run(c.Request.Context(), c.Param("name")); err != nil {
			response.NotFoundMsg(c, err.Error())
			return
		}
		response.OK(c, gin.H{"message": "job started"})
	})
}
