package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/campaign-hub/core/internal/config"
	"github.com/campaign-hub/core/internal/database"
	"github.com/campaign-hub/core/internal/middleware"
	"github.com/campaign-hub/core/internal/modules/cms"
	"github.com/campaign-hub/core/internal/modules/mailer"
	"github.com/campaign-hub/core/internal/modules/notification"
	"github.com/campaign-hub/core/internal/modules/submission"
	"github.com/campaign-hub/core/internal/modules/subscription"
	pkgcron "github.com/campaign-hub/core/internal/pkg/cron"
	"github.com/campaign-hub/core/internal/pkg/dispatch"
	"github.com/campaign-hub/core/internal/pkg/fcm"
	"github.com/campaign-hub/core/internal/pkg/mail"
	pkgredis "github.com/campaign-hub/core/internal/pkg/redis"
	"github.com/campaign-hub/core/internal/pkg/slack"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App holds all application dependencies.
type App struct {
	cfg    *config.AppConfig
	router *gin.Engine
	db     *gorm.DB
	logger *zap.Logger
	cancel context.CancelFunc
	sched  *pkgcron.Scheduler

	dispatcher *dispatch.Dispatcher
	cmsClient  *cms.Client
	slackSvc   *slack.Service

	subscriptionSvc *subscription.Service
	submissionSvc   *submission.Service
	mailerSvc       *mailer.Service
	notificationSvc *notification.Service
}

// New initializes the application: config → DB → Redis → clients → routes.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if err := applyRuntimeSettings(cfg); err != nil {
		return nil, err
	}

	db, err := database.Connect(cfg, true)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	rc, err := pkgredis.Connect(cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "x-idempotence"},
		ExposeHeaders:    []string{"Content-Length", "x-ch-cache"},
		AllowCredentials: true,
	}
	if len(cfg.AllowedOrigins) > 0 && !cfg.IsDev() {
		patterns := cfg.AllowedOrigins
		corsConfig.AllowOriginFunc = func(origin string) bool {
			return originAllowed(patterns, origin)
		}
	} else {
		corsConfig.AllowOriginFunc = func(origin string) bool { return true }
	}
	router.Use(cors.New(corsConfig))

	ctx, cancel := context.WithCancel(context.Background())

	dispatcher := dispatch.New(logger)
	cmsClient := cms.NewClient(cfg.CMS, logger)
	mailSender := mail.New(cfg.Mail)
	slackSvc := slack.New(cfg.Slack.BotToken, cfg.Slack.Channel)

	var pushSender fcm.MulticastSender
	if cfg.Push.Enable {
		client, err := fcm.NewClient(ctx, cfg.Push, logger)
		if err != nil {
			// The hub still serves content, forms, and email without push.
			logger.Warn("push delivery unavailable", zap.Error(err))
		} else {
			pushSender = client
		}
	}

	app := &App{
		cfg:        cfg,
		router:     router,
		db:         db,
		logger:     logger,
		cancel:     cancel,
		dispatcher: dispatcher,
		cmsClient:  cmsClient,
		slackSvc:   slackSvc,
	}
	app.subscriptionSvc = subscription.NewService(db, logger)
	app.mailerSvc = mailer.NewService(cmsClient, mailSender, cfg.Mail, logger)
	app.submissionSvc = submission.NewService(cmsClient, app.mailerSvc, slackSvc, dispatcher, logger)
	app.notificationSvc = notification.NewService(db, pushSender, logger)

	app.sched = pkgcron.New()
	if pushSender != nil {
		registerCronJobs(app.sched, app.notificationSvc, logger)
		go app.sched.Start(ctx)
	}

	app.registerRoutes(rc)
	return app, nil
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown stops background goroutines and waits for in-flight notifier
// tasks to finish.
func (a *App) Shutdown() {
	a.cancel()
	if !a.dispatcher.Drain(30 * time.Second) {
		a.logger.Warn("notifier tasks still running at shutdown")
	}
}

var processStart = time.Now()
