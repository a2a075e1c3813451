package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/PedroPPVM/Intelectus-Api/config"
	"github.com/PedroPPVM/Intelectus-Api/gazette"
	"github.com/PedroPPVM/Intelectus-Api/middlewares"
	"github.com/PedroPPVM/Intelectus-Api/models"
	"github.com/PedroPPVM/Intelectus-Api/models/reports"
	"github.com/PedroPPVM/Intelectus-Api/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

func main() {
	_ = godotenv.Load()

	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP so the startup probe passes. Until DB/Redis
	// are ready, app endpoints return 503.
	r := gin.New()
	// Correlation IDs: generate once per request and attach to context.
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	})
	r.Use(func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if config.GetDB() == nil || config.GetRedisDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// In production, require an explicit allowlist via CORS_ALLOWED_ORIGINS.
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "Authorization", "X-Company-Id")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition")
	corsConfig.AllowCredentials = true

	r.Use(cors.New(corsConfig))
	r.Use(middlewares.AuthMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	engine := gazette.NewDefaultEngine()

	// Public auth endpoints.
	r.POST("/api/auth/register", registerHandler())
	r.POST("/api/auth/login", loginHandler())

	authed := r.Group("/api", middlewares.RequireAuth())
	{
		authed.POST("/auth/logout", logoutHandler())
		authed.GET("/auth/me", meHandler())
		authed.POST("/auth/change-password", changePasswordHandler())
		authed.PUT("/users/:id", updateUserHandler())

		authed.POST("/companies", createCompanyHandler())
		authed.GET("/companies", listCompaniesHandler())
		authed.GET("/companies/:id", getCompanyHandler())
		authed.PUT("/companies/:id", updateCompanyHandler())
		authed.GET("/companies/:id/members", listCompanyMembersHandler())
		authed.POST("/companies/:id/members", addCompanyMemberHandler())
		authed.PUT("/companies/:id/members/:userId", updateCompanyMemberHandler())
	}

	// Company-scoped endpoints: X-Company-Id selects the acting company.
	scoped := r.Group("/api", middlewares.RequireAuth(), middlewares.CompanyMiddleware())
	{
		scoped.POST("/processes", createProcessHandler())
		scoped.GET("/processes", listProcessesHandler())
		scoped.GET("/processes/export", reports.ExportProcessesExcel())
		scoped.GET("/processes/number/:number", getProcessByNumberHandler())
		scoped.GET("/processes/:id", getProcessHandler())
		scoped.PUT("/processes/:id", updateProcessHandler())
		scoped.DELETE("/processes/:id", deleteProcessHandler())

		scoped.GET("/magazines", listMagazinesHandler())

		scoped.GET("/alerts", listAlertsHandler())
		scoped.GET("/alerts/unread-count", unreadAlertCountHandler())
		scoped.POST("/alerts/:id/read", markAlertReadHandler())
		scoped.POST("/alerts/:id/dismiss", dismissAlertHandler())

		scoped.POST("/reconcile/process", gazette.ReconcileProcessHandler(engine))
		scoped.POST("/reconcile/company", gazette.ReconcileCompanyHandler(engine))
		scoped.POST("/reconcile/runs", gazette.TriggerReconcileRunHandler())
		scoped.GET("/reconcile/runs", gazette.ReconcileRunsHandler())
		scoped.GET("/reconcile/runs/:id", gazette.ReconcileRunDetailHandler())
	}

	// Pub/Sub push endpoint for the async reconcile worker.
	r.POST("/pubsub/reconcile", gazette.PubSubPushHandler())

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()

	// AutoMigrate can run DDL that blocks tables; allow running migrations as
	// a separate job instead.
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		if err := models.MigrateTable(); err != nil {
			logger.WithFields(logrus.Fields{"field": "migrations"}).Error(err.Error())
		}
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	logger.WithFields(logrus.Fields{"field": "server"}).Info("listening on :" + port)

	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// customErrorLogger logs one structured line per request.
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
		entry := logger.WithFields(logrus.Fields{
			"status":         c.Writer.Status(),
			"method":         c.Request.Method,
			"path":           c.Request.URL.Path,
			"latency":        latency.String(),
			"correlation_id": cid,
		})
		if len(c.Errors) > 0 {
			entry.Error(c.Errors.String())
			return
		}
		entry.Info("request")
	}
}
