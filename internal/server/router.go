package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fleet-console/internal/auth"
	"fleet-console/internal/handler"
	"fleet-console/internal/hub"
	"fleet-console/internal/middleware"
	"fleet-console/internal/notify"
	"fleet-console/internal/perf"
	"fleet-console/internal/view"
)

type Deps struct {
	Credentials auth.Credentials
	TokenConfig auth.TokenConfig
	Notifier    *notify.Center
	Monitor     *perf.Monitor

	Dashboard *view.DashboardView
	Machines  *view.MachinesView
	Logs      *view.LogsView
	Settings  *view.SettingsView
	Templates *view.TemplatesView
	Download  *view.DownloadView

	Hub *hub.Hub
}

func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	loginLimiter := middleware.NewRateLimiter(10, time.Minute)
	authHandler := &handler.AuthHandler{
		Credentials:  deps.Credentials,
		TokenConfig:  deps.TokenConfig,
		LoginLimiter: loginLimiter,
	}
	r.POST("/v1/auth/login", authHandler.Login)

	protected := r.Group("/v1")
	protected.Use(middleware.RequireAuth(deps.TokenConfig))

	dashboardHandler := &handler.DashboardHandler{Dashboard: deps.Dashboard}
	protected.GET("/dashboard/summary", dashboardHandler.Summary)
	protected.GET("/dashboard/detections", dashboardHandler.Detections)
	protected.GET("/dashboard/recent", dashboardHandler.Recent)
	protected.POST("/dashboard/refresh", dashboardHandler.Refresh)

	machinesHandler := &handler.MachinesHandler{Machines: deps.Machines}
	protected.GET("/machines", machinesHandler.List)
	protected.GET("/machines/:id", machinesHandler.Details)
	protected.POST("/machines/:id/uninstall", machinesHandler.Uninstall)

	logsHandler := &handler.LogsHandler{Logs: deps.Logs}
	protected.GET("/logs", logsHandler.List)
	protected.POST("/logs/more", logsHandler.LoadMore)
	protected.GET("/logs/export", logsHandler.Export)

	settingsHandler := &handler.SettingsHandler{Settings: deps.Settings}
	protected.GET("/settings", settingsHandler.Get)
	protected.PUT("/settings", settingsHandler.Put)
	protected.GET("/settings/usage", settingsHandler.Usage)
	protected.POST("/settings/cleanup", settingsHandler.Cleanup)
	protected.GET("/settings/export", settingsHandler.ExportAll)

	templatesHandler := &handler.TemplatesHandler{Templates: deps.Templates}
	protected.GET("/templates", templatesHandler.List)
	protected.GET("/templates/stats", templatesHandler.Stats)
	protected.POST("/templates", templatesHandler.Upload)
	protected.DELETE("/templates/:name", templatesHandler.Delete)
	protected.DELETE("/templates", templatesHandler.Clear)

	downloadHandler := &handler.DownloadHandler{Download: deps.Download}
	protected.GET("/download/release", downloadHandler.Release)
	protected.POST("/download/attempt", downloadHandler.RecordAttempt)

	perfHandler := &handler.PerfHandler{Monitor: deps.Monitor}
	protected.GET("/perf/metrics", perfHandler.Metrics)
	protected.GET("/perf/export", perfHandler.Export)
	protected.POST("/perf/clear", perfHandler.Clear)

	notificationsHandler := &handler.NotificationsHandler{Center: deps.Notifier}
	protected.GET("/notifications", notificationsHandler.Recent)

	wsHandler := &handler.WebSocketHandler{Hub: deps.Hub, TokenConfig: deps.TokenConfig}
	r.GET("/ws", wsHandler.Serve)

	return r
}
