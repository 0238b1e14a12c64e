package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"fleet-console/internal/auth"
	"fleet-console/internal/config"
	"fleet-console/internal/ghcontent"
	"fleet-console/internal/handler"
	"fleet-console/internal/hub"
	"fleet-console/internal/notify"
	"fleet-console/internal/perf"
	"fleet-console/internal/rtdb"
	"fleet-console/internal/server"
	"fleet-console/internal/view"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	gin.SetMode(cfg.GinMode)

	notifier := notify.NewCenter()
	notifier.AddSink(func(n notify.Notification) {
		log.Printf("notify [%s]: %s", n.Level, n.Message)
	})

	store := rtdb.NewMemoryWithOptions(rtdb.Options{StateFile: cfg.StateFile})
	monitor := perf.NewMonitorWithOptions(notifier, perf.Options{
		Registerer: prometheus.DefaultRegisterer,
	})
	client := perf.Instrument(store, monitor)

	contentStore := ghcontent.New(ghcontent.Config{
		Owner:      cfg.GitHubOwner,
		Repo:       cfg.GitHubRepo,
		Dir:        cfg.GitHubDir,
		Token:      cfg.GitHubToken,
		APIBase:    cfg.GitHubAPIBase,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	})

	dashboard := view.NewDashboardView(client, notifier, nil)
	machines := view.NewMachinesView(client, notifier, nil)
	logs := view.NewLogsView(client, notifier)
	settings := view.NewSettingsView(client, notifier, nil)
	templates := view.NewTemplatesView(contentStore, client, notifier, nil)
	download := view.NewDownloadView(client, notifier, nil)

	for name, init := range map[string]func() error{
		"dashboard": dashboard.Init,
		"machines":  machines.Init,
		"logs":      logs.Init,
	} {
		if err := init(); err != nil {
			log.Fatalf("init %s view: %v", name, err)
		}
	}
	if _, err := settings.Load(); err != nil {
		log.Fatalf("load settings: %v", err)
	}
	dashboard.StartAutoRefresh(time.Duration(settings.Current().DashboardRefresh) * time.Second)
	logs.StartAutoRefresh(30 * time.Second)

	wsHub := hub.New()
	broadcaster := &handler.Broadcaster{Hub: wsHub, Client: client}
	if err := broadcaster.Start(); err != nil {
		log.Fatalf("start broadcaster: %v", err)
	}
	notifier.AddSink(broadcaster.NotificationSink())

	tokenCfg := auth.TokenConfig{
		Secret: cfg.SessionSecret,
		Expiry: cfg.SessionExpiry,
		Issuer: "fleet-console",
	}

	router := server.NewRouter(server.Deps{
		Credentials: auth.Credentials{Username: cfg.AdminUser, Password: cfg.AdminPassword},
		TokenConfig: tokenCfg,
		Notifier:    notifier,
		Monitor:     monitor,
		Dashboard:   dashboard,
		Machines:    machines,
		Logs:        logs,
		Settings:    settings,
		Templates:   templates,
		Download:    download,
		Hub:         wsHub,
	})

	log.Printf("listening on %s", fmt.Sprintf(":%d", cfg.Port))
	log.Fatal(server.Run(cfg, router))
}
