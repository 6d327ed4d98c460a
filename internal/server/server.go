// Package server provides the carewatch HTTP API.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/raphaelgruber/carewatch/internal/alert"
	"github.com/raphaelgruber/carewatch/internal/device"
	"github.com/raphaelgruber/carewatch/internal/metrics"
	"github.com/raphaelgruber/carewatch/internal/monitor"
	"github.com/raphaelgruber/carewatch/internal/service"
)

// maxScanTimeout bounds the scan duration a client may request.
const maxScanTimeout = 30 * time.Second

// Deps holds everything the API serves. Monitors holds only the monitors
// whose models loaded; Scanner may be nil.
type Deps struct {
	Accounts    *service.AccountService
	Caretakers  *service.CaretakerService
	Reminders   *service.ReminderService
	Alerts      *service.AlertService
	Hub         *alert.Hub
	Monitors    map[string]*monitor.Monitor
	Scanner     device.Scanner
	ScanTimeout time.Duration
	Metrics     *metrics.Collector
	CORSOrigins []string
	Logger      *slog.Logger
}

// Server wraps the gin engine with its dependencies.
type Server struct {
	deps   Deps
	engine *gin.Engine
	logger *slog.Logger
}

// New builds the router.
func New(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.ScanTimeout <= 0 {
		deps.ScanTimeout = 5 * time.Second
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), LoggingMiddleware(deps.Logger))
	if len(deps.CORSOrigins) > 0 {
		engine.Use(cors.New(cors.Config{
			AllowOrigins:     deps.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "DELETE"},
			AllowHeaders:     []string{"Authorization", "Content-Type"},
			ExposeHeaders:    []string{"Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	s := &Server{deps: deps, engine: engine, logger: deps.Logger}
	s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	r := s.engine

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok\n")
	})

	api := r.Group("/api")
	api.POST("/auth/signup", s.signup)
	api.POST("/auth/login", s.login)

	auth := api.Group("")
	auth.Use(AuthMiddleware(s.deps.Accounts))
	auth.GET("/auth/me", s.me)

	auth.GET("/caretakers", s.listCaretakers)
	auth.POST("/caretakers", s.addCaretaker)
	auth.DELETE("/caretakers/:id", s.deleteCaretaker)

	auth.GET("/reminders", s.listReminders)
	auth.POST("/reminders", s.addReminder)
	auth.POST("/reminders/:id/ack", s.ackReminder)
	auth.POST("/reminders/import", s.importReminders)
	auth.GET("/reminders/export", s.exportReminders)

	auth.GET("/monitors", s.listMonitors)
	for kind, m := range s.deps.Monitors {
		auth.POST("/monitors/"+kind, s.checkHandler(m))
	}

	auth.GET("/alerts", s.listAlerts)
	auth.GET("/alerts/ws", s.watchAlerts)

	auth.GET("/devices/scan", s.scanDevices)
	auth.GET("/stats", s.stats)
}
