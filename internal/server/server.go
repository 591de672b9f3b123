package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/rendezvous/internal/config"
	"github.com/smallbiznis/rendezvous/internal/governance/domain"
	"github.com/smallbiznis/rendezvous/internal/observability"
	obsmiddleware "github.com/smallbiznis/rendezvous/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/rendezvous/internal/observability/metrics"
	obstracing "github.com/smallbiznis/rendezvous/internal/observability/tracing"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	addr := strings.TrimSpace(cfg.HTTPAddr)
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server stopped", zap.String("addr", addr), zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	governanceSvc domain.Service
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	GovernanceSvc domain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		governanceSvc: p.GovernanceSvc,
	}
	svc.registerAdminRoutes()
	svc.registerFallback()
	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin")
	admin.Use(ActorRequired())

	// -------- Bookings --------
	admin.GET("/bookings", s.ListBookings)
	admin.POST("/bookings", s.CreateBooking)
	admin.GET("/bookings/:id", s.GetBooking)
	admin.POST("/bookings/:id/provider", s.AssignProvider)
	admin.POST("/bookings/:id/status", s.AdvanceBooking)

	// -------- Disputes --------
	admin.GET("/disputes", s.ListDisputes)
	admin.POST("/disputes", s.OpenDispute)
	admin.GET("/disputes/:id", s.GetDispute)
	admin.POST("/disputes/:id/assign", s.AssignDispute)
	admin.POST("/disputes/:id/status", s.TransitionDispute)
	admin.POST("/disputes/:id/resolve", s.ResolveDispute)
	admin.POST("/disputes/:id/escalate", s.EscalateDispute)

	// -------- Payouts --------
	admin.GET("/payouts", s.ListPayouts)
	admin.POST("/payouts", s.RequestPayout)
	admin.GET("/payouts/:id", s.GetPayout)
	admin.POST("/payouts/:id/preview", s.PreviewPayoutDecision)
	admin.POST("/payouts/:id/decision", s.DecidePayout)

	// -------- Price configs --------
	admin.GET("/price-configs", s.ListPriceConfigs)
	admin.POST("/price-configs", s.ProvisionPriceConfig)
	admin.GET("/price-configs/:module", s.GetPriceConfig)
	admin.PATCH("/price-configs/:module", s.UpdatePriceConfig)
	admin.POST("/price-configs/:module/preview", s.PreviewPriceConfigUpdate)
	admin.GET("/price-configs/:module/breakdown", s.PreviewBreakdown)

	// -------- Audit logs --------
	admin.GET("/audit-logs", s.ListAuditLogs)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorResponse{Error: errorPayload{
			Type:    "not_found",
			Message: "route not found",
		}})
	})
}
