package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/hubspaces/billing/internal/billing"
	billingdomain "github.com/hubspaces/billing/internal/billing/domain"
	"github.com/hubspaces/billing/internal/config"
	"github.com/hubspaces/billing/internal/contracttemplate"
	templatedomain "github.com/hubspaces/billing/internal/contracttemplate/domain"
	"github.com/hubspaces/billing/internal/observability"
	obslogger "github.com/hubspaces/billing/internal/observability/logger"
	obsmetrics "github.com/hubspaces/billing/internal/observability/metrics"
	obstracing "github.com/hubspaces/billing/internal/observability/tracing"
	"github.com/hubspaces/billing/internal/providers/pdf"
	tenantdomain "github.com/hubspaces/billing/internal/tenant/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	billing.Module,
	contracttemplate.Module,
	pdf.Module,
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config, obsCfg observability.Config, log *zap.Logger, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() && !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(log, obslogger.MiddlewareConfig{Debug: obsCfg.Debug()}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": cfg.AppName,
			"version": cfg.AppVersion,
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type ServerParams struct {
	fx.In

	Engine      *gin.Engine
	Ops         *config.OperationalHolder
	BillingSvc  billingdomain.Service
	TenantSvc   tenantdomain.Service
	TemplateSvc templatedomain.Service
	PDF         pdf.Provider
}

type Server struct {
	engine      *gin.Engine
	ops         *config.OperationalHolder
	billingSvc  billingdomain.Service
	tenantSvc   tenantdomain.Service
	templateSvc templatedomain.Service
	pdf         pdf.Provider
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:      p.Engine,
		ops:         p.Ops,
		billingSvc:  p.BillingSvc,
		tenantSvc:   p.TenantSvc,
		templateSvc: p.TemplateSvc,
		pdf:         p.PDF,
	}
}

func registerRoutes(s *Server) {
	s.RegisterAPIRoutes()
}

// RegisterAPIRoutes mounts the v1 API.
func (s *Server) RegisterAPIRoutes() {
	v1 := s.engine.Group("/v1")

	tenants := v1.Group("/tenants/:type")
	tenants.GET("", s.ListTenants)
	tenants.POST("", s.CreateTenant)
	tenants.GET("/:id", s.GetTenant)
	tenants.PUT("/:id", s.UpdateTenant)
	tenants.DELETE("/:id", s.DeleteTenant)

	billingGroup := v1.Group("/billing")
	billingGroup.POST("/generate", s.GenerateMonthlyBilling)
	billingGroup.POST("/generate/:type/:id", s.GenerateTenantBilling)
	billingGroup.GET("", s.ListBillingRecords)
	billingGroup.GET("/statistics", s.GetBillingStatistics)
	billingGroup.POST("/overdue/sweep", s.SweepOverdueBilling)
	billingGroup.GET("/:id", s.GetBillingRecord)
	billingGroup.PATCH("/:id/status", s.UpdateBillingStatus)
	billingGroup.PATCH("/:id/fees", s.UpdateBillingFees)
	billingGroup.GET("/:id/statement", s.DownloadBillingStatement)

	templates := v1.Group("/templates")
	templates.GET("", s.ListContractTemplates)
	templates.POST("", s.CreateContractTemplate)
	templates.POST("/:id/activate", s.ActivateContractTemplate)
	templates.GET("/:id/render", s.RenderContractTemplate)
	templates.DELETE("/:id", s.DeleteContractTemplate)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
