package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/apexgas/commerce/internal/catalog"
	"github.com/apexgas/commerce/internal/checkout"
	checkoutdomain "github.com/apexgas/commerce/internal/checkout/domain"
	"github.com/apexgas/commerce/internal/config"
	"github.com/apexgas/commerce/internal/notification"
	"github.com/apexgas/commerce/internal/observability"
	"github.com/apexgas/commerce/internal/observability/logger"
	"github.com/apexgas/commerce/internal/observability/metrics"
	"github.com/apexgas/commerce/internal/order"
	orderdomain "github.com/apexgas/commerce/internal/order/domain"
	"github.com/apexgas/commerce/internal/purchase"
	purchasedomain "github.com/apexgas/commerce/internal/purchase/domain"
	"github.com/apexgas/commerce/internal/ratelimit"
)

func NewEngine(cfg config.Config, obs observability.Config, m *metrics.Metrics) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		Debug:           obs.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(metrics.GinMiddleware(m))
	r.Use(CORSMiddleware(cfg.AllowedOrigins))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": cfg.AppName,
			"version": cfg.AppVersion,
		})
	})
	r.GET("/metrics", gin.WrapH(m.Handler()))

	return r
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	catalog         *catalog.Holder
	orderSvc        orderdomain.Service
	checkoutSvc     checkoutdomain.Service
	purchaseSvc     purchasedomain.Service
	checkoutLimiter *ratelimit.CheckoutLimiter
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	Catalog         *catalog.Holder
	OrderSvc        orderdomain.Service
	CheckoutSvc     checkoutdomain.Service
	PurchaseSvc     purchasedomain.Service
	CheckoutLimiter *ratelimit.CheckoutLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		catalog:         p.Catalog,
		orderSvc:        p.OrderSvc,
		checkoutSvc:     p.CheckoutSvc,
		purchaseSvc:     p.PurchaseSvc,
		checkoutLimiter: p.CheckoutLimiter,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	orders := api.Group("/orders")
	orders.POST("/intent", s.RateLimited(), s.CreateOrderIntent)
	orders.POST("/capture", s.CaptureOrder)

	api.POST("/checkout/session", s.RateLimited(), s.CreateCheckoutSession)
	api.POST("/payments/webhooks/stripe", s.HandleStripeWebhook)
	api.POST("/forms/inquiry", s.RateLimited(), s.SubmitInquiry)

	purchases := api.Group("/purchases")
	purchases.GET("", s.ListPurchases)
	purchases.GET("/:id", s.GetPurchase)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
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

var Module = fx.Module("http.server",
	catalog.Module,
	purchase.Module,
	order.Module,
	notification.Module,
	checkout.Module,
	ratelimit.Module,

	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)
