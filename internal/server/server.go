// Package server exposes the billing API over HTTP. Handlers stay
// thin: bind, delegate to a domain service, map errors through the
// shared middleware.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Gustavo653/Snarf-sub000/internal/billing"
	billingdomain "github.com/Gustavo653/Snarf-sub000/internal/billing/domain"
	"github.com/Gustavo653/Snarf-sub000/internal/boleto"
	boletodomain "github.com/Gustavo653/Snarf-sub000/internal/boleto/domain"
	"github.com/Gustavo653/Snarf-sub000/internal/config"
	"github.com/Gustavo653/Snarf-sub000/internal/customer"
	customerdomain "github.com/Gustavo653/Snarf-sub000/internal/customer/domain"
	"github.com/Gustavo653/Snarf-sub000/internal/generator"
	"github.com/Gustavo653/Snarf-sub000/internal/invoice"
	invoicedomain "github.com/Gustavo653/Snarf-sub000/internal/invoice/domain"
	"github.com/Gustavo653/Snarf-sub000/internal/invoiceconfig"
	invoiceconfigdomain "github.com/Gustavo653/Snarf-sub000/internal/invoiceconfig/domain"
	"github.com/Gustavo653/Snarf-sub000/internal/jobs"
	"github.com/Gustavo653/Snarf-sub000/internal/migration"
	"github.com/Gustavo653/Snarf-sub000/internal/observability"
	obslogger "github.com/Gustavo653/Snarf-sub000/internal/observability/logger"
	obsmetrics "github.com/Gustavo653/Snarf-sub000/internal/observability/metrics"
	"github.com/Gustavo653/Snarf-sub000/internal/product"
	productdomain "github.com/Gustavo653/Snarf-sub000/internal/product/domain"
	"github.com/Gustavo653/Snarf-sub000/internal/providers"
	"github.com/Gustavo653/Snarf-sub000/internal/validator"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	migration.Module,
	jobs.Module,
	customer.Module,
	product.Module,
	invoice.Module,
	invoiceconfig.Module,
	providers.Module,
	boleto.Module,
	billing.Module,
	generator.Module,
	validator.Module,
	observability.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, log *zap.Logger, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Log:             log.Named("http"),
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, log *zap.Logger, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, log, httpMetrics)
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

type Server struct {
	engine           *gin.Engine
	customerSvc      customerdomain.Service
	productSvc       productdomain.Service
	invoiceSvc       invoicedomain.Service
	invoiceConfigSvc invoiceconfigdomain.Service
	billingSvc       billingdomain.Service
	gateway          boletodomain.Gateway
}

type ServerParams struct {
	fx.In

	Gin              *gin.Engine
	CustomerSvc      customerdomain.Service
	ProductSvc       productdomain.Service
	InvoiceSvc       invoicedomain.Service
	InvoiceConfigSvc invoiceconfigdomain.Service
	BillingSvc       billingdomain.Service
	Gateway          boletodomain.Gateway
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:           p.Gin,
		customerSvc:      p.CustomerSvc,
		productSvc:       p.ProductSvc,
		invoiceSvc:       p.InvoiceSvc,
		invoiceConfigSvc: p.InvoiceConfigSvc,
		billingSvc:       p.BillingSvc,
		gateway:          p.Gateway,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	customers := api.Group("/customers")
	{
		customers.POST("", s.CreateCustomer)
		customers.GET("", s.ListCustomers)
		customers.GET("/:customerId", s.GetCustomer)
		customers.PATCH("/:customerId", s.UpdateCustomer)
		customers.POST("/:customerId/products", s.AddCustomerProduct)
		customers.DELETE("/:customerId/products/:linkId", s.RemoveCustomerProduct)
	}

	products := api.Group("/products")
	{
		products.POST("", s.CreateProduct)
		products.GET("", s.ListProducts)
		products.GET("/:productId", s.GetProduct)
		products.PATCH("/:productId", s.UpdateProduct)
		products.DELETE("/:productId", s.ArchiveProduct)
	}

	invoices := api.Group("/invoices")
	{
		invoices.POST("", s.CreateInvoice)
		invoices.GET("", s.ListInvoices)
		invoices.GET("/:invoiceId", s.GetInvoice)
		invoices.PUT("/:invoiceId/items", s.SaveInvoice)
		invoices.POST("/:invoiceId/bill", s.BillInvoice)
		invoices.POST("/:invoiceId/cancel", s.CancelInvoice)
		invoices.GET("/:invoiceId/pdf", s.DownloadInvoicePdf)
		invoices.GET("/:invoiceId/bankslip.pdf", s.DownloadBankSlip)
	}

	configuration := api.Group("/invoice-configuration")
	{
		configuration.GET("", s.GetInvoiceConfiguration)
		configuration.PATCH("", s.UpdateInvoiceConfiguration)
	}
}
