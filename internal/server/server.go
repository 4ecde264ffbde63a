package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/kliring/reinsadmin/internal/audit/domain"
	"github.com/kliring/reinsadmin/internal/config"
	entitydomain "github.com/kliring/reinsadmin/internal/entity/domain"
	notifydomain "github.com/kliring/reinsadmin/internal/notify/domain"
	portaldomain "github.com/kliring/reinsadmin/internal/portal/domain"
	"github.com/kliring/reinsadmin/internal/reconcile"
	wfdomain "github.com/kliring/reinsadmin/internal/workflow/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(reg *prometheus.Registry) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	return r
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
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
	engine     *gin.Engine
	cfg        config.Config
	log        *zap.Logger
	store      entitydomain.Store
	portalSvc  portaldomain.Service
	workflow   wfdomain.Service
	reconciler reconcile.Service
	auditSvc   auditdomain.Service
	notifySvc  notifydomain.Service
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	Log        *zap.Logger
	Store      entitydomain.Store
	PortalSvc  portaldomain.Service
	Workflow   wfdomain.Service
	Reconciler reconcile.Service
	AuditSvc   auditdomain.Service
	NotifySvc  notifydomain.Service
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		log:        p.Log.Named("http.server"),
		store:      p.Store,
		portalSvc:  p.PortalSvc,
		workflow:   p.Workflow,
		reconciler: p.Reconciler,
		auditSvc:   p.AuditSvc,
		notifySvc:  p.NotifySvc,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	v1 := s.engine.Group("/v1", ActorContext())

	v1.POST("/transitions", s.ExecuteTransition)
	v1.GET("/entities/:type", s.ListEntities)
	v1.GET("/entities/:type/:id", s.GetEntity)
	v1.GET("/entities/:type/:id/transitions", s.ListAvailableTransitions)

	v1.POST("/contracts", s.CreateContract)
	v1.POST("/contracts/:id/revisions", s.ReviseContract)
	v1.GET("/contracts/:number/versions", s.ListContractVersions)
	v1.POST("/batches", s.CreateBatch)
	v1.GET("/batches/:id/debtors", s.ListBatchDebtors)
	v1.GET("/batches/:id/documents", s.ListBatchDocuments)
	v1.POST("/debtors", s.CreateDebtor)
	v1.POST("/documents", s.CreateDocument)
	v1.POST("/notas", s.CreateNota)
	v1.POST("/debit-credit-notes", s.CreateDebitCreditNote)
	v1.POST("/invoices", s.CreateInvoice)
	v1.POST("/payment-intents", s.SubmitPaymentIntent)
	v1.POST("/payments", s.RecordPayment)
	v1.POST("/invoices/:id/reconcile", s.ReconcileInvoice)
	v1.POST("/claims", s.CreateClaim)
	v1.POST("/subrogations", s.CreateSubrogation)

	v1.GET("/audit-logs", s.ListAuditLogs)
	v1.GET("/notifications", s.ListNotifications)
	v1.POST("/notifications/:id/read", s.MarkNotificationRead)
}
