package router

import (
	"time"

	"github.com/hoanggiatri/supply-chain-management-sub002/internal/config"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/gateway"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/handler"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/infra"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/middleware"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/model"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/repository"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/service"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, masterDataCB *infra.CircuitBreaker) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	masterData := gateway.NewMasterDataClient(cfg.MasterDataURL, masterDataCB)
	dispatcher := worker.NewDispatcher(rdb)

	// ── Repositories ─────────────────────────────────────────────────────────
	ledgerRepo := repository.NewLedgerRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	productionRepo := repository.NewProductionOrderRepository(db)
	transferRepo := repository.NewTransferRequestRepository(db)
	tradeRepo := repository.NewTradeOrderRepository(db)
	ticketRepo := repository.NewTicketRepository(db)
	deliveryRepo := repository.NewDeliveryOrderRepository(db)
	pipelineRepo := repository.NewPipelineRepository(db)
	bomRepo := repository.NewBOMRepository(db)
	accountRepo := repository.NewAccountRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(accountRepo, cfg.JWTSecret, cfg.JWTExpirationHours)
	availabilitySvc := service.NewAvailabilityService(ledgerRepo)
	documentSvc := service.NewDocumentService(productionRepo, transferRepo, tradeRepo, ticketRepo, deliveryRepo, movementRepo, masterData)
	fulfillmentSvc := service.NewFulfillmentService(
		db, ledgerRepo, productionRepo, transferRepo, tradeRepo, ticketRepo,
		deliveryRepo, pipelineRepo, bomRepo, masterData, dispatcher,
		cfg.OverproductionPct,
	)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	availabilityH := handler.NewAvailabilityHandler(availabilitySvc)
	documentsH := handler.NewDocumentsHandler(documentSvc)
	fulfillmentH := handler.NewFulfillmentHandler(fulfillmentSvc)
	pipelinesH := handler.NewPipelinesHandler(fulfillmentSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, masterDataCB))
	r.POST("/v1/auth/login", middleware.LoginRateLimiter(), authH.Login)

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		anyRole := middleware.RequireRole(middleware.RoleOperator, middleware.RoleSupervisor, middleware.RoleAdmin)
		supervisorUp := middleware.RequireRole(middleware.RoleSupervisor, middleware.RoleAdmin)
		adminOnly := middleware.RequireRole(middleware.RoleAdmin)

		// Advisory availability check
		v1.POST("/availability", anyRole, availabilityH.Check)

		// Production orders
		v1.POST("/production-orders", supervisorUp, documentsH.CreateProductionOrder)
		v1.GET("/production-orders/:id", anyRole, documentsH.GetProductionOrder)
		v1.POST("/production-orders/:id/confirm", supervisorUp, fulfillmentH.Confirm(model.DocProductionOrder))
		v1.POST("/production-orders/:id/cancel", supervisorUp, fulfillmentH.Cancel(model.DocProductionOrder))
		v1.POST("/production-orders/:id/stages/:stage_id/complete", anyRole, fulfillmentH.CompleteStage)
		v1.POST("/production-orders/:id/complete", supervisorUp, fulfillmentH.CompleteProduction)

		// Transfer requests
		v1.POST("/transfer-requests", supervisorUp, documentsH.CreateTransferRequest)
		v1.GET("/transfer-requests/:id", anyRole, documentsH.GetTransferRequest)
		v1.POST("/transfer-requests/:id/confirm", supervisorUp, fulfillmentH.Confirm(model.DocTransferRequest))

		// Trade orders (purchase side drives the pair)
		v1.POST("/purchase-orders", supervisorUp, documentsH.CreatePurchaseOrder)
		v1.GET("/purchase-orders/:id", anyRole, documentsH.GetPurchaseOrder)
		v1.POST("/purchase-orders/:id/confirm", supervisorUp, fulfillmentH.Confirm(model.DocPurchaseOrder))
		v1.POST("/purchase-orders/:id/cancel", supervisorUp, fulfillmentH.Cancel(model.DocPurchaseOrder))
		v1.GET("/sales-orders/:id", anyRole, documentsH.GetSalesOrder)

		// Warehouse tickets
		v1.GET("/issue-tickets/:id", anyRole, documentsH.GetIssueTicket)
		v1.POST("/issue-tickets/:id/execute", anyRole, fulfillmentH.Issue)
		v1.GET("/receive-tickets/:id", anyRole, documentsH.GetReceiveTicket)
		v1.POST("/receive-tickets/:id/execute", anyRole, fulfillmentH.Receive)

		// Delivery orders
		v1.GET("/delivery-orders/:id", anyRole, documentsH.GetDeliveryOrder)
		v1.POST("/delivery-orders/:id/confirm", anyRole, fulfillmentH.ConfirmDelivery)
		v1.POST("/delivery-orders/:id/pickup", anyRole, fulfillmentH.RecordPickup)
		v1.POST("/delivery-orders/:id/complete", anyRole, fulfillmentH.CompleteDelivery)

		// Ledger audit trail
		v1.GET("/stock-movements", anyRole, documentsH.ListMovements)

		// Reconciliation tooling
		v1.GET("/pipelines", supervisorUp, pipelinesH.List)
		v1.GET("/pipelines/:id", supervisorUp, pipelinesH.Get)
		v1.POST("/pipelines/:id/resolve", adminOnly, pipelinesH.Resolve)
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
