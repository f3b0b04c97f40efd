package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hasapchy/back-sub001/internal/app"
	"github.com/hasapchy/back-sub001/internal/core/tenant"
	"github.com/hasapchy/back-sub001/internal/domain/documents"
	"github.com/hasapchy/back-sub001/internal/domain/documents/movement"
	"github.com/hasapchy/back-sub001/internal/domain/documents/order"
	"github.com/hasapchy/back-sub001/internal/domain/documents/receipt"
	"github.com/hasapchy/back-sub001/internal/domain/documents/sale"
	"github.com/hasapchy/back-sub001/internal/domain/documents/writeoff"
	"github.com/hasapchy/back-sub001/internal/infrastructure/http/v1/dto"
	"github.com/hasapchy/back-sub001/internal/infrastructure/http/v1/handlers"
	"github.com/hasapchy/back-sub001/internal/infrastructure/http/v1/middleware"
	"github.com/hasapchy/back-sub001/internal/infrastructure/storage/postgres"
	"github.com/hasapchy/back-sub001/pkg/logger"
)

const (
	RoleAdmin      = "admin"
	RoleAccountant = "accountant"
	RoleCashier    = "cashier"
	RoleStorekeep  = "storekeeper"
)

// RouterConfig holds what the router needs.
type RouterConfig struct {
	TenantManager *tenant.Manager
	// MetaPool backs the readiness probe.
	MetaPool     *pgxpool.Pool
	Logger       *logger.Logger
	JWTValidator middleware.JWTValidator
	Services     *app.Services
	TxOptions    postgres.TxOptions
	// Idempotency is nil when the middleware is disabled.
	Idempotency *postgres.IdempotencyStore
	AuditLog    *postgres.AuditLog
	Release     bool
}

// NewRouter builds the gin engine.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	if cfg.Release {
		gin.SetMode(gin.ReleaseMode)
	}
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := dto.RegisterValidators(v); err != nil {
			return nil, err
		}
	}

	router := gin.New()

	// order matters: the error handler must see errors from recovery
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Recovery())

	health := handlers.NewHealthHandler(cfg.MetaPool)
	router.GET("/health/live", health.Live)
	router.GET("/health/ready", health.Ready)

	api := router.Group("/api/v1")
	api.Use(middleware.TenantDB(cfg.TenantManager, cfg.TxOptions))
	api.Use(middleware.Auth(cfg.JWTValidator))
	if cfg.Idempotency != nil {
		api.Use(middleware.Idempotency(cfg.Idempotency))
	}

	base := handlers.NewBaseHandler()
	registerCurrencyRoutes(api, base, cfg.Services)
	registerCashRoutes(api, base, cfg.Services)
	registerStockRoutes(api, base, cfg.Services)
	registerDocumentRoutes(api, base, cfg.Services)
	if cfg.AuditLog != nil {
		audit := handlers.NewAuditHandler(base, cfg.AuditLog)
		api.GET("/audit/:type/:id", middleware.RequireRole(RoleAccountant), audit.History)
	}

	return router, nil
}

func registerCurrencyRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, svc *app.Services) {
	h := handlers.NewCurrencyHandler(base, svc.Currencies, svc.Pricing)
	manage := middleware.RequireRole(RoleAccountant)

	currencies := rg.Group("/currencies")
	currencies.GET("", h.List)
	currencies.POST("", manage, h.Create)
	currencies.GET("/convert", h.Convert)
	currencies.GET("/:id/rates", h.History)
	currencies.POST("/:id/rates", manage, h.SetRate)
	currencies.GET("/:id/rate", h.Rate)
	currencies.POST("/:id/default", manage, h.SetDefault)

	r := handlers.NewRoundingHandler(base, svc.Rounding)
	rg.GET("/rounding-policy", r.Get)
	rg.PUT("/rounding-policy", manage, r.Update)
}

func registerCashRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, svc *app.Services) {
	manage := middleware.RequireRole(RoleAccountant)

	regs := handlers.NewCashRegisterHandler(base, svc.Registers)
	g := rg.Group("/cash-registers")
	g.GET("", regs.List)
	g.POST("", manage, regs.Create)
	g.GET("/:id", regs.Get)
	g.PATCH("/:id", manage, regs.Update)
	g.DELETE("/:id", manage, regs.Delete)
	g.GET("/:id/reconcile", regs.Reconcile)

	// register access is checked by the services per register
	tx := handlers.NewTransactionHandler(base, svc.Transactions)
	g = rg.Group("/transactions")
	g.GET("", tx.List)
	g.POST("", tx.Create)
	g.GET("/:id", tx.Get)
	g.PUT("/:id", tx.Update)
	g.DELETE("/:id", tx.Delete)
	g.POST("/:id/reverse", tx.Reverse)

	tr := handlers.NewTransferHandler(base, svc.Transfers)
	g = rg.Group("/transfers")
	g.GET("", tr.List)
	g.POST("", tr.Create)
	g.GET("/:id", tr.Get)
	g.PUT("/:id", tr.Update)
	g.DELETE("/:id", tr.Delete)

	cb := handlers.NewClientBalanceHandler(base, svc.ClientBalances)
	g = rg.Group("/clients/:id/balance")
	g.GET("", cb.Get)
	g.POST("", manage, cb.Open)
	g.POST("/adjustments", manage, cb.Adjust)
}

func registerStockRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, svc *app.Services) {
	h := handlers.NewStockHandler(base, svc.Stock)
	manage := middleware.RequireRole(RoleStorekeep)

	rg.GET("/stock/balances", h.Balances)
	rg.GET("/stock/movements", h.Movements)
	rg.POST("/stock/adjustments", manage, h.Adjust)

	rg.GET("/products", h.Products)
	rg.POST("/products", manage, h.CreateProduct)
	rg.GET("/warehouses", h.Warehouses)
	rg.POST("/warehouses", manage, h.CreateWarehouse)
}

func registerDocumentRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, svc *app.Services) {
	RegisterDocumentRoutes(rg.Group("/sales"),
		handlers.NewDocumentHandler[*sale.Sale, documents.TradeInput, dto.TradeRequest](base, svc.Sales),
		RoleCashier, RoleAccountant)
	RegisterDocumentRoutes(rg.Group("/orders"),
		handlers.NewDocumentHandler[*order.Order, documents.TradeInput, dto.TradeRequest](base, svc.Orders),
		RoleCashier, RoleAccountant)
	RegisterDocumentRoutes(rg.Group("/receipts"),
		handlers.NewDocumentHandler[*receipt.Receipt, documents.TradeInput, dto.TradeRequest](base, svc.Receipts),
		RoleStorekeep, RoleAccountant)
	RegisterDocumentRoutes(rg.Group("/write-offs"),
		handlers.NewDocumentHandler[*writeoff.WriteOff, writeoff.Input, dto.WriteOffRequest](base, svc.WriteOffs),
		RoleStorekeep)
	RegisterDocumentRoutes(rg.Group("/movements"),
		handlers.NewDocumentHandler[*movement.Movement, movement.Input, dto.MovementRequest](base, svc.Movements),
		RoleStorekeep)
}
