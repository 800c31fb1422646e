package policy

import (
	"time"

	"github.com/diewo77/go-ppat/internal/audit"
	"github.com/diewo77/go-ppat/internal/handlers"
	"github.com/diewo77/go-ppat/internal/metrics"
	"github.com/diewo77/go-ppat/internal/services"
	"github.com/diewo77/go-ppat/internal/storage"
	"gorm.io/gorm"
)

// RouterOptions carries what the handlers need besides the database.
type RouterOptions struct {
	Store      *storage.Local
	Metrics    *metrics.Metrics
	Limits     services.Limits
	Dumper     handlers.Dumper
	ProfileTTL time.Duration
}

// RouterConfig holds configured handlers and middleware for the application.
type RouterConfig struct {
	// AuthGate provides authorization checks and middleware
	AuthGate *AuthGate

	AuthHandler      *handlers.AuthHandler
	ClientHandler    *handlers.ClientHandler
	OrderHandler     *handlers.OrderHandler
	PaymentHandler   *handlers.PaymentHandler
	OrderFileHandler *handlers.OrderFileHandler
	ExpenseHandler   *handlers.ExpenseHandler
	ScheduleHandler  *handlers.ScheduleHandler
	UserHandler      *handlers.UserHandler
	CompanyHandler   *handlers.CompanyHandler
	ReportHandler    *handlers.ReportHandler
	FileHandler      *handlers.FileHandler
	BackupHandler    *handlers.BackupHandler

	// Services
	UserService *services.UserService
	Feed        *audit.Feed
}

// NewRouterConfig wires the gate, the services and the handlers.
//
// Example usage in your main.go or router setup:
//
//	cfg := policy.NewRouterConfig(db, opts)
//	mux.Handle("GET /clients", cfg.AuthGate.RequirePermission("client", gate.ActionList)(http.HandlerFunc(cfg.ClientHandler.List)))
func NewRouterConfig(db *gorm.DB, opts RouterOptions) *RouterConfig {
	ttl := opts.ProfileTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	authGate := NewAuthGate(db, ttl)

	orders := services.NewOrderService(db, opts.Metrics)
	users := services.NewUserService(db, authGate.InvalidateUser)
	feed := services.NewActivityFeed(db)

	return &RouterConfig{
		AuthGate: authGate,

		AuthHandler:      handlers.NewAuthHandler(users, PermissionsFor),
		ClientHandler:    handlers.NewClientHandler(services.NewClientService(db), authGate),
		OrderHandler:     handlers.NewOrderHandler(orders, services.NewInvoiceService(db, orders)),
		PaymentHandler:   handlers.NewPaymentHandler(services.NewPaymentService(db, opts.Store, opts.Metrics, opts.Limits), authGate),
		OrderFileHandler: handlers.NewOrderFileHandler(services.NewOrderFileService(db, opts.Store, opts.Metrics, opts.Limits), authGate),
		ExpenseHandler:   handlers.NewExpenseHandler(services.NewExpenseService(db), authGate),
		ScheduleHandler:  handlers.NewScheduleHandler(services.NewScheduleService(db), authGate),
		UserHandler:      handlers.NewUserHandler(users, authGate),
		CompanyHandler:   handlers.NewCompanyHandler(services.NewCompanyService(db, opts.Store, opts.Metrics, opts.Limits), authGate),
		ReportHandler:    handlers.NewReportHandler(services.NewReportService(db), services.NewSearchService(db), feed),
		FileHandler:      handlers.NewFileHandler(opts.Store),
		BackupHandler:    handlers.NewBackupHandler(opts.Dumper, opts.Metrics),

		UserService: users,
		Feed:        feed,
	}
}
