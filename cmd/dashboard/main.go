package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/django/v3"
	"github.com/goliatone/go-router"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/theamal11z/grocerygunj-dashboard"
	"github.com/theamal11z/grocerygunj-dashboard/middleware/admingate"
	"github.com/theamal11z/grocerygunj-dashboard/repository"
	"github.com/theamal11z/grocerygunj-dashboard/supabase"
)

type App struct {
	cfg       supabase.Config
	logger    adminauth.Logger
	bunDB     *bun.DB
	store     *supabase.Store
	lifecycle *adminauth.Lifecycle
	diag      *adminauth.Diagnostics
	ledger    *adminauth.RouteRefreshLedger
	srv       router.Server[*fiber.App]
}

func main() {
	ctx := context.Background()

	app := &App{
		cfg:    supabase.FromEnv(),
		logger: NewAppLogger(),
		ledger: adminauth.NewRouteRefreshLedger(),
	}

	if err := WithAuditStore(ctx, app); err != nil {
		panic(err)
	}

	WithAuthLifecycle(ctx, app)
	WithHTTPServer(app)

	stop := app.lifecycle.StartAutoRefresh(ctx)
	defer stop()

	app.srv.Serve(listenAddr())

	WaitExitSignal()

	if err := app.bunDB.Close(); err != nil {
		app.logger.Warn("closing audit store: %v", err)
	}
}

// WithAuditStore opens the local sqlite audit trail and ensures its schema.
func WithAuditStore(ctx context.Context, app *App) error {
	dsn := os.Getenv("AUDIT_DB_PATH")
	if dsn == "" {
		dsn = "file:dashboard_audit.db?cache=shared"
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return fmt.Errorf("open audit store: %w", err)
	}

	app.bunDB = bun.NewDB(sqldb, sqlitedialect.New())

	if err := repository.CreateActivityTable(ctx, app.bunDB); err != nil {
		return fmt.Errorf("create activity table: %w", err)
	}

	return nil
}

// WithAuthLifecycle wires the credential store, the lifecycle, and the
// diagnostics. Missing backend configuration degrades: the process starts
// and requests fail at the network layer.
func WithAuthLifecycle(ctx context.Context, app *App) {
	app.store = supabase.NewStore(app.cfg, app.logger)

	standard := app.store.Standard()
	authAPI := supabase.NewAuthClient(standard)
	profiles := supabase.NewProfileClient(standard)
	verifier := supabase.NewVerifyClient(standard)

	sink := repository.NewBunActivitySink(
		repository.NewActivitiesRepository(app.bunDB),
		app.logger,
	)

	opts := []adminauth.LifecycleOption{
		adminauth.WithLifecycleLogger(app.logger),
		adminauth.WithLifecycleActivitySink(sink),
	}

	if validator, err := supabase.NewTokenValidator(app.cfg.URL, app.logger); err != nil {
		app.logger.Warn("token validation disabled: %v", err)
	} else {
		opts = append(opts, adminauth.WithTokenValidator(validator))
	}

	app.lifecycle = adminauth.NewLifecycle(authAPI, profiles, opts...)
	app.lifecycle.Initialize(ctx, nil)

	diagOpts := []adminauth.DiagnosticsOption{
		adminauth.WithDiagnosticsLogger(app.logger),
		adminauth.WithDiagnosticsActivitySink(sink),
		adminauth.WithDiagnosticsDebug(app.cfg.Debug),
	}

	if elevated, ok := app.store.Elevated(); ok {
		diagOpts = append(diagOpts, adminauth.WithProfileWriter(supabase.NewProfileClient(elevated)))
	}

	if hash := os.Getenv("ADMIN_REPAIR_KEY_HASH"); hash != "" {
		diagOpts = append(diagOpts, adminauth.WithOperatorKeyHash(hash))
	}

	app.diag = adminauth.NewDiagnostics(app.lifecycle, profiles, verifier, diagOpts...)
}

// WithHTTPServer mounts the sign-in flow plus the gated dashboard routes.
func WithHTTPServer(app *App) {
	engine := django.New("./views", ".html")

	app.srv = router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:      true,
			PassLocalsToViews: true,
			Views:             engine,
		}))
	})

	p := app.srv.Router()

	adminauth.RegisterAuthRoutes(p,
		adminauth.WithControllerLogger(app.logger),
		adminauth.WithControllerLifecycle(app.lifecycle),
		adminauth.WithControllerDiagnostics(app.diag),
		adminauth.WithControllerDebug(app.cfg.Debug),
	)

	gate := admingate.New(admingate.Config{
		Lifecycle: app.lifecycle,
		Ledger:    app.ledger,
		Logger:    app.logger,
	})

	p.Get("/", DashboardHome(app), gate)
	p.Get("/dashboard", DashboardHome(app), gate)
}

// DashboardHome is a placeholder landing page behind the gate; the real
// dashboard modules (products, orders, offers) mount the same way.
func DashboardHome(app *App) router.HandlerFunc {
	return func(ctx router.Context) error {
		snap, _ := adminauth.GetRouterSnapshot(ctx, "")
		email := ""
		remaining := ""
		if snap.Session != nil {
			email = snap.Session.Email
			remaining = snap.Session.Remaining(time.Now()).Round(time.Second).String()
		}

		return ctx.Render("dashboard", router.ViewContext{
			"email":     email,
			"remaining": remaining,
		})
	}
}

func listenAddr() string {
	if port := os.Getenv("PORT"); port != "" {
		return ":" + port
	}
	return ":8080"
}

func WaitExitSignal() os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	return <-quit
}

// NewAppLogger returns the process logger. Kept tiny on purpose; swap in a
// structured logger by satisfying adminauth.Logger.
func NewAppLogger() adminauth.Logger {
	return appLogger{}
}

type appLogger struct{}

func (appLogger) Debug(format string, args ...any) { fmt.Printf("[DBG] dashboard "+format+"\n", args...) }
func (appLogger) Info(format string, args ...any)  { fmt.Printf("[INF] dashboard "+format+"\n", args...) }
func (appLogger) Warn(format string, args ...any)  { fmt.Printf("[WRN] dashboard "+format+"\n", args...) }
func (appLogger) Error(format string, args ...any) { fmt.Printf("[ERR] dashboard "+format+"\n", args...) }
