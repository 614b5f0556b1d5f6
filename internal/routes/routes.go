package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/caram-platform/caram-ledger/internal/accounting"
	"github.com/caram-platform/caram-ledger/internal/auth"
	"github.com/caram-platform/caram-ledger/internal/config"
	"github.com/caram-platform/caram-ledger/internal/contact"
	"github.com/caram-platform/caram-ledger/internal/middleware"
	"github.com/caram-platform/caram-ledger/internal/notification"
	"github.com/caram-platform/caram-ledger/internal/ride"
	"github.com/caram-platform/caram-ledger/internal/subscription"
	"github.com/caram-platform/caram-ledger/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes. With no
// database attached (dev mode only) every store falls back to its
// in-memory implementation.
func Setup(app *fiber.App, d Deps) error {
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	// Plain text access log: [HH:MM:SS] 200 -  145ms METHOD /path
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	// Stores
	var (
		books      accounting.Books
		cfgStore   accounting.ConfigStore
		keyRepo    auth.Repository
		walletRepo wallet.Repository
		entryRepo  wallet.EntryRepository
		contacts   contact.Repository
		rides      ride.Repository
		subs       subscription.Repository
		catalog    subscription.Catalog
	)
	if d.DB != nil {
		books = accounting.NewPostgresBooks(d.DB)
		cfgStore = accounting.NewPostgresConfigStore(d.DB)
		keyRepo = auth.NewPostgresRepository(d.DB)
		walletRepo = wallet.NewPostgresRepository(d.DB)
		entryRepo = wallet.NewPostgresEntryRepository(d.DB)
		contacts = contact.NewPostgresRepository(d.DB)
		rides = ride.NewPostgresRepository(d.DB)
		subs = subscription.NewPostgresRepository(d.DB)
		catalog = subscription.NewPostgresCatalog(d.DB)
	} else {
		memBooks := accounting.NewMemoryBooks()
		memBooks.SetDefaultReceivableAccount("AR")
		books = memBooks
		cfgStore = devConfigStore()
		keyRepo = auth.NewMemoryRepository()
		walletRepo = wallet.NewMemoryRepository()
		entryRepo = wallet.NewMemoryEntryRepository()
		contacts = contact.NewMemoryRepository()
		rides = ride.NewMemoryRepository()
		subs = subscription.NewMemoryRepository()
		catalog = devCatalog()
	}

	// Services
	factory := accounting.NewFactory(books, cfgStore)
	ledger := wallet.NewLedger(walletRepo, entryRepo, factory)
	directory := contact.NewDirectory(contacts)

	var notifier notification.Notifier
	if d.Cfg.PlatformBaseURL != "" {
		async := notification.NewAsyncNotifier(
			notification.NewPlatformNotifier(d.Cfg.PlatformBaseURL, d.Cfg.PlatformToken), d.Logger)
		app.Hooks().OnShutdown(func() error {
			async.Close()
			return nil
		})
		notifier = async
	} else {
		notifier = notification.NewLoggerNotifier(d.Logger)
	}

	authSvc := auth.NewService(keyRepo)
	walletSvc := wallet.NewService(walletRepo, entryRepo, ledger, factory, directory, notifier, d.Logger)
	contactSvc := contact.NewService(contacts, walletSvc, ledger, factory, d.Logger)
	rideSvc := ride.NewService(rides, walletSvc, directory, ride.NewEngine(ledger, factory), d.Logger)
	subSvc := subscription.NewService(subs, catalog, walletSvc, ledger, factory, directory, d.Logger)

	contactHandler := contact.NewHandler(contactSvc)
	walletHandler := wallet.NewHandler(walletSvc)
	rideHandler := ride.NewHandler(rideSvc)
	subHandler := subscription.NewHandler(subSvc)

	app.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// All API routes require a platform API key. Rate limiting and
	// idempotency run after auth so both can key per company.
	api := app.Group("/api", middleware.APIKeyAuth(authSvc))
	api.Use(middleware.RateLimit(d.Cache, d.Cfg.RateLimitPerMin))
	if d.Cache != nil {
		api.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	RegisterContactRoutes(api, contactHandler)
	RegisterWalletRoutes(api, walletHandler)
	RegisterRideRoutes(api, rideHandler)
	RegisterSubscriptionRoutes(api, subHandler)

	return nil
}

// devConfigStore serves placeholder accounting setup so the full flow is
// exercisable without Postgres.
func devConfigStore() accounting.ConfigStore {
	return accounting.StaticConfig{Config: accounting.CompanyConfig{
		CommissionProductID: "commission",
		FineProductID:       "fine",
		CouponProductID:     "coupon",
		PointsProductID:     "points",
		GeneralJournalID:    "GEN",
		PaymentJournals: map[string]string{
			accounting.MethodCash: "CASH",
			accounting.MethodBank: "BANK",
			accounting.MethodFund: "FUND",
			accounting.MethodTele: "TELE",
		},
		ExpenseAccountID:      "EXP",
		BankAccountID:         "BNK",
		BonusAccountID:        "BON",
		RiderWalletAccountID:  "RWA",
		DriverWalletAccountID: "DWA",
	}}
}

func devCatalog() subscription.Catalog {
	return subscription.NewMemoryCatalog(map[subscription.Type]subscription.Product{
		subscription.TypePrivate: {ProductID: "sub-private", Name: "Private subscription"},
		subscription.TypePinky:   {ProductID: "sub-pinky", Name: "Pinky subscription"},
		subscription.TypeVIP:     {ProductID: "sub-vip", Name: "VIP subscription"},
		subscription.TypeVan:     {ProductID: "sub-van", Name: "Van subscription"},
		subscription.TypeTaxi:    {ProductID: "sub-taxi", Name: "Taxi subscription"},
		subscription.TypeOther:   {ProductID: "sub-other", Name: "Subscription"},
	})
}
