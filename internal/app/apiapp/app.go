package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ivankudzin/automarket/backend/internal/config"
	"github.com/ivankudzin/automarket/backend/internal/domain/enums"
	"github.com/ivankudzin/automarket/backend/internal/infra/calendar"
	"github.com/ivankudzin/automarket/backend/internal/infra/natsbus"
	"github.com/ivankudzin/automarket/backend/internal/infra/pricing"
	"github.com/ivankudzin/automarket/backend/internal/jobs/expiry"
	"github.com/ivankudzin/automarket/backend/internal/repo"
	"github.com/ivankudzin/automarket/backend/internal/repo/memory"
	pgrepo "github.com/ivankudzin/automarket/backend/internal/repo/postgres"
	redrepo "github.com/ivankudzin/automarket/backend/internal/repo/redis"
	apptsvc "github.com/ivankudzin/automarket/backend/internal/services/appointments"
	authsvc "github.com/ivankudzin/automarket/backend/internal/services/auth"
	listingsvc "github.com/ivankudzin/automarket/backend/internal/services/listings"
	modsvc "github.com/ivankudzin/automarket/backend/internal/services/moderation"
	"github.com/ivankudzin/automarket/backend/internal/services/notify"
	ratesvc "github.com/ivankudzin/automarket/backend/internal/services/rate"
	reportsvc "github.com/ivankudzin/automarket/backend/internal/services/reports"
	txsvc "github.com/ivankudzin/automarket/backend/internal/services/transactions"
	"github.com/ivankudzin/automarket/backend/migrations"
)

const reportWindow = 10 * time.Minute

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	bus        *natsbus.Bus
	store      repo.TxRunner
	auth       *authsvc.Service
	dispatcher *notify.Dispatcher
	expiry     *expiry.Job
	jobsCtx    context.Context
	stopJobs   context.CancelFunc
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var (
		pool  *pgxpool.Pool
		store repo.TxRunner
	)
	if cfg.Postgres.DSN != "" {
		p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		if cfg.Postgres.Migrate {
			if err := pgrepo.Migrate(ctx, cfg.Postgres.DSN, migrations.FS, log); err != nil {
				p.Close()
				return nil, err
			}
		}
		pool = p
		store = pgrepo.NewTxRunner(p)
	} else {
		log.Warn("postgres dsn is empty, running on the in-memory store")
		store = memory.New()
	}

	var (
		redisClient   *goredis.Client
		dedup         notify.Deduper
		reportLimiter reportsvc.RateLimiter
	)
	if cfg.Redis.Addr != "" {
		redisClient = redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		dedup = redrepo.NewDedupRepo(redisClient)
		reportLimiter = ratesvc.NewLimiter(redrepo.NewRateRepo(redisClient), "report", cfg.Marketplace.ReportLimitPer10Min, reportWindow)
	} else {
		log.Warn("redis addr is empty, report rate limit disabled and effect dedup is process local")
	}

	dispatcher := notify.NewDispatcher(notify.Config{
		QueueSize:       cfg.Marketplace.Dispatcher.QueueSize,
		Workers:         cfg.Marketplace.Dispatcher.Workers,
		DedupTTL:        cfg.Marketplace.Dispatcher.DedupTTL,
		DeliveryTimeout: cfg.Marketplace.Dispatcher.DeliveryTimeout,
	}, dedup, log.Named("dispatcher"))
	dispatcher.Register(enums.EffectNotification, "inbox", notify.NewInboxSink(store.Notifications()))

	var bus *natsbus.Bus
	if cfg.NATS.URL != "" {
		b, err := natsbus.Connect(cfg.NATS.URL, "automarket-api", cfg.NATS.Subject, log)
		if err != nil {
			log.Warn("nats init failed, continuing without push fan-out", zap.Error(err))
		} else {
			bus = b
			dispatcher.Register(enums.EffectNotification, "bus", notify.NewBusSink(bus))
		}
	}

	if cfg.Calendar.BaseURL != "" {
		client, err := calendar.New(calendar.Config{
			BaseURL:             cfg.Calendar.BaseURL,
			APIKey:              cfg.Calendar.APIKey,
			Timeout:             cfg.Calendar.Timeout,
			ConsecutiveFailures: uint32(cfg.Calendar.ConsecutiveFailures),
			OpenTimeout:         cfg.Calendar.OpenTimeout,
		}, log)
		if err != nil {
			log.Warn("calendar init failed, calendar events disabled", zap.Error(err))
		} else {
			dispatcher.Register(enums.EffectCalendarEvent, "calendar", notify.NewCalendarSink(client, store.Accounts(), store.Transactions()))
		}
	}

	var advisor listingsvc.PriceAdvisor
	if cfg.Pricing.URL != "" {
		a, err := pricing.New(cfg.Pricing.URL, cfg.Pricing.Timeout)
		if err != nil {
			log.Warn("price advisor init failed, accepting all prices", zap.Error(err))
		} else {
			advisor = a
		}
	}

	dispatcher.Start(context.Background())

	reportIndex := reportsvc.NewIndex(reportsvc.Dependencies{
		Store:       store,
		RateLimiter: reportLimiter,
		Logger:      log,
	})
	moderationService := modsvc.NewService(modsvc.Dependencies{
		Store:   store,
		Reports: reportIndex,
		Effects: dispatcher,
		Logger:  log,
	})
	reportIndex.AttachCases(moderationService)
	listingService := listingsvc.NewService(listingsvc.Dependencies{
		Store:   store,
		Advisor: advisor,
		Cases:   moderationService,
		Logger:  log,
	})
	transactionService := txsvc.NewService(txsvc.Dependencies{
		Store:   store,
		Effects: dispatcher,
		Logger:  log,
	})
	appointmentService := apptsvc.NewService(apptsvc.Dependencies{
		Store:   store,
		Effects: dispatcher,
		Logger:  log,
	})
	authService := authsvc.NewService(authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL), store.Accounts())

	RegisterRoutes(r, Dependencies{
		AuthService:        authService,
		ListingService:     listingService,
		ReportIndex:        reportIndex,
		ModerationService:  moderationService,
		TransactionService: transactionService,
		AppointmentService: appointmentService,
		Notifications:      store.Notifications(),
		Logger:             log,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	jobsCtx, stopJobs := context.WithCancel(context.Background())

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		bus:        bus,
		store:      store,
		auth:       authService,
		dispatcher: dispatcher,
		expiry:     expiry.New(moderationService, cfg.Marketplace.ExpiryInterval, log),
		jobsCtx:    jobsCtx,
		stopJobs:   stopJobs,
		httpRouter: r,
	}, nil
}

// Run serves HTTP and runs the suspension expiry loop until Shutdown.
func (a *App) Run() error {
	go a.expiry.Loop(a.jobsCtx)

	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	a.stopJobs()
	if err := a.dispatcher.Close(ctx); err != nil && shutdownErr == nil {
		shutdownErr = err
	}
	if a.bus != nil {
		a.bus.Close()
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}

// Store exposes the unit of work the services run on. Used to seed accounts,
// which are owned by the identity provider.
func (a *App) Store() repo.TxRunner {
	return a.store
}

func (a *App) Auth() *authsvc.Service {
	return a.auth
}
