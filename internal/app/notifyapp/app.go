package notifyapp

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ivankudzin/automarket/backend/internal/config"
	"github.com/ivankudzin/automarket/backend/internal/infra/natsbus"
	tginfra "github.com/ivankudzin/automarket/backend/internal/infra/telegram"
	pgrepo "github.com/ivankudzin/automarket/backend/internal/repo/postgres"
)

// App consumes notification effects from the bus and forwards them to
// Telegram. Several instances share the work through the queue group.
type App struct {
	cfg       config.Config
	logger    *zap.Logger
	postgres  *pgxpool.Pool
	bus       *natsbus.Bus
	forwarder *Forwarder
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("init postgres for notifier: %w", err)
	}

	bus, err := natsbus.Connect(cfg.NATS.URL, "automarket-notifier", cfg.NATS.Subject, logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init nats for notifier: %w", err)
	}

	var sender Sender
	if strings.TrimSpace(cfg.Telegram.Token) != "" {
		bot, err := tginfra.NewBot(cfg.Telegram.Token, cfg.Telegram.SendRate)
		if err != nil {
			bus.Close()
			pool.Close()
			return nil, fmt.Errorf("init telegram bot: %w", err)
		}
		sender = bot
	} else {
		logger.Warn("TELEGRAM_TOKEN is empty, notifications are logged only")
	}

	store := pgrepo.NewTxRunner(pool)

	return &App{
		cfg:       cfg,
		logger:    logger,
		postgres:  pool,
		bus:       bus,
		forwarder: NewForwarder(store.Accounts(), sender, logger),
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	sub, err := a.bus.SubscribeEffects(a.cfg.NATS.Queue, a.forwarder.Handle)
	if err != nil {
		return fmt.Errorf("subscribe notifications: %w", err)
	}
	a.logger.Info("notifier started",
		zap.String("subject", a.cfg.NATS.Subject),
		zap.String("queue", a.cfg.NATS.Queue),
	)

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		a.logger.Warn("drain notification subscription", zap.Error(err))
	}
	a.logger.Info("notifier stopped")
	return nil
}

func (a *App) Close() {
	if a.bus != nil {
		a.bus.Close()
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
}
