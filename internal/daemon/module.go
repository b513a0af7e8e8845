package daemon

import (
	"context"
	"fmt"

	"github.com/mvasques/ripple/internal/bus"
	"github.com/mvasques/ripple/internal/config"
	"github.com/mvasques/ripple/internal/conn"
	"github.com/mvasques/ripple/internal/lock"
	"github.com/mvasques/ripple/internal/logging"
	"github.com/mvasques/ripple/internal/profile"
	"github.com/mvasques/ripple/internal/store"
	intsync "github.com/mvasques/ripple/internal/sync"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved profile configuration passed to the fx module.
type Params struct {
	Profile string
	FeedURL string // optional override for testing; empty = use config
}

// Module returns the fx module for the daemon, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideConfig,
			provideBus,
			provideStateMachine,
			provideLock,
			provideStore,
			provideDialer,
			provideCoordinator,
			provideManager,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(profile.LogPath(p.Profile), p.Profile)
}

func provideConfig(logger *zap.Logger) *config.Config {
	cfg, err := config.Load(profile.ConfigPath())
	if err != nil {
		logger.Info("no config file, using defaults", zap.String("path", profile.ConfigPath()))
		return config.Default()
	}
	return cfg
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *conn.Machine {
	return conn.NewMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := profile.EnsureDir(p.Profile); err != nil {
		return nil, err
	}
	logger.Info("acquiring profile lock", zap.String("profile", p.Profile))
	l, err := lock.Acquire(profile.Dir(p.Profile))
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired")
	return l, nil
}

func provideStore(p Params, cfg *config.Config, logger *zap.Logger) (*store.DB, error) {
	dbPath := profile.DBPath(p.Profile)
	db, err := store.Open(dbPath, store.IdentityCipher())
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}

	if cfg.Seed.Conversations > 0 {
		if err := db.Provision(seedTitle, cfg.Seed.Conversations, cfg.Seed.Messages, cfg.Seed.Window()); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

// seedTitle names first-run conversations.
func seedTitle(i int) string {
	return fmt.Sprintf("Chat %02d", i+1)
}

func provideDialer() conn.Dialer {
	return conn.NewWebsocketDialer()
}

func provideCoordinator(db *store.DB, b *bus.Bus, logger *zap.Logger) *intsync.Coordinator {
	return intsync.New(db, b, logger)
}

func provideManager(p Params, cfg *config.Config, dialer conn.Dialer, coordinator *intsync.Coordinator, machine *conn.Machine, logger *zap.Logger) *conn.Manager {
	url := cfg.Feed.URL
	if p.FeedURL != "" {
		url = p.FeedURL
	}
	return conn.NewManager(conn.Options{
		URL:          url,
		PingInterval: cfg.Feed.PingInterval(),
		PongTimeout:  cfg.Feed.PongTimeout(),
	}, dialer, coordinator, machine, logger)
}

func registerLifecycle(lc fx.Lifecycle, lk *lock.Lock, db *store.DB, coordinator *intsync.Coordinator, manager *conn.Manager, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			// Coordinator first, so the view exists before events arrive.
			coordinator.Start(context.Background())
			if err := coordinator.Refresh(); err != nil {
				return err
			}
			manager.Start()
			logger.Info("daemon started")
			return nil
		},
		OnStop: func(_ context.Context) error {
			manager.Stop()
			coordinator.Stop()
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			return nil
		},
	})
}
