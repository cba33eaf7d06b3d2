package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/soyeahso/intentd/internal/config"
	"github.com/soyeahso/intentd/internal/domain"
	"github.com/soyeahso/intentd/internal/index"
	"github.com/soyeahso/intentd/internal/intent"
	"github.com/soyeahso/intentd/internal/logging"
	"github.com/soyeahso/intentd/internal/store"
)

// errNeedsGateway is returned when a command runs outside the server but the
// configured index only exists inside it.
var errNeedsGateway = errors.New(`index.kind "host" needs a running gateway, use "intentd serve" and the donation.donate RPC`)

// loadConfig reads and validates the config file.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(paths.Config)
	if err != nil {
		return cfg, err
	}
	if issues := config.Validate(&cfg); len(issues) > 0 {
		for _, issue := range issues {
			log.Error().Str("path", issue.Path).Msg(issue.Message)
		}
		return cfg, fmt.Errorf("config validation failed with %d issue(s)", len(issues))
	}
	return cfg, nil
}

// openLogger builds the root logger from config. The --log-level flag wins
// over logging.level.
func openLogger(cfg config.Config) (*logging.Logger, io.Closer, error) {
	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	return logging.Open(logging.Options{
		Level: level,
		Style: cfg.Logging.ConsoleStyle,
		File:  cfg.Logging.File,
	})
}

// openRepository opens the configured conversation store. The returned
// close func is never nil.
func openRepository(cfg config.Config, logger *logging.Logger) (store.Repository, func() error, error) {
	switch cfg.Store.Kind {
	case "memory":
		logger.Info().Msg("using in-memory conversation store")
		return store.NewMemoryStore(), func() error { return nil }, nil
	default:
		dbPath := paths.StorePath(cfg.Store)
		db, err := store.Open(dbPath, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("opening database: %w", err)
		}
		logger.Info().Str("path", dbPath).Msg("using SQLite conversation store")
		return store.NewSQLiteConversationStore(db), db.Close, nil
	}
}

// persistentRepository opens the store for commands that edit it. Edits to
// a memory store would be lost on exit.
func persistentRepository(cfg config.Config, logger *logging.Logger) (store.Repository, func() error, error) {
	if cfg.Store.Kind == "memory" {
		return nil, nil, errors.New(`store.kind is "memory", nothing would be saved`)
	}
	return openRepository(cfg, logger)
}

// openIndex builds the configured suggestion index. host is used for the
// "host" kind and may be nil outside the server.
func openIndex(ctx context.Context, cfg config.Config, host domain.SuggestionIndex, logger *logging.Logger) (domain.SuggestionIndex, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Index.Kind {
	case "redis":
		client, err := index.OpenRedis(ctx, index.RedisOptions{
			Addr:     cfg.Index.Redis.Addr,
			Password: cfg.Index.Redis.Password,
			DB:       cfg.Index.Redis.DB,
		})
		if err != nil {
			return nil, nil, err
		}
		logger.Info().Str("addr", cfg.Index.Redis.Addr).Dur("ttl", cfg.Index.Redis.TTL).Msg("using Redis suggestion index")
		return index.NewRedisIndex(client, cfg.Index.Redis.TTL), client.Close, nil
	case "host":
		if host == nil {
			return nil, nil, errNeedsGateway
		}
		logger.Info().Msg("delivering donations to connected hosts")
		return host, noop, nil
	case "none":
		logger.Info().Msg("suggestion index disabled, donations will be dropped")
		return index.Disabled{}, noop, nil
	default:
		return index.NewMemoryIndex(), noop, nil
	}
}

func newBuilder(cfg config.Config) intent.Builder {
	return intent.Builder{MaxSpokenNames: cfg.Donation.MaxSpokenNames}
}

// withRepository runs fn against the persistent store and closes it.
func withRepository(fn func(repo store.Repository) error) error {
	return withRepositoryConfig(func(_ config.Config, repo store.Repository) error {
		return fn(repo)
	})
}

func withRepositoryConfig(fn func(cfg config.Config, repo store.Repository) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	repo, closeRepo, err := persistentRepository(cfg, log)
	if err != nil {
		return err
	}
	defer closeRepo()
	return fn(cfg, repo)
}
