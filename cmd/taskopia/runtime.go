package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskopia/taskopia/internal/adapters/server/events"
	"github.com/taskopia/taskopia/internal/adapters/storage/redisstore"
	"github.com/taskopia/taskopia/internal/adapters/storage/sqlite"
	"github.com/taskopia/taskopia/internal/app"
	"github.com/taskopia/taskopia/internal/config"
	"github.com/taskopia/taskopia/internal/platform"
	"github.com/taskopia/taskopia/internal/seed"
)

// runtimeEnv is the opened store, service and logger of one command.
type runtimeEnv struct {
	opts    rootOptions
	cfg     config.Config
	logger  *runtimeLogger
	repo    *sqlite.Repository
	svc     *app.Service
	hub     *events.Hub
	closers []func() error
}

// envOptions selects the optional pieces a command needs.
type envOptions struct {
	// withHub attaches a change-event hub to the service.
	withHub bool
	// muteConsole keeps logs off the terminal, for the TUI.
	muteConsole bool
	// skipSeed disables seed_on_empty for commands that seed on their own.
	skipSeed bool
}

// resolveConfigAndDB applies flag, then env, then platform defaults.
func resolveConfigAndDB(opts rootOptions, paths platform.Paths) (configPath, dbPath string, dbOverridden bool) {
	overrides := platform.Overrides{
		ConfigPath: firstNonEmpty(opts.configPath, os.Getenv("TASKOPIA_CONFIG")),
		DBPath:     firstNonEmpty(opts.dbPath, os.Getenv("TASKOPIA_DB_PATH")),
	}
	resolved := paths.Apply(overrides)
	return resolved.ConfigPath, resolved.DBPath, overrides.DBPath != ""
}

func openRuntime(ctx context.Context, opts rootOptions, command string, stderr io.Writer, eo envOptions) (*runtimeEnv, error) {
	paths, err := platform.DefaultPathsWithOptions(platform.Options{AppName: opts.appName, DevMode: opts.devMode})
	if err != nil {
		return nil, err
	}
	configPath, dbPath, dbOverridden := resolveConfigAndDB(opts, paths)

	cfg, err := config.Load(configPath, config.Default(dbPath))
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", configPath, err)
	}
	if dbOverridden {
		cfg.Database.Path = dbPath
	}

	logger, err := newRuntimeLogger(stderr, opts.appName, cfg.Logging.Level, opts.devMode, paths.LogPath)
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	if eo.muteConsole {
		logger.SetConsoleEnabled(false)
	}
	env := &runtimeEnv{
		opts:   opts,
		cfg:    cfg,
		logger: logger,
	}

	logger.Info("startup configuration resolved", "app", opts.appName, "dev_mode", opts.devMode, "command", command)
	logger.Debug("runtime paths resolved", "config_path", configPath, "data_dir", paths.DataDir, "db_path", cfg.Database.Path)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}

	logger.Info("opening sqlite repository", "db_path", cfg.Database.Path)
	repo, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("sqlite open failed", "db_path", cfg.Database.Path, "err", err)
		_ = logger.Close()
		return nil, fmt.Errorf("open sqlite repository: %w", err)
	}
	env.repo = repo

	var notifier app.ChangeNotifier
	if eo.withHub {
		env.hub = events.NewHub(logger.Console().WithPrefix("events"))
		notifier = env.hub
	}
	env.svc = app.NewService(repo, uuid.NewString, nil, app.ServiceConfig{Notifier: notifier})

	if cfg.Board.SeedOnEmpty && !eo.skipSeed {
		if _, err := env.seed(ctx); err != nil {
			env.Close()
			return nil, err
		}
	}
	return env, nil
}

// seed installs the demo dataset into an empty store.
func (e *runtimeEnv) seed(ctx context.Context) (bool, error) {
	ds, err := seed.Load(time.Now())
	if err != nil {
		return false, fmt.Errorf("load seed dataset: %w", err)
	}
	seeded, err := e.svc.Seed(ctx, ds.Accounts, ds.Board)
	if err != nil {
		e.logger.Error("seed failed", "err", err)
		return false, fmt.Errorf("seed board: %w", err)
	}
	if seeded {
		e.logger.Info("seeded empty store", "accounts", len(ds.Accounts), "tasks", ds.Board.Len())
	}
	return seeded, nil
}

// sessionStore opens the configured backend for the persisted sign-in record.
func (e *runtimeEnv) sessionStore(ctx context.Context) (app.SessionStore, error) {
	switch e.cfg.Session.Backend {
	case config.SessionBackendRedis:
		e.logger.Info("connecting redis session store", "addr", e.cfg.Session.RedisAddr, "db", e.cfg.Session.RedisDB)
		client, err := dialRedis(ctx, e.cfg.Session.RedisAddr, e.cfg.Session.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("open redis session store: %w", err)
		}
		e.closers = append(e.closers, client.Close)
		return redisstore.New(client, redisstore.Options{Prefix: e.opts.appName + ":"}), nil
	default:
		return e.repo.Sessions(), nil
	}
}

// newSession builds the UI session over the configured store.
func (e *runtimeEnv) newSession(ctx context.Context) (*app.Session, error) {
	store, err := e.sessionStore(ctx)
	if err != nil {
		return nil, err
	}
	return app.NewSession(e.svc, store, app.SessionConfig{
		Key:           e.cfg.Session.Key,
		LoginDelay:    e.cfg.Auth.LoginDelay.Std(),
		InviteDelay:   e.cfg.Auth.InviteDelay.Std(),
		InviteBaseURL: e.cfg.Auth.InviteBaseURL,
	}), nil
}

// tokenSecret returns the configured API token secret or a random one for this process.
func (e *runtimeEnv) tokenSecret() (string, error) {
	if secret := strings.TrimSpace(e.cfg.Auth.TokenSecret); secret != "" {
		return secret, nil
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token secret: %w", err)
	}
	e.logger.Warn("auth.token_secret is empty; tokens will not survive a restart")
	return hex.EncodeToString(buf), nil
}

// Close releases the store, any extra clients and the log file.
func (e *runtimeEnv) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			e.logger.Warn("close failed", "err", err)
		}
	}
	if e.repo != nil {
		if err := e.repo.Close(); err != nil {
			e.logger.Warn("sqlite close failed", "db_path", e.cfg.Database.Path, "err", err)
		}
	}
	_ = e.logger.Close()
}
