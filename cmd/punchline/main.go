package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	rdb "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/punchline-api/punchline/internal/cache"
	"github.com/punchline-api/punchline/internal/config"
	authctrl "github.com/punchline-api/punchline/internal/http/controllers/auth"
	"github.com/punchline-api/punchline/internal/http/controllers/content"
	"github.com/punchline-api/punchline/internal/http/providers"
	"github.com/punchline-api/punchline/internal/http/providers/facebook"
	"github.com/punchline-api/punchline/internal/http/providers/google"
	"github.com/punchline-api/punchline/internal/http/providers/microsoft"
	"github.com/punchline-api/punchline/internal/http/router"
	authsvc "github.com/punchline-api/punchline/internal/http/services/auth"
	"github.com/punchline-api/punchline/internal/http/services/session"
	"github.com/punchline-api/punchline/internal/identity"
	"github.com/punchline-api/punchline/internal/metrics"
	"github.com/punchline-api/punchline/internal/observability/logger"
	"github.com/punchline-api/punchline/internal/rate"
	"github.com/punchline-api/punchline/internal/store/core"
	"github.com/punchline-api/punchline/internal/store/memory"
	"github.com/punchline-api/punchline/internal/store/pg"
)

func main() {
	_ = godotenv.Load()

	var configPath string

	root := &cobra.Command{
		Use:   "punchline",
		Short: "Jokes API with social login",
	}
	root.PersistentFlags().StringVar(&configPath, "config", envOr("CONFIG_PATH", "config.yaml"), "path to config.yaml")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return serve(cfg)
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the postgres schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return migrate(cfg)
		},
	}

	root.AddCommand(serveCmd, migrateCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func serve(cfg *config.Config) error {
	logger.Init(logger.Config{Env: cfg.App.Env, Level: envOr("LOG_LEVEL", "info")})
	defer func() { _ = logger.Sync() }()
	log := logger.With(logger.Component("main"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	cacheClient, err := cache.New(cache.Config{
		Driver:   cfg.Cache.Driver,
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Prefix:   cfg.Cache.Prefix,
	})
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer func() { _ = cacheClient.Close() }()

	registry := providers.NewRegistry()
	registry.RegisterFactory(google.ProviderName, google.Factory)
	registry.RegisterFactory(microsoft.ProviderName, microsoft.Factory)
	registry.RegisterFactory(facebook.ProviderName, facebook.Factory)

	providerConfigs := enabledProviders(cfg)
	log.Info("providers configured", logger.Int("enabled", len(providerConfigs)))

	tokens := session.NewService(session.Config{
		Issuer:       cfg.Session.Issuer,
		Audience:     cfg.Session.Audience,
		SigningKey:   []byte(cfg.Session.SigningKey),
		CookieName:   cfg.Session.CookieName,
		CookieDomain: cfg.Session.CookieDomain,
		CookieTTL:    config.Duration(cfg.Session.CookieTTL),
		Secure:       cfg.Session.Secure,
	})

	resolver := identity.NewResolver(store.Users())

	services := authsvc.NewServices(authsvc.Deps{
		Registry:        registry,
		ProviderConfigs: providerConfigs,
		Cache:           cacheClient,
		Resolver:        resolver,
		Tokens:          tokens,
		StateTTL:        config.Duration(cfg.Providers.StateTTL),
	})

	authLimiter, apiLimiter := buildLimiters(cfg)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(cfg.Metrics.Namespace)
	}

	handler := router.New(router.Deps{
		Start:       authctrl.NewStartController(services.Start),
		Callback:    authctrl.NewCallbackController(services.Callback, tokens),
		Logout:      authctrl.NewLogoutController(services.Logout, tokens),
		Me:          authctrl.NewMeController(store.Users()),
		Jokes:       content.NewJokesController(store.Jokes(), cacheClient),
		Tokens:      tokens,
		Metrics:     m,
		AuthLimiter: authLimiter,
		APILimiter:  apiLimiter,
		Ready: func(r *http.Request) error {
			pingCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := store.Ping(pingCtx); err != nil {
				return fmt.Errorf("store: %w", err)
			}
			if err := cacheClient.Ping(pingCtx); err != nil {
				return fmt.Errorf("cache: %w", err)
			}
			return nil
		},
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  config.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: config.Duration(cfg.Server.WriteTimeout),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", logger.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Duration(cfg.Server.ShutdownTimeout))
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func migrate(cfg *config.Config) error {
	logger.Init(logger.Config{Env: cfg.App.Env, Level: envOr("LOG_LEVEL", "info")})
	defer func() { _ = logger.Sync() }()

	if cfg.Storage.Driver != "postgres" {
		return fmt.Errorf("migrate requires the postgres storage driver")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := pg.Open(ctx, pgConfig(cfg))
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return err
	}
	logger.L().Info("migrations applied")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (core.Store, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		store, err := pg.Open(ctx, pgConfig(cfg))
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		return store, nil
	case "memory":
		store := memory.New()
		seedJokes(store)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func pgConfig(cfg *config.Config) pg.Config {
	var lifetime time.Duration
	if cfg.Storage.Postgres.ConnMaxLifetime != "" {
		lifetime = config.Duration(cfg.Storage.Postgres.ConnMaxLifetime)
	}
	return pg.Config{
		DSN:             cfg.Storage.Postgres.DSN,
		MaxConns:        int32(cfg.Storage.Postgres.MaxConns),
		ConnMaxLifetime: lifetime,
	}
}

func enabledProviders(cfg *config.Config) map[string]providers.Config {
	out := make(map[string]providers.Config)
	add := func(name string, pc config.ProviderConfig) {
		if !pc.Enabled || pc.ClientID == "" {
			return
		}
		out[name] = providers.Config{
			ClientID:     pc.ClientID,
			ClientSecret: pc.ClientSecret,
			RedirectURI:  pc.RedirectURI,
			Scopes:       pc.Scopes,
		}
	}
	add(google.ProviderName, cfg.Providers.Google)
	add(microsoft.ProviderName, cfg.Providers.Microsoft)
	add(facebook.ProviderName, cfg.Providers.Facebook)
	return out
}

func buildLimiters(cfg *config.Config) (rate.Limiter, rate.Limiter) {
	if !cfg.Rate.Enabled {
		return nil, nil
	}

	authWindow := config.Duration(cfg.Rate.Auth.Window)
	apiWindow := config.Duration(cfg.Rate.API.Window)

	if cfg.Cache.Driver == "redis" {
		client := rdb.NewClient(&rdb.Options{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		return rate.NewRedisLimiter(client, cfg.Cache.Prefix+":rl:auth:", cfg.Rate.Auth.Limit, authWindow),
			rate.NewRedisLimiter(client, cfg.Cache.Prefix+":rl:api:", cfg.Rate.API.Limit, apiWindow)
	}

	return rate.NewMemoryLimiter(cfg.Rate.Auth.Limit, authWindow),
		rate.NewMemoryLimiter(cfg.Rate.API.Limit, apiWindow)
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// seedJokes gives the memory driver something to serve in development.
func seedJokes(store *memory.Store) {
	now := time.Now().UTC()
	for i, text := range []string{
		"I told my wife she was drawing her eyebrows too high. She looked surprised.",
		"Why do programmers prefer dark mode? Because light attracts bugs.",
		"I would tell you a UDP joke, but you might not get it.",
	} {
		store.PutJoke(core.Joke{
			ID:        uuid.NewString(),
			Text:      text,
			Tags:      []string{"seed"},
			CreatedAt: now.Add(time.Duration(i) * time.Second),
		})
	}
}
