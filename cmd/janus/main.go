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

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/janus/internal/cache"
	"github.com/dropDatabas3/janus/internal/config"
	"github.com/dropDatabas3/janus/internal/events"
	httpx "github.com/dropDatabas3/janus/internal/http"
	"github.com/dropDatabas3/janus/internal/login"
	"github.com/dropDatabas3/janus/internal/metrics"
	"github.com/dropDatabas3/janus/internal/observability/logger"
	"github.com/dropDatabas3/janus/internal/provider"
	"github.com/dropDatabas3/janus/internal/resolver"
	"github.com/dropDatabas3/janus/internal/session"
	"github.com/dropDatabas3/janus/internal/store/core"
	"github.com/dropDatabas3/janus/internal/store/memory"
	"github.com/dropDatabas3/janus/internal/store/pg"
	"github.com/dropDatabas3/janus/internal/token"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	var cfgPath string

	root := &cobra.Command{
		Use:   "janus",
		Short: "Motor de reconciliación de identidades sociales y tokens de sesión",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), cfgPath)
		},
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", envOr("JANUS_CONFIG", "config.yaml"), "ruta al YAML de configuración")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Imprime la versión",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.App.LogLevel,
		ServiceName: "janus",
		Version:     version,
	})
	defer logger.Sync()
	log := logger.L()

	if err := metrics.Register(nil); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	// ─── Stores ───
	var (
		links    core.LinkStore
		accounts core.AccountStore
	)
	switch cfg.Storage.Driver {
	case "postgres":
		pool, err := pg.NewPool(ctx, cfg.Storage.DSN, cfg.Storage.Postgres.MaxConns, cfg.Storage.Postgres.ConnMaxLifetime)
		if err != nil {
			return err
		}
		defer pool.Close()
		if cfg.Storage.Migrate {
			if err := pg.Migrate(ctx, pool); err != nil {
				return err
			}
		}
		links = pg.NewLinkStore(pool)
		accounts = pg.NewAccountStore(pool)
	default:
		mem := memory.New()
		links = mem
		accounts = mem
		log.Warn("using in-memory stores, links will not survive a restart")
	}

	// ─── Cache / sesión ───
	defaultTTL, _ := time.ParseDuration(cfg.Cache.Memory.DefaultTTL)
	cacheClient, err := cache.New(cache.Config{
		Driver:     cfg.Cache.Kind,
		Addr:       cfg.Cache.Redis.Addr,
		Password:   cfg.Cache.Redis.Password,
		DB:         cfg.Cache.Redis.DB,
		Prefix:     cfg.Cache.Redis.Prefix,
		DefaultTTL: defaultTTL,
	})
	if err != nil {
		return fmt.Errorf("init cache: %w", err)
	}
	defer cacheClient.Close()
	sessions := session.NewStore(cacheClient, cfg.TransientTTL(), 0)

	// ─── Provider ───
	client := provider.NewHTTP(
		cfg.Provider.BaseURL,
		cfg.Provider.ClientID,
		cfg.Provider.ClientSecret,
		cfg.Provider.Timeout,
	)

	// ─── Eventos ───
	var sink events.Sink
	if cfg.Events.Sink == "nats" {
		sink, err = events.NewNATSSink(cfg.Events.NATSURL, cfg.Events.SubjectPrefix)
		if err != nil {
			return fmt.Errorf("init events: %w", err)
		}
	} else {
		sink = events.NewLogSink()
	}
	defer sink.Close()

	// ─── Core ───
	product := resolver.ProductLoginOnly
	if cfg.Policy.Product == "registration" {
		product = resolver.ProductRegistration
	}
	policy := func(context.Context) resolver.Policy {
		return resolver.Policy{
			StrictEmailVerification: cfg.StrictEmail(),
			Product:                 product,
		}
	}

	res := resolver.New(links, accounts, cfg.Provider.Name)
	engine := login.NewEngine(login.Deps{
		Resolver:     res,
		Links:        links,
		Accounts:     accounts,
		Sessions:     sessions,
		Provider:     client,
		Sink:         sink,
		ProviderName: cfg.Provider.Name,
		Policy:       policy,
	})
	tokens := token.NewManager(sessions, client, cfg.Provider.TokenSkew)

	// ─── HTTP ───
	controller := httpx.NewSessionController(engine, tokens, sessions)
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           httpx.NewRouter(controller),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", logger.String("addr", cfg.Server.Addr))
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
