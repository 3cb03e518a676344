package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/verba/internal/auth"
	"github.com/abhisek/verba/internal/config"
	"github.com/abhisek/verba/internal/lessons"
	"github.com/abhisek/verba/internal/llm"
	"github.com/abhisek/verba/internal/logger"
	"github.com/abhisek/verba/internal/metrics"
	"github.com/abhisek/verba/internal/observability"
	"github.com/abhisek/verba/internal/onboarding"
	"github.com/abhisek/verba/internal/realtime"
	"github.com/abhisek/verba/internal/server"
	"github.com/abhisek/verba/internal/store"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		return runServer(cmd.Context(), cfg)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides config and VERBA_ADDR)")
}

// runServer builds every dependency from cfg and serves until SIGINT or
// SIGTERM, then drains in-flight requests.
func runServer(parent context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log, err := logger.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	shutdownTracing, err := observability.InitOTel(ctx, cfg.Telemetry, version, log)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("otel shutdown failed", "error", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	st, err := store.Open(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	provider, err := llm.NewProvider(ctx, cfg.LLM, st.Events(), log, m)
	if err != nil {
		return fmt.Errorf("llm provider: %w", err)
	}
	log.Info("llm provider ready", "provider", cfg.LLM.Provider, "model", provider.ModelID())

	bus, err := newBus(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer bus.Close()

	authn, err := auth.New(cfg.Server.JWTSecret)
	if err != nil {
		return err
	}

	conversations := st.Conversations(store.WithMetrics(m))

	obCfg := onboarding.DefaultConfig()
	lsCfg := lessons.DefaultConfig()
	if cfg.LLM.Timeout > 0 {
		obCfg.Timeout = cfg.LLM.Timeout
		lsCfg.Timeout = cfg.LLM.Timeout
	}

	srv := server.New(server.Config{
		Addr:        cfg.Server.Addr,
		Mode:        cfg.Server.Mode,
		CORSOrigins: cfg.Server.CORSOrigins,
		ServiceName: cfg.Telemetry.ServiceName,
	}, server.Deps{
		Auth:  authn,
		Users: st.Users(),
		Onboarding: onboarding.NewService(provider, st.Users(), conversations, obCfg,
			onboarding.WithBus(bus), onboarding.WithLogger(log), onboarding.WithMetrics(m)),
		Lessons: lessons.NewService(provider, st.Users(), conversations, lsCfg,
			lessons.WithBus(bus), lessons.WithLogger(log), lessons.WithMetrics(m)),
		Bus:      bus,
		Store:    st,
		Log:      log,
		Metrics:  m,
		Gatherer: reg,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.ListenAndServe)
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newBus(ctx context.Context, cfg *config.Config, log *logger.Logger) (realtime.Bus, error) {
	if cfg.Redis.Addr == "" {
		return realtime.NewMemoryBus(log), nil
	}
	bus, err := realtime.NewRedisBus(ctx, cfg.Redis, log)
	if err != nil {
		return nil, fmt.Errorf("connect redis bus: %w", err)
	}
	log.Info("realtime bus on redis", "addr", cfg.Redis.Addr)
	return bus, nil
}
