package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/hms-api/internal/config"
	"github.com/jwalitptl/hms-api/internal/email"
	"github.com/jwalitptl/hms-api/internal/handler/health"
	"github.com/jwalitptl/hms-api/internal/repository/postgres"
	"github.com/jwalitptl/hms-api/internal/worker"
	"github.com/jwalitptl/hms-api/pkg/logger"
	"github.com/jwalitptl/hms-api/pkg/messaging/redis"
	"github.com/jwalitptl/hms-api/pkg/metrics"
)

func main() {
	var configPath, healthAddr string

	cmd := &cobra.Command{
		Use:           "hms-worker",
		Short:         "Publish outbox events and mail payment receipts",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, healthAddr)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config.yml")
	cmd.Flags().StringVar(&healthAddr, "health-addr", ":8081", "address of the health and metrics endpoint")

	if err := cmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("Worker failed")
	}
}

func run(ctx context.Context, cfg *config.Config, healthAddr string) error {
	l := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		Console:    cfg.Log.Console,
	})
	log.Logger = l.Zerolog()
	l = l.WithFields(map[string]interface{}{"component": "outbox"})

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(redis.Config{
		URL:          cfg.Redis.URL,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
	}, log.Logger)
	if err != nil {
		return err
	}
	defer broker.Close()

	var mailer email.Mailer = email.Discard{}
	if cfg.SMTP.Enabled() {
		mailer = email.NewSMTPMailer(cfg.SMTP)
	} else {
		l.Warn("SMTP not configured, receipts will not be mailed")
	}

	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics("hms_worker", reg)

	outbox := postgres.NewOutboxRepository(postgres.NewBaseRepository(db))
	processor, err := worker.NewOutboxProcessor(outbox, broker, mailer, worker.OutboxProcessorConfig{
		BatchSize:       cfg.Outbox.BatchSize,
		PollInterval:    cfg.Outbox.PollInterval,
		MailMaxFailures: cfg.Outbox.MailMaxFailures,
		MailCooldown:    cfg.Outbox.MailCooldown,
	}, l, m)
	if err != nil {
		return err
	}
	cleanup := worker.NewOutboxCleanupWorker(outbox, cfg.Outbox.Retention, cfg.Outbox.CleanupInterval, l)

	srv := healthServer(healthAddr, db, reg)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error(err, "Health server failed")
		}
	}()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); processor.Start(ctx) }()
	go func() { defer wg.Done(); cleanup.Start(ctx) }()
	wg.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func healthServer(addr string, db health.Pinger, gatherer prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
}
