package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/hms-api/internal/app"
	"github.com/jwalitptl/hms-api/internal/config"
	"github.com/jwalitptl/hms-api/internal/repository/postgres"
	"github.com/jwalitptl/hms-api/internal/service/audit"
	"github.com/jwalitptl/hms-api/migrations"
	"github.com/jwalitptl/hms-api/pkg/auth"
	"github.com/jwalitptl/hms-api/pkg/logger"
	"github.com/jwalitptl/hms-api/pkg/metrics"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "hms-api",
		Short:         "Hospital management API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yml")

	root.AddCommand(serveCmd(), migrateCmd(), tokenCmd())

	if err := root.Execute(); err != nil {
		log.Fatal().Err(err).Msg("Command failed")
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	l := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		Console:    cfg.Log.Console,
	})
	log.Logger = l.Zerolog()
	return cfg, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	auditPath := cfg.Audit.Path
	if auditPath == "" {
		auditPath = "stderr"
	}
	journal, err := audit.NewJournal(auditPath)
	if err != nil {
		return fmt.Errorf("failed to open audit journal: %w", err)
	}
	defer journal.Sync()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r, err := app.NewRouter(app.Deps{
		Config:   cfg,
		Repos:    app.PostgresRepositories(db),
		DB:       db,
		Auditor:  journal,
		Metrics:  metrics.NewMetrics("hms", reg),
		Gatherer: reg,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info().Msg("Server exited properly")
	return nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	withMigrator := func(run func(ctx context.Context, m *postgres.Migrator) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := postgres.NewDB(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()
			return run(cmd.Context(), postgres.NewMigrator(db, migrations.FS))
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: withMigrator(func(ctx context.Context, m *postgres.Migrator) error {
			n, err := m.Up(ctx)
			if err != nil {
				return err
			}
			log.Info().Int("applied", n).Msg("Migrations complete")
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List migrations and whether they are applied",
		RunE: withMigrator(func(ctx context.Context, m *postgres.Migrator) error {
			statuses, err := m.Status(ctx)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "VERSION\tNAME\tAPPLIED AT")
			for _, s := range statuses {
				at := "pending"
				if s.AppliedAt != nil {
					at = s.AppliedAt.Format(time.RFC3339)
				}
				fmt.Fprintf(w, "%03d\t%s\t%s\n", s.Version, s.Name, at)
			}
			return w.Flush()
		}),
	})

	return cmd
}

func tokenCmd() *cobra.Command {
	var orgID, staffID string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access token for an organization and staff member",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			org, err := uuid.Parse(orgID)
			if err != nil {
				return fmt.Errorf("invalid --org: %w", err)
			}
			staff, err := uuid.Parse(staffID)
			if err != nil {
				return fmt.Errorf("invalid --staff: %w", err)
			}

			token, err := auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL).Issue(org, staff)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&orgID, "org", "", "organization id")
	cmd.Flags().StringVar(&staffID, "staff", "", "staff id")
	_ = cmd.MarkFlagRequired("org")
	_ = cmd.MarkFlagRequired("staff")
	return cmd
}
