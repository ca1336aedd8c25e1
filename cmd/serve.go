package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Shivanand-hulikatti/event-admission/internal/auth"
	"github.com/Shivanand-hulikatti/event-admission/internal/config"
	"github.com/Shivanand-hulikatti/event-admission/internal/database"
	"github.com/Shivanand-hulikatti/event-admission/internal/handler"
	"github.com/Shivanand-hulikatti/event-admission/internal/metrics"
	"github.com/Shivanand-hulikatti/event-admission/internal/repository"
	"github.com/Shivanand-hulikatti/event-admission/internal/repository/memory"
	"github.com/Shivanand-hulikatti/event-admission/internal/service"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	storePostgres = "postgres"
	storeMemory   = "memory"

	shutdownTimeout = 10 * time.Second
)

type serveOptions struct {
	host    string
	port    int
	store   string
	migrate bool
}

func newServeCommand(flags *globalFlags) *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server and begin accepting API requests.

The server will:
- Load configuration from environment variables
- Apply pending migrations (unless --migrate=false)
- Bootstrap an administrator if ADMIN_EMAIL and ADMIN_PASSWORD are set
- Handle graceful shutdown on SIGINT/SIGTERM

Examples:
  # Start with default configuration (from env vars)
  event-admission serve

  # Run without PostgreSQL; all data is lost on exit
  event-admission serve --store memory --log-format console`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts, flags)
		},
	}
	cmd.Flags().StringVar(&opts.host, "host", "", "server host address (default: 0.0.0.0)")
	cmd.Flags().IntVar(&opts.port, "port", 0, "server port (default: 8080)")
	cmd.Flags().StringVar(&opts.store, "store", storePostgres, "storage backend (postgres, memory)")
	cmd.Flags().BoolVar(&opts.migrate, "migrate", true, "apply pending migrations on startup")
	return cmd
}

// stores is the persistence backend the services run on.
type stores struct {
	users         service.UserStore
	events        service.EventStore
	registrations service.RegistrationStore
	stats         service.StatsStore
	close         func()
}

func openStores(ctx context.Context, opts *serveOptions, cfg config.Config, logger zerolog.Logger) (*stores, error) {
	switch opts.store {
	case storeMemory:
		logger.Warn().Msg("using in-memory store; data will not survive a restart")
		db := memory.New()
		return &stores{
			users:         db.Users(),
			events:        db.Events(),
			registrations: db.Registrations(),
			stats:         db.Stats(),
			close:         func() {},
		}, nil

	case storePostgres:
		if err := cfg.Database.Validate(); err != nil {
			return nil, err
		}
		if opts.migrate {
			if err := database.MigrateUp(cfg.Database.URL); err != nil {
				return nil, err
			}
			logger.Info().Msg("migrations applied")
		}

		connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		pool, err := database.NewPool(connectCtx, cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		logger.Info().Msg("connected to PostgreSQL")
		return &stores{
			users:         repository.NewUserRepository(pool),
			events:        repository.NewEventRepository(pool),
			registrations: repository.NewRegistrationRepository(pool),
			stats:         repository.NewStatsRepository(pool),
			close:         pool.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown store %q (want %s or %s)", opts.store, storePostgres, storeMemory)
	}
}

func runServe(ctx context.Context, opts *serveOptions, flags *globalFlags) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	flags.apply(&cfg.Logging)
	if opts.host != "" {
		cfg.Server.Host = opts.host
	}
	if opts.port != 0 {
		cfg.Server.Port = opts.port
	}

	logger := config.NewLogger(cfg.Logging)
	logger.Info().Str("version", Version).Str("store", opts.store).Msg("starting event-admission")

	st, err := openStores(ctx, opts, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, cfg.Auth.JWTIssuer)
	authSvc := service.NewAuthService(st.users, tokens, logger)
	services := handler.Services{
		Verifier:  auth.NewVerifier(tokens, st.users),
		Auth:      authSvc,
		Events:    service.NewEventService(st.events, st.registrations, cfg.Events.DefaultMaxAttendees, logger),
		Admission: service.NewAdmissionService(st.registrations, metrics.Admission{}, logger),
		Admin:     service.NewAdminService(st.users, st.events, st.stats),
	}

	bootstrapCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := authSvc.EnsureAdministrator(bootstrapCtx, cfg.Admin); err != nil {
		logger.Error().Err(err).Msg("admin bootstrap failed")
	}
	cancel()

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler.NewRouter(services, cfg, logger),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
