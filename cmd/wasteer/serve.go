package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/wasteer/wasteer/internal/api"
	"github.com/wasteer/wasteer/internal/auth"
	"github.com/wasteer/wasteer/internal/config"
	"github.com/wasteer/wasteer/internal/identity"
	"github.com/wasteer/wasteer/internal/metrics"
	"github.com/wasteer/wasteer/internal/waste"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Wasteer API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// sessionSweepInterval is how often expired sessions are purged.
const sessionSweepInterval = time.Hour

func runServe(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return err
	}
	slog.Info("connected to database")

	identityStore := identity.NewStore(pool)
	sessionStore := auth.NewStore(pool, cfg.Auth.SessionTTL)
	wasteStore := waste.NewStore(pool)
	wasteService := waste.NewService(wasteStore, identityStore)

	m := metrics.New()
	m.RegisterDBPoolCollector(func() (total, idle, acquired int32) {
		st := pool.Stat()
		return st.TotalConns(), st.IdleConns(), st.AcquiredConns()
	})

	// Purge expired sessions in the background.
	go func() {
		ticker := time.NewTicker(sessionSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := sessionStore.CleanExpiredSessions(ctx)
				if err != nil {
					slog.Error("cleaning expired sessions", "error", err)
					continue
				}
				if n > 0 {
					slog.Info("cleaned expired sessions", "count", n)
				}
			}
		}
	}()

	router := api.NewRouter(api.RouterDeps{
		Identity:       identityStore,
		Sessions:       sessionStore,
		Waste:          wasteService,
		Metrics:        m,
		DefaultRole:    cfg.Auth.DefaultRole,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		LoginLimit:     cfg.RateLimit.LoginRequests,
		LoginWindow:    cfg.RateLimit.LoginWindow,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-sigCh
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	return srv.Shutdown(shutdownCtx)
}
