package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pulseworks/pulseboard/internal/analytics"
	"github.com/pulseworks/pulseboard/internal/api"
	"github.com/pulseworks/pulseboard/internal/metrics"
	"github.com/pulseworks/pulseboard/internal/storage"
	"github.com/pulseworks/pulseboard/pkg/config"
)

var (
	configFile string
	httpAddr   string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "pulseboard-server",
	Short: "Pulseboard Server - Team project and analytics dashboard backend",
	Long: `Pulseboard Server provides the REST API behind the team dashboard:
project and task tracking with role-based access, a shared Kanban
board, and Google Analytics reporting.`,
	RunE: runServer,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pulseboard-server %s\n", config.Version)
		fmt.Printf("  commit: %s\n", config.Commit)
		fmt.Printf("  built:  %s\n", config.BuildTime)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (optional)")
	rootCmd.PersistentFlags().StringVarP(&httpAddr, "address", "a", "", "HTTP listen address")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Override with CLI flags
	if httpAddr != "" {
		cfg.Server.Address = httpAddr
	}
	cfg.Verbose = verbose

	// Auto-create data directory
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0750); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	// Initialize storage
	store := storage.NewSQLiteStorage(cfg.Database.Path)
	if err := store.Open(); err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	// Create default superuser on first run
	if err := store.EnsureSuperuser(); err != nil {
		return fmt.Errorf("ensure superuser: %w", err)
	}

	log.Printf("database initialized at %s", cfg.Database.Path)

	// Analytics is optional; without a property the dashboard widgets
	// read empty. Bad credentials fail here rather than per request.
	var reports *analytics.Service
	if cfg.Analytics.PropertyID != "" {
		key, err := analytics.LoadCredentials(cfg.Analytics.CredentialsFile, cfg.Analytics.CredentialsJSON)
		if err != nil {
			return fmt.Errorf("load analytics credentials: %w", err)
		}
		client, err := analytics.NewGoogleClient(analytics.GoogleClientConfig{
			PropertyID:     cfg.Analytics.PropertyID,
			Key:            key,
			RequestTimeout: mustDuration(cfg.Analytics.RequestTimeout),
			RequestsPerSec: cfg.Analytics.RequestsPerSec,
		})
		if err != nil {
			return fmt.Errorf("create analytics client: %w", err)
		}
		reports = analytics.NewService(client)
		log.Printf("analytics reporting enabled for property %s", cfg.Analytics.PropertyID)
	} else {
		log.Printf("analytics reporting disabled (no property configured)")
	}

	srv, err := api.New(&api.Config{
		Address:                 cfg.Server.Address,
		JWTSecret:               []byte(cfg.Auth.JWTSecret),
		AccessTokenTTL:          mustDuration(cfg.Auth.AccessTokenTTL),
		RateLimitPerIP:          cfg.Auth.RateLimitPerIP,
		RateLimitPerUser:        cfg.Auth.RateLimitPerUser,
		LockoutThreshold:        cfg.Auth.LockoutThreshold,
		LockoutDuration:         mustDuration(cfg.Auth.LockoutDuration),
		RequireMemberAssignment: cfg.Projects.RequireMemberAssignment,
		Verbose:                 cfg.Verbose,
	}, store, reports)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	metricsSrv := metrics.NewServer(cfg.Server.MetricsAddress)

	// Setup signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("received signal %v, shutting down...", sig)
		cancel()
	}()

	log.Printf("starting pulseboard-server %s", config.Version)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	g.Go(func() error {
		return metricsSrv.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return metricsSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("run server: %w", err)
	}

	log.Printf("server stopped")
	return nil
}
