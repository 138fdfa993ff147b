package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/idea-studio/internal/db"
	"github.com/jonathan/idea-studio/internal/server"
	"github.com/jonathan/idea-studio/internal/server/ratelimit"
)

var (
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes POST /api/content/generate. Generation history is recorded when DATABASE_URL is set.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT and the config file)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}

	jwtConfig, err := cfg.JWT()
	if err != nil {
		return fmt.Errorf("invalid JWT configuration: %w", err)
	}

	generator, closeClient, err := newGenerator(ctx, cfg, "", "")
	if err != nil {
		return err
	}
	defer closeClient()

	serverCfg := server.Config{
		Port:      cfg.Port,
		Provider:  cfg.Provider,
		RateLimit: ratelimit.LoadConfig(),
		JWT:       jwtConfig,
	}

	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close()

		if err := database.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("failed to prepare database schema: %w", err)
		}
		serverCfg.History = database
		log.Println("[server] generation history enabled")
	}

	if jwtConfig == nil {
		log.Println("[server] JWT_SECRET not set, API authentication disabled")
	}
	log.Printf("[server] provider=%s mode=%s max_ideas=%d", cfg.Provider, generator.Mode(), generator.MaxIdeas())

	srv, err := server.New(serverCfg, generator)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start(ctx)
}
