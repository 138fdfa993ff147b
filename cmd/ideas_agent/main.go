// Package main provides the entry point for the idea studio CLI and HTTP API server.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jonathan/idea-studio/internal/config"
	"github.com/jonathan/idea-studio/internal/ideas"
	"github.com/jonathan/idea-studio/internal/llm"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "ideas_agent",
	Short: "Short-video content idea generator",
	Long:  "Idea Studio turns a niche, target platforms and optional brand guidelines into validated short-video content ideas using a configurable LLM provider.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.yaml (defaults to IDEAS_CONFIG or ./config.yaml)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration selected by --config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// newGenerator builds the provider client once and wraps it in a generator.
// An empty mode or model keeps the configured one. The returned func closes the client.
func newGenerator(ctx context.Context, cfg *config.Config, mode, model string) (*ideas.Generator, func(), error) {
	if mode == "" {
		mode = cfg.Mode
	}
	parsedMode, err := ideas.ParseMode(mode)
	if err != nil {
		return nil, nil, err
	}

	client, err := llm.NewClient(ctx, clientConfig(cfg, model))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s client: %w", cfg.Provider, err)
	}
	closeClient := func() {
		if err := client.Close(); err != nil {
			log.Printf("[%s] close failed: %v", client.Provider(), err)
		}
	}

	generator := ideas.NewGenerator(client,
		ideas.WithMaxIdeas(cfg.MaxIdeas),
		ideas.WithMode(parsedMode),
		ideas.WithTemperature(cfg.Temperature),
		ideas.WithMaxTokens(cfg.MaxTokens),
	)
	return generator, closeClient, nil
}

// clientConfig returns the provider settings with model overriding the configured one.
func clientConfig(cfg *config.Config, model string) *llm.Config {
	llmCfg := cfg.LLMConfig()
	if model == "" {
		return llmCfg
	}
	return llmCfg.WithModel(model)
}
