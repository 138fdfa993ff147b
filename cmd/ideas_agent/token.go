package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/idea-studio/internal/server"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for the REST API",
	Long:  "Signs a JWT with the configured JWT_SECRET. Pass it as 'Authorization: Bearer <token>' when calling a server started with authentication enabled.",
	RunE:  runToken,
}

var tokenSubject string

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "Client ID to embed as the token subject (UUID, random if empty)")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	jwtConfig, err := cfg.JWT()
	if err != nil {
		return fmt.Errorf("invalid JWT configuration: %w", err)
	}
	if jwtConfig == nil {
		return errors.New("JWT_SECRET is not configured")
	}

	subject, err := parseSubject(tokenSubject)
	if err != nil {
		return err
	}

	token, err := server.NewJWTService(jwtConfig).GenerateToken(subject)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
	return err
}

// parseSubject returns a fresh UUID for an empty subject.
func parseSubject(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.New(), nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("subject must be a UUID: %w", err)
	}
	return id, nil
}
