package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/idea-studio/internal/ideas"
	"github.com/jonathan/idea-studio/internal/observability"
)

var validateIdeasCmd = &cobra.Command{
	Use:   "validate-ideas",
	Short: "Validate a saved provider response or result file",
	Long:  "Extracts the JSON value from a raw provider response (code fences and surrounding prose are tolerated) and checks it against the idea output schema.",
	RunE:  runValidateIdeas,
}

var (
	validateIdeasInput  string
	validateIdeasCount  int
	validateIdeasStrict bool
)

func init() {
	validateIdeasCmd.Flags().StringVarP(&validateIdeasInput, "in", "i", "", "Path to the response file (required)")
	validateIdeasCmd.Flags().IntVarP(&validateIdeasCount, "count", "c", ideas.MaxCount, "Number of ideas expected; extra ideas are dropped")
	validateIdeasCmd.Flags().BoolVar(&validateIdeasStrict, "strict", false, "Require a bare result document; no fences, prose or truncation")

	if err := validateIdeasCmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}

	rootCmd.AddCommand(validateIdeasCmd)
}

func runValidateIdeas(cmd *cobra.Command, _ []string) error {
	content, err := os.ReadFile(validateIdeasInput)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("response file not found: %s", validateIdeasInput)
		}
		return fmt.Errorf("failed to read response file: %w", err)
	}

	printer := observability.NewPrinter(cmd.OutOrStdout())
	var (
		result     *ideas.GenerationResult
		violations []ideas.FieldError
	)
	if validateIdeasStrict {
		result, violations, err = checkDocument(content)
	} else {
		result, violations, err = checkResponse(string(content), validateIdeasCount)
	}
	if violations != nil {
		printer.PrintViolations(violations)
	}
	if err != nil {
		return err
	}

	printer.PrintViolations(nil)
	printer.PrintIdeas(result)
	return nil
}

// checkResponse parses raw and returns the schema violations, if any.
func checkResponse(raw string, count int) (*ideas.GenerationResult, []ideas.FieldError, error) {
	if count < ideas.MinCount || count > ideas.MaxCount {
		return nil, nil, fmt.Errorf("count must be between %d and %d", ideas.MinCount, ideas.MaxCount)
	}

	return violationsOf(ideas.ParseResult(raw, count))
}

// checkDocument validates data as a saved result file, byte for byte.
func checkDocument(data []byte) (*ideas.GenerationResult, []ideas.FieldError, error) {
	return violationsOf(ideas.ValidateDocument(data))
}

func violationsOf(result *ideas.GenerationResult, err error) (*ideas.GenerationResult, []ideas.FieldError, error) {
	if err != nil {
		var schemaErr *ideas.SchemaError
		if errors.As(err, &schemaErr) {
			return nil, schemaErr.Violations, fmt.Errorf("found %d violations", len(schemaErr.Violations))
		}
		return nil, nil, err
	}
	return result, nil, nil
}
