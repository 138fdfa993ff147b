package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/idea-studio/internal/ideas"
	"github.com/jonathan/idea-studio/internal/observability"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate content ideas for one or more niches",
	Long: `Runs the idea pipeline locally: validates the request, builds the prompt, calls the configured provider and validates the reply.

Pass --niche more than once to run several independent generations concurrently.`,
	RunE: runGenerate,
}

var (
	generateNiches      []string
	generatePlatforms   []string
	generateCount       int
	generateVoice       string
	generateValues      []string
	generateColors      []string
	generateMode        string
	generateModel       string
	generateOutput      string
	generateVerbose     bool
	generateConcurrency int
)

func init() {
	generateCmd.Flags().StringArrayVarP(&generateNiches, "niche", "n", nil, "Content niche (required, repeatable)")
	generateCmd.Flags().StringArrayVarP(&generatePlatforms, "platform", "p", nil, "Target platform: tiktok, instagram, youtube, reels, shorts (repeatable, default tiktok and reels)")
	generateCmd.Flags().IntVarP(&generateCount, "count", "c", ideas.DefaultCount, "Number of ideas per niche")
	generateCmd.Flags().StringVar(&generateVoice, "voice", "", "Brand voice")
	generateCmd.Flags().StringArrayVar(&generateValues, "value", nil, "Brand value (repeatable)")
	generateCmd.Flags().StringArrayVar(&generateColors, "color", nil, "Brand color (repeatable)")
	generateCmd.Flags().StringVar(&generateMode, "mode", "", "Generation mode: text or structured (defaults to config)")
	generateCmd.Flags().StringVar(&generateModel, "model", "", "Provider model (defaults to config)")
	generateCmd.Flags().StringVarP(&generateOutput, "out", "o", "", "Write JSON output to this file instead of stdout")
	generateCmd.Flags().BoolVarP(&generateVerbose, "verbose", "v", false, "Print request and idea summaries to stderr")
	generateCmd.Flags().IntVar(&generateConcurrency, "concurrency", 2, "Maximum concurrent provider calls")

	if err := generateCmd.MarkFlagRequired("niche"); err != nil {
		panic(fmt.Sprintf("failed to mark niche flag as required: %v", err))
	}

	rootCmd.AddCommand(generateCmd)
}

// ideaGenerator is the part of *ideas.Generator the batch runner needs.
type ideaGenerator interface {
	Generate(ctx context.Context, req ideas.GenerationRequest) (*ideas.GenerationResult, error)
}

// batchResult is one niche's outcome in a multi-niche run.
type batchResult struct {
	Niche    string                 `json:"niche"`
	Ideas    []ideas.GenerationIdea `json:"ideas,omitempty"`
	Error    string                 `json:"error,omitempty"`
	err      error
	duration time.Duration
}

func runGenerate(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	requests, err := buildRequests(generateNiches, generatePlatforms, generateCount,
		ideas.Branding{Voice: generateVoice, Values: generateValues, Colors: generateColors})
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	generator, closeClient, err := newGenerator(ctx, cfg, generateMode, generateModel)
	if err != nil {
		return err
	}
	defer closeClient()

	printer := observability.NewPrinter(os.Stderr)
	if generateVerbose {
		for i := range requests {
			printer.PrintRequest(&requests[i])
		}
	}

	results := runBatch(ctx, generator, requests, generateConcurrency)

	if generateVerbose {
		summaries := make([]observability.RunSummary, 0, len(results))
		for _, r := range results {
			if r.err == nil {
				printer.PrintIdeas(&ideas.GenerationResult{Ideas: r.Ideas})
			}
			summaries = append(summaries, observability.RunSummary{
				Niche: r.Niche, Ideas: len(r.Ideas), Duration: r.duration, Err: r.err,
			})
		}
		printer.PrintBatchSummary(summaries)
	}

	out := io.Writer(os.Stdout)
	if generateOutput != "" {
		f, err := os.Create(generateOutput)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}
	if err := writeResults(out, results); err != nil {
		return err
	}

	return batchError(results)
}

// buildRequests validates one request per niche before any provider call.
func buildRequests(niches, platforms []string, count int, branding ideas.Branding) ([]ideas.GenerationRequest, error) {
	parsedPlatforms := make([]ideas.Platform, 0, len(platforms))
	for _, p := range platforms {
		parsedPlatforms = append(parsedPlatforms, ideas.Platform(p))
	}

	requests := make([]ideas.GenerationRequest, 0, len(niches))
	for _, niche := range niches {
		req, err := ideas.NormalizeRequest(ideas.GenerationRequest{
			Niche:     niche,
			Branding:  branding,
			Platforms: parsedPlatforms,
			Count:     count,
		})
		if err != nil {
			return nil, fmt.Errorf("niche %q: %w", niche, err)
		}
		requests = append(requests, *req)
	}
	return requests, nil
}

// runBatch generates every request with at most concurrency calls in flight.
// Each request is independent; a failure never cancels the others.
func runBatch(ctx context.Context, gen ideaGenerator, requests []ideas.GenerationRequest, concurrency int) []batchResult {
	results := make([]batchResult, len(requests))

	var g errgroup.Group
	g.SetLimit(max(concurrency, 1))
	for i, req := range requests {
		g.Go(func() error {
			start := time.Now()
			result, err := gen.Generate(ctx, req)

			r := batchResult{Niche: req.Niche, err: err, duration: time.Since(start)}
			if err != nil {
				r.Error = err.Error()
			} else {
				r.Ideas = result.Ideas
			}
			results[i] = r
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// writeResults writes a single result as {"ideas": [...]} and a batch as an array.
func writeResults(w io.Writer, results []batchResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	var payload any = results
	if len(results) == 1 && results[0].err == nil {
		payload = ideas.GenerationResult{Ideas: results[0].Ideas}
	}
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// batchError summarizes failed runs, or returns nil when all succeeded.
func batchError(results []batchResult) error {
	var failed []string
	for _, r := range results {
		if r.err != nil {
			failed = append(failed, fmt.Sprintf("%s (%s)", r.Niche, ideas.ErrorKind(r.err)))
		}
	}
	if len(failed) == 0 {
		return nil
	}
	if len(results) == 1 {
		return results[0].err
	}
	return fmt.Errorf("%d of %d generations failed: %s", len(failed), len(results), strings.Join(failed, ", "))
}
