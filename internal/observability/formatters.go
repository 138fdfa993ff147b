// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jonathan/idea-studio/internal/ideas"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintRequest outputs the normalized request that will be sent to the provider.
func (p *Printer) PrintRequest(req *ideas.GenerationRequest) {
	if req == nil {
		return
	}

	names := make([]string, 0, len(req.Platforms))
	for _, platform := range req.Platforms {
		names = append(names, platform.DisplayName())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Niche:     %s\n", req.Niche))
	sb.WriteString(fmt.Sprintf("Platforms: %s\n", strings.Join(names, ", ")))
	sb.WriteString(fmt.Sprintf("Count:     %d\n", req.Count))

	if !req.Branding.IsZero() {
		sb.WriteString("\nBranding:\n")
		if req.Branding.Voice != "" {
			sb.WriteString(fmt.Sprintf("  Voice:  %s\n", req.Branding.Voice))
		}
		if len(req.Branding.Values) > 0 {
			sb.WriteString(fmt.Sprintf("  Values: %s\n", strings.Join(req.Branding.Values, ", ")))
		}
		if len(req.Branding.Colors) > 0 {
			sb.WriteString(fmt.Sprintf("  Colors: %s\n", strings.Join(req.Branding.Colors, ", ")))
		}
	}

	p.printBox("GENERATION REQUEST", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintIdeas outputs the top ideas with hooks and viral scores.
func (p *Printer) PrintIdeas(result *ideas.GenerationResult) {
	if result == nil || len(result.Ideas) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Generated %d ideas:\n\n", len(result.Ideas)))

	count := min(len(result.Ideas), maxItemsToShow)
	for i := 0; i < count; i++ {
		idea := result.Ideas[i]
		sb.WriteString(fmt.Sprintf("#%d  %s\n", i+1, idea.Title))
		sb.WriteString(fmt.Sprintf("    Score: %.0f  Platform: %s\n", idea.ViralScore, idea.Platform))
		sb.WriteString(fmt.Sprintf("    Hook: %s\n", truncate(idea.Hook, 44)))
		sb.WriteString(fmt.Sprintf("    Steps: %d  CTA: %s\n", len(idea.Outline), truncate(idea.CTA, 35)))
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(result.Ideas) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more ideas", len(result.Ideas)-maxItemsToShow))
	}

	p.printBox("CONTENT IDEAS", sb.String())
}

// PrintViolations outputs field-level problems found in a request or result.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintViolations(violations []ideas.FieldError) {
	if len(violations) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "✅ NO VIOLATIONS FOUND")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d violations:\n\n", len(violations)))

	for i, v := range violations {
		sb.WriteString(fmt.Sprintf("⚠ %s\n", v.Field))
		sb.WriteString(fmt.Sprintf("  %s\n", truncate(v.Message, 48)))
		if i < len(violations)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("VIOLATIONS", sb.String())
}

// RunSummary describes one finished generation in a batch.
type RunSummary struct {
	Niche    string
	Ideas    int
	Duration time.Duration
	Err      error
}

// PrintBatchSummary outputs one line per run and the overall tally.
func (p *Printer) PrintBatchSummary(runs []RunSummary) {
	if len(runs) == 0 {
		return
	}

	var sb strings.Builder
	failed := 0
	for _, run := range runs {
		niche := truncate(run.Niche, 24)
		if run.Err != nil {
			failed++
			sb.WriteString(fmt.Sprintf("✗ %-24s %s\n", niche, ideas.ErrorKind(run.Err)))
			continue
		}
		sb.WriteString(fmt.Sprintf("✓ %-24s %2d ideas  %s\n", niche, run.Ideas, run.Duration.Round(time.Millisecond)))
	}
	sb.WriteString(fmt.Sprintf("\n%d succeeded, %d failed", len(runs)-failed, failed))

	p.printBox("BATCH SUMMARY", sb.String())
}
