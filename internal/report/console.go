package report

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/kmori/sentinel-go/internal/verdict"
)

// VerdictColor returns the color function used to print a verdict.
func VerdictColor(v verdict.Verdict, vocab verdict.Vocabulary) func(format string, a ...interface{}) string {
	switch string(v) {
	case vocab.Positive:
		return color.GreenString
	case vocab.Negative:
		return color.RedString
	default:
		return color.YellowString
	}
}

// PrintSummary writes the human-readable run summary to stdout, including
// recaps of suspicious and errored commits.
func PrintSummary(sum Summary, results []CommitResult, vocab verdict.Vocabulary) {
	color.Green("\n--- ANALYSIS SUMMARY ---")
	fmt.Printf("Repository: %s\n", sum.Repository)
	fmt.Printf("Model: %s\n", sum.Model)
	fmt.Printf("Total commits analyzed: %d\n", sum.TotalCommits)
	fmt.Printf("%s commits: %d\n", vocab.Negative, sum.VerdictCounts[vocab.Negative])
	fmt.Printf("Errors encountered: %d\n", sum.VerdictCounts[string(verdict.Error)])
	fmt.Printf("Total analysis time: %s\n", FormatDuration(sum.TotalAnalysisSeconds))
	if sum.TotalCommits > 0 {
		fmt.Printf("Average time per commit: %s\n", FormatDuration(sum.AverageAnalysisSeconds))
	}

	if sum.VerdictCounts[vocab.Negative] > 0 {
		fmt.Printf("\n%s commits:\n", vocab.Negative)
		for _, r := range results {
			if string(r.Verdict) != vocab.Negative {
				continue
			}
			fmt.Printf("- %s: %s (analyzed in %s)\n",
				shortHash(r.Hash), truncateLine(firstLine(r.Message), 60), FormatDuration(r.AnalysisTimeSeconds))
		}
	}

	if sum.VerdictCounts[string(verdict.Error)] > 0 {
		fmt.Println("\nCommits with errors:")
		for _, r := range results {
			if r.Verdict != verdict.Error {
				continue
			}
			fmt.Printf("- %s: %s (failed after %s)\n",
				shortHash(r.Hash), truncateLine(r.Reasoning, 100), FormatDuration(r.AnalysisTimeSeconds))
		}
	}
}

// FormatDuration renders elapsed seconds in a human-readable way.
func FormatDuration(seconds float64) string {
	switch {
	case seconds < 1:
		return fmt.Sprintf("%.0fms", seconds*1000)
	case seconds < 60:
		return fmt.Sprintf("%.1fs", seconds)
	default:
		minutes := int(seconds) / 60
		return fmt.Sprintf("%dm %.1fs", minutes, seconds-float64(minutes)*60)
	}
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}

func truncateLine(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
