package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/kmori/sentinel-go/internal/analyzer"
	"github.com/kmori/sentinel-go/internal/notify"
	"github.com/kmori/sentinel-go/internal/prompt"
	"github.com/kmori/sentinel-go/internal/report"
)

// AnalyzeCmd returns the analyze command.
func AnalyzeCmd() *cli.Command {
	flags := append(commonFlags(),
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output file for the JSON report",
		},
		&cli.StringFlag{
			Name:    "prompt",
			Aliases: []string{"p"},
			Usage:   "Path to a custom prompt template",
		},
		&cli.StringFlag{
			Name:  "vocabulary",
			Usage: "Verdict word pair as \"POSITIVE,NEGATIVE\" (default OK,SUSPICIOUS)",
		},
		&cli.StringFlag{
			Name:  "webhook",
			Usage: "Webhook URL to notify with the run summary",
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "Print full API responses",
		},
	)

	return &cli.Command{
		Name:    "analyze",
		Aliases: []string{"a"},
		Usage:   "Analyze commits in a date range for suspicious changes",
		Flags:   flags,
		Action:  analyzeAction,
	}
}

func analyzeAction(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cc, err := NewCommandContext(c)
	if err != nil {
		return err
	}
	cfg := cc.Config

	outputPath := cfg.Analysis.OutputPath
	if p := c.String("output"); p != "" {
		outputPath = p
	}

	fmt.Printf("Analyzing commits in %s", cc.RepoPath)
	if cc.Since != nil || cc.Until != nil {
		fmt.Printf(" from %s to %s", orAny(rangeString(cc.Since)), orAny(rangeString(cc.Until)))
	}
	fmt.Println()
	fmt.Printf("Using inference endpoint %s (timeout %ds)\n", cfg.Endpoint.GenerateURL, cfg.Endpoint.TimeoutSeconds)

	// Resolve the model before the pipeline starts; the engine itself never
	// blocks on interactive input.
	model := cfg.Endpoint.Model
	if model == "" {
		model, err = selectModel(ctx, cc.Client)
		if err != nil {
			return err
		}
	}
	fmt.Printf("Using model: %s\n", model)

	promptPath := cfg.Analysis.PromptPath
	if p := c.String("prompt"); p != "" {
		promptPath = p
	}
	tpl, err := prompt.Load(promptPath)
	if err != nil {
		// Recoverable: fall back to the built-in template.
		color.Yellow("Warning: %v; falling back to the built-in prompt template", err)
		tpl = prompt.Default()
	}
	renderer := prompt.NewRenderer(tpl, cc.Vocab)

	writer := report.NewWriter(outputPath, report.Meta{
		Repository:   cc.Reader.RepoName(),
		Model:        model,
		PromptSource: tpl.Source,
		Since:        rangeString(cc.Since),
		Until:        rangeString(cc.Until),
		Vocabulary:   cc.Vocab,
	})

	engine := analyzer.New(cc.Reader, renderer, cc.Client, writer, analyzer.Options{
		Model:      model,
		Vocabulary: cc.Vocab,
		Debug:      c.Bool("debug"),
	})

	sum, err := engine.Run(ctx)
	if err != nil {
		return err
	}

	report.PrintSummary(sum, writer.Results(), cc.Vocab)
	fmt.Printf("\nDetailed report saved to: %s\n", outputPath)

	webhookURL := cfg.Notify.WebhookURL
	if u := c.String("webhook"); u != "" {
		webhookURL = u
	}
	if webhookURL != "" {
		notifier := notify.New(webhookURL)
		if err := notifier.Send(context.Background(), notify.SummaryText(sum, cc.Vocab)); err != nil {
			// The report is already on disk; a notification failure is not fatal.
			color.Yellow("Warning: webhook notification failed: %v", err)
		} else {
			fmt.Println("Webhook notified.")
		}
	}

	return nil
}

func orAny(s string) string {
	if s == "" {
		return "(any)"
	}
	return s
}
