package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/kmori/sentinel-go/config"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "sentinel",
		Usage:   "LLM-backed commit security analyzer for Git repositories",
		Version: "1.0.0",
		Commands: []*cli.Command{
			AnalyzeCmd(),
			ModelsCmd(),
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
			},
		},
		Action: func(c *cli.Context) error {
			return cli.ShowAppHelp(c)
		},
	}
}

// Common flags shared across commands
func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "repo",
			Aliases: []string{"r"},
			Usage:   "Path to Git repository",
			Value:   ".",
		},
		&cli.StringFlag{
			Name:  "since",
			Usage: "Analyze commits since this date (YYYY-MM-DD)",
		},
		&cli.StringFlag{
			Name:  "until",
			Usage: "Analyze commits until this date (YYYY-MM-DD)",
		},
		&cli.StringFlag{
			Name:  "api-url",
			Usage: "Inference endpoint generate URL",
		},
		&cli.StringFlag{
			Name:    "model",
			Aliases: []string{"m"},
			Usage:   "Model to use (if not specified, available models are offered interactively)",
		},
		&cli.IntFlag{
			Name:    "timeout",
			Aliases: []string{"t"},
			Usage:   "API request timeout in seconds",
		},
		&cli.StringSliceFlag{
			Name:  "include",
			Usage: "Glob patterns of changed files to include (can be specified multiple times)",
		},
		&cli.StringSliceFlag{
			Name:  "exclude",
			Usage: "Glob patterns of changed files to exclude (can be specified multiple times)",
		},
	}
}

// parseDateFlag parses a date string flag.
func parseDateFlag(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	layouts := []string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD)", s)
}

// loadConfig loads configuration from file and applies CLI overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	configPath := c.String("config")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if url := c.String("api-url"); url != "" {
		cfg.Endpoint.GenerateURL = url
	}
	if model := c.String("model"); model != "" {
		cfg.Endpoint.Model = model
	}
	if timeout := c.Int("timeout"); timeout > 0 {
		cfg.Endpoint.TimeoutSeconds = timeout
	}
	if includes := c.StringSlice("include"); len(includes) > 0 {
		cfg.Filters.Include = includes
	}
	if excludes := c.StringSlice("exclude"); len(excludes) > 0 {
		cfg.Filters.Exclude = excludes
	}

	return cfg, nil
}

// Run executes the CLI application.
func Run() {
	if err := App().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
