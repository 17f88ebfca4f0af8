package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v2"

	"github.com/kmori/sentinel-go/internal/ollama"
)

// ModelsCmd returns the models command, which queries the inference
// endpoint for installed models.
func ModelsCmd() *cli.Command {
	return &cli.Command{
		Name:  "models",
		Usage: "List models installed on the inference endpoint",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "api-url",
				Usage: "Inference endpoint generate URL",
			},
			&cli.BoolFlag{
				Name:  "pick",
				Usage: "Select a model interactively and print its name",
			},
		},
		Action: modelsAction,
	}
}

func modelsAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	client := ollama.NewClient(cfg.Endpoint.GenerateURL, 10*time.Second)

	if c.Bool("pick") {
		name, err := selectModel(c.Context, client)
		if err != nil {
			return err
		}
		fmt.Println(name)
		return nil
	}

	models, err := client.Models(c.Context)
	if err != nil {
		return fmt.Errorf("querying available models (is the endpoint running?): %w", err)
	}

	fmt.Printf("Found %d models.\n\n", len(models))
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tName\tSize\tModified")
	for i, m := range models {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, m.Name, m.HumanSize(), m.ModifiedAt)
	}
	return tw.Flush()
}

// selectModel queries the endpoint and lets the user choose interactively.
// A total failure to reach the endpoint here aborts the run.
func selectModel(ctx context.Context, client *ollama.Client) (string, error) {
	fmt.Print("Querying available models...")
	models, err := client.Models(ctx)
	if err != nil {
		fmt.Println()
		return "", fmt.Errorf("querying available models (is the endpoint running?): %w", err)
	}
	fmt.Printf(" found %d models.\n", len(models))

	if len(models) == 0 {
		return "", fmt.Errorf("no models available on the endpoint; install one first")
	}

	options := make([]huh.Option[string], len(models))
	for i, m := range models {
		options[i] = huh.NewOption(fmt.Sprintf("%s (%s)", m.Name, m.HumanSize()), m.Name)
	}

	var selected string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select a model").
				Options(options...).
				Value(&selected),
		),
	)
	if err := form.RunWithContext(ctx); err != nil {
		return "", fmt.Errorf("model selection: %w", err)
	}
	return selected, nil
}
