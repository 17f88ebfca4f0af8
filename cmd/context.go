package cmd

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/kmori/sentinel-go/config"
	"github.com/kmori/sentinel-go/internal/git"
	"github.com/kmori/sentinel-go/internal/ollama"
	"github.com/kmori/sentinel-go/internal/verdict"
)

// CommandContext holds common state for command execution. It encapsulates
// configuration loading, date parsing, repository opening, and client setup.
type CommandContext struct {
	Config   *config.Config
	RepoPath string
	Since    *time.Time
	Until    *time.Time
	Reader   *git.HistoryReader
	Client   *ollama.Client
	Vocab    verdict.Vocabulary
}

// NewCommandContext creates a context from CLI flags. The repository is
// validated here, once, before any commit processing.
func NewCommandContext(c *cli.Context) (*CommandContext, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	since, err := parseDateFlag(c.String("since"))
	if err != nil {
		return nil, fmt.Errorf("invalid since date: %w", err)
	}
	until, err := parseDateFlag(c.String("until"))
	if err != nil {
		return nil, fmt.Errorf("invalid until date: %w", err)
	}

	vocab := cfg.Analysis.Vocabulary
	if s := c.String("vocabulary"); s != "" {
		vocab, err = verdict.ParseVocabulary(s)
		if err != nil {
			return nil, err
		}
	}

	repoPath := c.String("repo")
	reader, err := git.NewHistoryReader(git.ReadOptions{
		RepoPath: repoPath,
		Since:    since,
		Until:    until,
		Include:  cfg.Filters.Include,
		Exclude:  cfg.Filters.Exclude,
	})
	if err != nil {
		return nil, err
	}

	client := ollama.NewClient(cfg.Endpoint.GenerateURL, time.Duration(cfg.Endpoint.TimeoutSeconds)*time.Second)

	return &CommandContext{
		Config:   cfg,
		RepoPath: repoPath,
		Since:    since,
		Until:    until,
		Reader:   reader,
		Client:   client,
		Vocab:    vocab,
	}, nil
}

// rangeString formats a date bound for the run summary, empty when unset.
func rangeString(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
