package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/kmori/sentinel-go/internal/verdict"
)

// Config is the root configuration structure.
type Config struct {
	Endpoint EndpointConfig `json:"endpoint"`
	Analysis AnalysisConfig `json:"analysis"`
	Filters  FilterConfig   `json:"filters"`
	Notify   NotifyConfig   `json:"notify"`
}

// EndpointConfig holds inference endpoint settings.
type EndpointConfig struct {
	GenerateURL    string `json:"generateUrl"`    // Ollama-style generate URL
	Model          string `json:"model"`          // model id; empty triggers interactive selection
	TimeoutSeconds int    `json:"timeoutSeconds"` // per-request wall-clock bound
}

// AnalysisConfig holds pipeline settings.
type AnalysisConfig struct {
	Vocabulary verdict.Vocabulary `json:"vocabulary"` // verdict word pair
	PromptPath string             `json:"promptPath"` // custom template, empty for built-in
	OutputPath string             `json:"outputPath"` // report file
}

// FilterConfig holds file path filtering options.
type FilterConfig struct {
	Include []string `json:"include"`
	Exclude []string `json:"exclude"`
}

// NotifyConfig holds webhook notification settings.
type NotifyConfig struct {
	WebhookURL string `json:"webhookUrl"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Endpoint: EndpointConfig{
			GenerateURL:    "http://localhost:11434/api/generate",
			TimeoutSeconds: 120,
		},
		Analysis: AnalysisConfig{
			Vocabulary: verdict.DefaultVocabulary(),
			OutputPath: "security_report.json",
		},
		Filters: FilterConfig{
			Include: []string{},
			Exclude: []string{},
		},
	}
}

// LoadConfig loads configuration from a file, merging with defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		// Try default locations
		candidates := []string{".sentinel.json"}
		if home, err := os.UserHomeDir(); err == nil && home != "" {
			candidates = append(candidates, filepath.Join(home, ".sentinel.json"))
		}
		for _, p := range candidates {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
