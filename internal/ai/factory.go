package ai

import (
	"fmt"
	"net/http"

	"github.com/costwise/costwise/internal/config"
)

// NewProvider constructs the configured chat provider. Called once at
// process startup. The three supported backends all speak the same
// chat-completions format; only the endpoint and auth differ.
func NewProvider(cfg config.AIConfig) (Provider, error) {
	switch cfg.Provider {
	case "openai", "vllm", "ollama":
		return &chatProvider{
			name:    cfg.Provider,
			baseURL: cfg.BaseURL,
			apiKey:  cfg.APIKey,
			model:   cfg.Model,
			client:  &http.Client{Timeout: cfg.Timeout},
		}, nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q: must be one of openai, vllm, ollama", cfg.Provider)
	}
}
