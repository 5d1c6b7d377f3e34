// Package ai translates and summarizes articles through an LLM provider.
package ai

import (
	"context"
	"fmt"
)

// Provider is the interface that all LLM providers must implement.
type Provider interface {
	// TranslateAndSummarize translates the title and abstract into the
	// configured target language and produces a short summary. When the
	// abstract is too short to summarize, only the title is translated.
	TranslateAndSummarize(ctx context.Context, title, abstract string) (Translation, error)
}

// NewProvider creates the appropriate provider based on config.
func NewProvider(cfg ProviderConfig) (Provider, error) {
	switch cfg.Provider {
	case "anthropic":
		return NewAnthropicProvider(cfg.APIKey, cfg.Model, cfg.TargetLanguage), nil
	case "openai":
		return NewOpenAIProvider(cfg.APIKey, cfg.Model, cfg.TargetLanguage), nil
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", cfg.Provider)
	}
}
