package service

import (
	"context"
	"fmt"

	"github.com/okian/isp/internal/adapters/classifier"
	"github.com/okian/isp/internal/adapters/classifier/gemini"
	"github.com/okian/isp/internal/adapters/classifier/openai"
	"github.com/okian/isp/internal/config"
	"github.com/okian/isp/internal/domain/location"
)

// NewClassifier builds the configured location classifier wrapped with call
// metrics. It returns nil without error when no provider or API key is
// configured.
func NewClassifier(ctx context.Context, cfg *config.Config) (location.Classifier, error) {
	provider := cfg.ClassifierProvider
	if provider == "" || cfg.ClassifierAPIKey == "" {
		return nil, nil
	}

	switch provider {
	case classifier.ProviderOpenAI:
		c, err := openai.NewClient(cfg.ClassifierAPIKey,
			openai.WithModel(cfg.ClassifierModel),
			openai.WithBaseURL(cfg.ClassifierBaseURL),
			openai.WithTimeout(cfg.ClassifierTimeout()),
		)
		if err != nil {
			return nil, err
		}
		return classifier.Instrument(provider, c), nil
	case classifier.ProviderGemini:
		c, err := gemini.NewClient(ctx, cfg.ClassifierAPIKey, cfg.ClassifierModel, cfg.ClassifierBaseURL)
		if err != nil {
			return nil, err
		}
		return classifier.Instrument(provider, c), nil
	default:
		return nil, fmt.Errorf("%w: unknown classifier_provider %q", config.ErrInvalidConfig, provider)
	}
}
