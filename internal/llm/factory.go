package llm

import (
	"context"
	"fmt"
	"time"
)

// Provider names accepted by NewVisionGenerator.
const (
	ProviderBedrock   = "bedrock"
	ProviderAnthropic = "anthropic"
	ProviderNone      = "none"
)

// Config selects and configures a vision provider.
type Config struct {
	Provider        string
	Region          string
	BedrockModel    string
	AnthropicModel  string
	AnthropicAPIKey string
	AnthropicURL    string
	Timeout         time.Duration
}

// NewVisionGenerator creates the VisionGenerator for cfg.Provider.
// Returns (nil, nil) for "none"; callers treat a nil generator as a
// description that always fails.
func NewVisionGenerator(ctx context.Context, cfg Config) (VisionGenerator, error) {
	switch cfg.Provider {
	case ProviderBedrock, "":
		return NewBedrockClientFromEnv(ctx, BedrockConfig{Region: cfg.Region, Model: cfg.BedrockModel})
	case ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("anthropic provider requires an API key")
		}
		return NewAnthropicClient(AnthropicConfig{
			APIKey:  cfg.AnthropicAPIKey,
			Model:   cfg.AnthropicModel,
			BaseURL: cfg.AnthropicURL,
			Timeout: cfg.Timeout,
		}), nil
	case ProviderNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported vision provider: %q", cfg.Provider)
	}
}
