package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/threadher/threadher/internal/breaker"
)

const (
	defaultAnthropicVersion = "bedrock-2023-05-31"

	// DefaultBedrockModel is the Claude model used for garment descriptions.
	DefaultBedrockModel = "anthropic.claude-3-sonnet-20240229-v1:0"
)

// BedrockAPI is the subset of the Bedrock runtime client in use.
type BedrockAPI interface {
	InvokeModel(ctx context.Context, in *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockConfig holds configuration for the Bedrock client.
type BedrockConfig struct {
	Region     string
	Model      string // default: DefaultBedrockModel
	MaxTokens  int    // default: 1000
	MaxRetries int    // default: 2
}

// BedrockClient implements VisionGenerator with Claude on Bedrock.
type BedrockClient struct {
	cfg     BedrockConfig
	api     BedrockAPI
	breaker *breaker.Breaker
}

// NewBedrockClient wraps an existing runtime client.
func NewBedrockClient(api BedrockAPI, cfg BedrockConfig) *BedrockClient {
	if cfg.Model == "" {
		cfg.Model = DefaultBedrockModel
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 2
	}
	return &BedrockClient{cfg: cfg, api: api, breaker: breaker.New("bedrock:" + cfg.Model)}
}

// NewBedrockClientFromEnv loads the default AWS configuration for cfg.Region.
func NewBedrockClientFromEnv(ctx context.Context, cfg BedrockConfig) (*BedrockClient, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return NewBedrockClientFromConfig(awsCfg, cfg), nil
}

// NewBedrockClientFromConfig builds a client from an AWS configuration.
func NewBedrockClientFromConfig(awsCfg aws.Config, cfg BedrockConfig) *BedrockClient {
	return NewBedrockClient(bedrockruntime.NewFromConfig(awsCfg), cfg)
}

// DescribeImage invokes the model with the image and prompt and returns the first text block.
func (c *BedrockClient) DescribeImage(ctx context.Context, prompt string, image []byte, mediaType string) (string, error) {
	text, err := breaker.Do(ctx, c.breaker, func() (string, error) {
		return c.describe(ctx, prompt, image, mediaType)
	})
	if err != nil {
		if errors.Is(err, breaker.ErrCircuitOpen) {
			return "", fmt.Errorf("bedrock circuit breaker open: %w", err)
		}
		return "", err
	}
	return text, nil
}

func (c *BedrockClient) describe(ctx context.Context, prompt string, image []byte, mediaType string) (string, error) {
	data, err := json.Marshal(messagesRequest{
		AnthropicVersion: defaultAnthropicVersion,
		MaxTokens:        c.cfg.MaxTokens,
		Messages:         imageTurn(prompt, image, mediaType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	in := &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.cfg.Model),
		Body:        data,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	}

	var out *bedrockruntime.InvokeModelOutput
	var invokeErr error
	for i := 0; i < max(1, c.cfg.MaxRetries); i++ {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		out, invokeErr = c.api.InvokeModel(ctx, in)
		if invokeErr == nil {
			break
		}
	}
	if invokeErr != nil {
		return "", fmt.Errorf("failed to invoke Bedrock model: %w", invokeErr)
	}

	var resp messagesResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return resp.firstText()
}

// GetModel returns the configured model id.
func (c *BedrockClient) GetModel() string {
	return c.cfg.Model
}

var _ VisionGenerator = (*BedrockClient)(nil)
