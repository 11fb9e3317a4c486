package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	appconfig "github.com/miz-art/Micro-narrativesxHarms-June25/internal/config"
	"github.com/miz-art/Micro-narrativesxHarms-June25/internal/llm"
	"github.com/miz-art/Micro-narrativesxHarms-June25/pkg/logging"
)

const llmCallTimeout = 90 * time.Second

// BuildLLMClient wires the configured completion provider, instrumented, with
// an optional fallback provider. The returned cleanup releases provider clients.
func BuildLLMClient(ctx context.Context, cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) (llm.Client, func(), error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var closers []func()
	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}

	primary, closer, err := buildProvider(ctx, cfg.LLMProvider, cfg, awsCfg)
	if err != nil {
		return nil, nil, err
	}
	if closer != nil {
		closers = append(closers, closer)
	}
	client := llm.Client(llm.NewInstrumentedClient(primary, cfg.LLMProvider, llmCallTimeout, logger))

	if name := cfg.LLMFallbackProvider; name != "" && name != cfg.LLMProvider {
		fallback, closer, err := buildProvider(ctx, name, cfg, awsCfg)
		if err != nil {
			logger.Warn("llm fallback provider unavailable; continuing without it", "provider", name, "error", err)
		} else {
			if closer != nil {
				closers = append(closers, closer)
			}
			client = llm.NewFallbackClient(client, llm.NewInstrumentedClient(fallback, name, llmCallTimeout, logger), logger)
			logger.Info("llm fallback enabled", "primary", cfg.LLMProvider, "fallback", name)
		}
	}

	logger.Info("llm provider configured", "provider", cfg.LLMProvider)
	return client, cleanup, nil
}

func buildProvider(ctx context.Context, name string, cfg *appconfig.Config, awsCfg *aws.Config) (llm.Client, func(), error) {
	switch name {
	case "bedrock":
		if cfg.BedrockModelID == "" {
			return nil, nil, fmt.Errorf("bootstrap: BEDROCK_MODEL_ID is required for the bedrock provider")
		}
		if awsCfg == nil {
			return nil, nil, fmt.Errorf("bootstrap: aws config is required for the bedrock provider")
		}
		return llm.NewBedrockClient(bedrockruntime.NewFromConfig(*awsCfg), cfg.BedrockModelID), nil, nil
	case "openai":
		client, err := llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
		if err != nil {
			return nil, nil, fmt.Errorf("bootstrap: %w", err)
		}
		return client, nil, nil
	case "anthropic":
		client, err := llm.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		if err != nil {
			return nil, nil, fmt.Errorf("bootstrap: %w", err)
		}
		return client, nil, nil
	case "gemini":
		client, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, fmt.Errorf("bootstrap: %w", err)
		}
		return client, func() { _ = client.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("bootstrap: unknown llm provider %q", name)
	}
}
