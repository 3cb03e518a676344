package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/verba/internal/logger"
	"github.com/abhisek/verba/internal/metrics"
)

// mockReply is what the mock provider answers when no canned responses are
// queued, so `verba serve` works end to end without credentials.
const mockReply = `{"title":"Practice","greeting":"Hello!","lesson":"Let's practise a short dialogue.","practice":"Tell me about your day in two sentences."}`

// NewProvider creates a Provider from configuration, wrapped with retry
// and logging middleware. events, log and m may be nil.
func NewProvider(ctx context.Context, cfg Config, events EventRecorder, log *logger.Logger, m *metrics.Metrics) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "mock":
		base = NewEchoMockProvider(MockResponse{Text: mockReply})
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	// caller → retry → logging → base
	logged := WithLogging(base, cfg.Provider, events, log, m)
	return WithRetry(logged, NewBackoff(cfg.Retry, log, m)), nil
}
