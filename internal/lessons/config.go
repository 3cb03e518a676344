package lessons

import "time"

// HistoryLimit is how many past turns are sent with a lesson request.
const HistoryLimit = 20

// Config holds lesson generation settings.
type Config struct {
	MaxTokens   int
	Temperature float64

	// Timeout bounds one Start call, retries included.
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults for lesson generation.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   1024,
		Temperature: 0.65,
		Timeout:     60 * time.Second,
	}
}
