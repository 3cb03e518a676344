package onboarding

import "time"

// Config holds onboarding generation settings.
type Config struct {
	ChatMaxTokens   int
	ChatTemperature float64

	// AuxMaxTokens and AuxTemperature apply to the classifier and goal
	// cleaner calls.
	AuxMaxTokens   int
	AuxTemperature float64

	// Timeout bounds one Chat or ChangeGoal call, retries included.
	Timeout time.Duration
}

// DefaultConfig returns the onboarding defaults.
func DefaultConfig() Config {
	return Config{
		ChatMaxTokens:   300,
		ChatTemperature: 0.7,
		AuxMaxTokens:    256,
		AuxTemperature:  0,
		Timeout:         60 * time.Second,
	}
}
