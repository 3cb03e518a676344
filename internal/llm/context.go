package llm

import "context"

type contextKey string

const purposeKey contextKey = "llm_purpose"

// Purpose labels used by the tutoring flows. They tag event rows, metrics
// and retry logs.
const (
	PurposeOnboardingChat = "onboarding-chat"
	PurposeClassify       = "goal-level-classify"
	PurposeGoalClean      = "goal-clean"
	PurposeLevelClassify  = "level-classify"
	PurposeLesson         = "lesson"
)

// WithPurpose attaches a purpose label to the context.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey, purpose)
}

// PurposeFrom extracts the purpose label from the context.
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey).(string); ok {
		return v
	}
	return "unknown"
}
