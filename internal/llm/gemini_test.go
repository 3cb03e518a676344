package llm

import (
	"errors"
	"testing"

	"google.golang.org/genai"
)

func TestGeminiModelMapping(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"gemini-flash", "gemini-2.5-flash"},
		{"gemini-pro", "gemini-2.5-pro"},
		{"gemini-2.5-flash", "gemini-2.5-flash"}, // Pass-through
	}
	for _, tt := range tests {
		got := resolveModel(tt.input, geminiModels)
		if got != tt.expected {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestBuildGeminiSchema(t *testing.T) {
	def := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":    map[string]any{"type": "string", "minLength": 1},
			"greeting": map[string]any{"type": "string"},
			"level":    map[string]any{"type": "string", "enum": []any{"Beginner", "Advanced"}},
			"tags": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
		"required": []string{"title", "greeting"},
	}

	schema := buildGeminiSchema(def)

	if schema.Type != genai.TypeObject {
		t.Fatalf("expected OBJECT type, got %s", schema.Type)
	}
	if len(schema.Properties) != 4 {
		t.Fatalf("expected 4 properties, got %d", len(schema.Properties))
	}
	if schema.Properties["title"].Type != genai.TypeString {
		t.Fatalf("expected STRING for title, got %s", schema.Properties["title"].Type)
	}
	if len(schema.Properties["level"].Enum) != 2 {
		t.Fatalf("expected 2 enum values, got %d", len(schema.Properties["level"].Enum))
	}
	if schema.Properties["tags"].Items.Type != genai.TypeString {
		t.Fatalf("expected STRING for tags items, got %s", schema.Properties["tags"].Items.Type)
	}
	if len(schema.Required) != 2 || schema.PropertyOrdering[0] != "title" {
		t.Fatalf("unexpected required/ordering: %v %v", schema.Required, schema.PropertyOrdering)
	}
}

func TestGeminiBlockReason(t *testing.T) {
	tests := []struct {
		name   string
		result *genai.GenerateContentResponse
		want   string
	}{
		{
			name: "prompt blocked",
			result: &genai.GenerateContentResponse{
				PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: "SAFETY"},
			},
			want: "SAFETY",
		},
		{
			name: "candidate stopped for safety",
			result: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
			},
			want: "SAFETY",
		},
		{
			name: "normal stop",
			result: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonStop}},
			},
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := geminiBlockReason(tt.result); got != tt.want {
				t.Fatalf("geminiBlockReason() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMapGeminiError(t *testing.T) {
	rl := mapGeminiError(genai.APIError{Code: 429, Message: "quota"})
	var rateLimit *ErrRateLimit
	if !errors.As(rl, &rateLimit) {
		t.Fatalf("expected ErrRateLimit, got %T", rl)
	}

	over := mapGeminiError(genai.APIError{Code: 503, Message: "overloaded"})
	var unavail *ErrProviderUnavailable
	if !errors.As(over, &unavail) || !unavail.Overloaded() {
		t.Fatalf("expected overloaded ErrProviderUnavailable, got %v", over)
	}
	if !IsRetryable(over) {
		t.Fatal("503 must be retryable")
	}

	bad := mapGeminiError(genai.APIError{Code: 400, Message: "bad request"})
	if IsRetryable(bad) {
		t.Fatal("400 must not be retryable")
	}
}
