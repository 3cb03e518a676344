package llm

import (
	"math"
	"testing"
)

func TestLookupCostFor(t *testing.T) {
	tests := []struct {
		model string
		found bool
	}{
		{"gemini-2.5-flash", true},
		{"google/gemini-2.5-flash", true},
		{"openai/gpt-4o-mini", true},
		{"mock", false},
	}
	for _, tt := range tests {
		if got := LookupCostFor(tt.model); (got != nil) != tt.found {
			t.Errorf("LookupCostFor(%q) found = %v, want %v", tt.model, got != nil, tt.found)
		}
	}
}

func TestModelCost(t *testing.T) {
	c := ModelCost{InputPerMTok: 0.3, OutputPerMTok: 2.5}
	got := c.Cost(1_000_000, 200_000)
	if math.Abs(got-0.8) > 1e-9 {
		t.Fatalf("Cost() = %v, want 0.8", got)
	}
}
