package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestMockProvider_ReturnsCannedResponses(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Text: "first", Usage: Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}},
		MockResponse{Text: "second"},
	)

	resp1, err := mock.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "a"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp1.Text != "first" {
		t.Fatalf("expected 'first', got %q", resp1.Text)
	}
	if resp1.Usage.InputTokens != 10 {
		t.Fatalf("expected 10 input tokens, got %d", resp1.Usage.InputTokens)
	}
	if resp1.StopReason != "end" {
		t.Fatalf("expected stop reason 'end', got %q", resp1.StopReason)
	}

	resp2, err := mock.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp2.Text != "second" {
		t.Fatalf("expected 'second', got %q", resp2.Text)
	}
}

func TestMockProvider_EmptyQueueReturnsError(t *testing.T) {
	mock := NewMockProvider()
	_, err := mock.Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable, got: %T", err)
	}
}

func TestMockProvider_FallbackRepeats(t *testing.T) {
	mock := NewEchoMockProvider(MockResponse{Text: "again"})
	for range 3 {
		resp, err := mock.Generate(context.Background(), Request{})
		if err != nil || resp.Text != "again" {
			t.Fatalf("got %v, %v", resp, err)
		}
	}
}

func TestMockProvider_BlockReason(t *testing.T) {
	mock := NewMockProvider(MockResponse{BlockReason: "SAFETY"})
	resp, err := mock.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Blocked() || resp.StopReason != "safety" {
		t.Fatalf("expected blocked response, got %+v", resp)
	}
}

func TestMockProvider_RecordsCalls(t *testing.T) {
	mock := NewMockProvider(MockResponse{Text: "{}"})

	req := Request{
		System:   "sys",
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	}
	_, _ = mock.Generate(context.Background(), req)

	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call, got %d", mock.CallCount())
	}
	if mock.Call(0).System != "sys" {
		t.Fatalf("expected system 'sys', got %q", mock.Call(0).System)
	}
}

func TestPurposeContext(t *testing.T) {
	ctx := context.Background()
	if p := PurposeFrom(ctx); p != "unknown" {
		t.Fatalf("expected 'unknown', got %q", p)
	}

	ctx = WithPurpose(ctx, PurposeLesson)
	if p := PurposeFrom(ctx); p != PurposeLesson {
		t.Fatalf("expected %q, got %q", PurposeLesson, p)
	}
}

type recorder struct {
	events []RequestEvent
	err    error
}

func (r *recorder) RecordLLMRequest(_ context.Context, ev RequestEvent) error {
	r.events = append(r.events, ev)
	return r.err
}

func TestLoggingProvider_RecordsEvents(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Text: "hi", Usage: Usage{InputTokens: 3, OutputTokens: 2}},
		MockResponse{Err: &ErrRateLimit{Err: errors.New("429")}},
	)
	rec := &recorder{}
	p := WithLogging(mock, "mock", rec, nil, nil)

	ctx := WithPurpose(context.Background(), PurposeOnboardingChat)
	req := Request{System: "be nice", Messages: []Message{{Role: RoleUser, Content: "hello"}}}
	if _, err := p.Generate(ctx, req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.Generate(ctx, req); err == nil {
		t.Fatal("expected error")
	}

	if len(rec.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(rec.events))
	}
	ok := rec.events[0]
	if !ok.Success || ok.Purpose != PurposeOnboardingChat || ok.ResponseBody != "hi" || ok.InputTokens != 3 {
		t.Fatalf("unexpected success event: %+v", ok)
	}
	if !strings.Contains(ok.RequestBody, "[system]\nbe nice") || !strings.Contains(ok.RequestBody, "[user]\nhello") {
		t.Fatalf("unexpected request body: %q", ok.RequestBody)
	}
	failed := rec.events[1]
	if failed.Success || !strings.Contains(failed.ErrorMessage, "rate limited") {
		t.Fatalf("unexpected failure event: %+v", failed)
	}
}

func TestLoggingProvider_RecorderFailureDoesNotFailCall(t *testing.T) {
	mock := NewMockProvider(MockResponse{Text: "hi"})
	p := WithLogging(mock, "mock", &recorder{err: errors.New("disk full")}, nil, nil)

	resp, err := p.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != "hi" {
		t.Fatalf("unexpected text %q", resp.Text)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"gemini without key", Config{Provider: "gemini", Retry: DefaultRetryConfig()}, true},
		{"gemini with key", Config{Provider: "gemini", Gemini: GeminiConfig{APIKey: "k"}, Retry: DefaultRetryConfig()}, false},
		{"anthropic without key", Config{Provider: "anthropic", Retry: DefaultRetryConfig()}, true},
		{"openai with key", Config{Provider: "openai", OpenAI: OpenAIConfig{APIKey: "sk-test"}, Retry: DefaultRetryConfig()}, false},
		{"openrouter with key", Config{Provider: "openrouter", OpenRouter: OpenRouterConfig{APIKey: "or"}, Retry: DefaultRetryConfig()}, false},
		{"mock needs no key", Config{Provider: "mock", Retry: DefaultRetryConfig()}, false},
		{"zero attempts", Config{Provider: "mock"}, true},
		{"unknown provider", Config{Provider: "unknown", Retry: DefaultRetryConfig()}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("VERBA_LLM_PROVIDER", "openai")
	t.Setenv("VERBA_OPENAI_API_KEY", "sk-env")
	t.Setenv("VERBA_LLM_TIMEOUT", "5s")

	cfg := ConfigFromEnv()
	if cfg.Provider != "openai" || cfg.OpenAI.APIKey != "sk-env" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.Timeout != 5*time.Second {
		t.Fatalf("expected 5s timeout, got %v", cfg.Timeout)
	}
	if cfg.Gemini.Model != "gemini-2.5-flash" {
		t.Fatalf("expected default gemini model, got %q", cfg.Gemini.Model)
	}
}

func TestDiscoverConfig_PrefersGemini(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "g")
	t.Setenv("OPENAI_API_KEY", "o")

	cfg, ok := DiscoverConfig()
	if !ok || cfg.Provider != "gemini" || cfg.Gemini.APIKey != "g" {
		t.Fatalf("unexpected discovery: %v %+v", ok, cfg)
	}
}

func TestNewProvider_Mock(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "mock"
	rec := &recorder{}

	p, err := NewProvider(context.Background(), cfg, rec, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp, err := p.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ValidateJSON(nil, []byte(resp.Text)); err != nil {
		t.Fatalf("mock reply is not JSON: %v", err)
	}
	if len(rec.events) != 1 {
		t.Fatalf("expected 1 recorded event, got %d", len(rec.events))
	}
}

func TestNewProvider_Unknown(t *testing.T) {
	if _, err := NewProvider(context.Background(), Config{Provider: "nope"}, nil, nil, nil); err == nil {
		t.Fatal("expected error")
	}
}
