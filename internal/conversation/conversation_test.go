package conversation

import (
	"errors"
	"testing"

	"github.com/abhisek/verba/internal/llm"
)

func TestMapHistory_FlattensLesson(t *testing.T) {
	history := []StoredTurn{
		{Role: "assistant", Content: `{"title":"T","greeting":"Hi","lesson":"L","practice":"P"}`},
	}
	msgs := MapHistory(history)
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].Role != llm.RoleAssistant || msgs[0].Content != "Hi L P" {
		t.Fatalf("unexpected message %+v", msgs[0])
	}
}

func TestMapHistory_PreservesLength(t *testing.T) {
	history := []StoredTurn{
		{Role: "user", Content: "I want to speak at work"},
		{Role: "assistant", Content: "Great goal!"},
		{Role: "assistant", Content: `{"title":"T","lesson":`},
		{Role: "assistant", Content: `{"title":"A","lesson":"B"}`},
		{Role: "assistant", Content: ""},
		{Role: "assistant", LessonData: &Lesson{Title: "X", Greeting: "", Lesson: "Y", Practice: "Z"}},
		{Role: "system", Content: "odd"},
		{Role: "user", Content: "lets go"},
	}
	msgs := MapHistory(history)
	if len(msgs) != len(history) {
		t.Fatalf("length changed: %d -> %d", len(history), len(msgs))
	}

	want := []llm.Message{
		{Role: llm.RoleUser, Content: "I want to speak at work"},
		{Role: llm.RoleAssistant, Content: "Great goal!"},
		{Role: llm.RoleAssistant, Content: `{"title":"T","lesson":`},
		{Role: llm.RoleAssistant, Content: `{"title":"A","lesson":"B"}`},
		{Role: llm.RoleAssistant, Content: ""},
		{Role: llm.RoleAssistant, Content: "Y Z"},
		{Role: llm.RoleAssistant, Content: "odd"},
		{Role: llm.RoleUser, Content: "lets go"},
	}
	for i := range want {
		if msgs[i] != want[i] {
			t.Errorf("message %d = %+v, want %+v", i, msgs[i], want[i])
		}
	}
}

func TestRecent(t *testing.T) {
	h := make([]int, 25)
	for i := range h {
		h[i] = i
	}
	got := Recent(h, 20)
	if len(got) != 20 || got[0] != 5 || got[19] != 24 {
		t.Fatalf("unexpected tail %v", got)
	}
	if len(Recent(h[:3], 20)) != 3 {
		t.Fatal("short history should be returned whole")
	}
	if Recent(h, 0) != nil {
		t.Fatal("n=0 should return nil")
	}
}

func TestLessonRoundTrip(t *testing.T) {
	l := Lesson{Title: "Past tense", Greeting: "Great job!", Lesson: `Use "went" for go.`, Practice: "What did you do yesterday?"}

	got, err := InterpretLesson(&llm.Response{Text: l.Encode()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != l {
		t.Fatalf("round trip mismatch: %+v != %+v", got, l)
	}

	turn := DecodeTurn(EncodeTurn(AssistantLesson(l)))
	if turn.Kind() != KindLesson || *turn.Lesson != l {
		t.Fatalf("turn round trip mismatch: %+v", turn)
	}
}

func TestInterpretLesson(t *testing.T) {
	tests := []struct {
		name    string
		resp    *llm.Response
		want    Lesson
		wantErr func(error) bool
	}{
		{
			name: "fenced with empty greeting",
			resp: &llm.Response{Text: "```json\n{\"title\":\"A\",\"greeting\":\"\",\"lesson\":\"B\",\"practice\":\"C\"}\n```"},
			want: Lesson{Title: "A", Lesson: "B", Practice: "C"},
		},
		{
			name: "bare fence",
			resp: &llm.Response{Text: "```\n{\"title\":\"A\",\"greeting\":\"Hi\",\"lesson\":\"B\",\"practice\":\"C\"}\n```"},
			want: Lesson{Title: "A", Greeting: "Hi", Lesson: "B", Practice: "C"},
		},
		{
			name: "missing greeting and practice",
			resp: &llm.Response{Text: `{"title":"A","lesson":"B"}`},
			wantErr: func(err error) bool {
				var e *ErrIncompleteLesson
				return errors.As(err, &e) && e.Raw == `{"title":"A","lesson":"B"}`
			},
		},
		{
			name: "empty title",
			resp: &llm.Response{Text: `{"title":"","greeting":"","lesson":"B","practice":"C"}`},
			wantErr: func(err error) bool {
				var e *ErrIncompleteLesson
				return errors.As(err, &e)
			},
		},
		{
			name: "not json",
			resp: &llm.Response{Text: "Sure! Here is a lesson about greetings."},
			wantErr: func(err error) bool {
				var e *ErrMalformedOutput
				return errors.As(err, &e) && e.Raw == "Sure! Here is a lesson about greetings."
			},
		},
		{
			name:    "blocked",
			resp:    &llm.Response{BlockReason: "SAFETY"},
			wantErr: func(err error) bool { var e *llm.ErrContentBlocked; return errors.As(err, &e) && e.Reason == "SAFETY" },
		},
		{
			name:    "empty",
			resp:    &llm.Response{Text: "  \n"},
			wantErr: func(err error) bool { return errors.Is(err, llm.ErrEmptyGeneration) },
		},
		{
			name:    "nil response",
			resp:    nil,
			wantErr: func(err error) bool { return errors.Is(err, llm.ErrEmptyGeneration) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := InterpretLesson(tt.resp)
			if tt.wantErr != nil {
				if err == nil || !tt.wantErr(err) {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestInterpretText(t *testing.T) {
	got, err := InterpretText(&llm.Response{Text: "  Nice to meet you!\n"})
	if err != nil || got != "Nice to meet you!" {
		t.Fatalf("got %q, %v", got, err)
	}
	if _, err := InterpretText(&llm.Response{}); !errors.Is(err, llm.ErrEmptyGeneration) {
		t.Fatalf("expected ErrEmptyGeneration, got %v", err)
	}
}

func TestDecodeTurn_IncompleteLessonIsText(t *testing.T) {
	turn := DecodeTurn(StoredTurn{Role: "assistant", Content: `{"title":"A","lesson":"B"}`})
	if turn.Kind() != KindText {
		t.Fatalf("expected text turn, got %v", turn.Kind())
	}
	if turn.Text != `{"title":"A","lesson":"B"}` {
		t.Fatalf("unexpected text %q", turn.Text)
	}
}

func TestWithLessonData(t *testing.T) {
	l := Lesson{Title: "T", Greeting: "Hi", Lesson: "L", Practice: "P"}
	stored := EncodeTurns([]Turn{UserText("lets go"), AssistantLesson(l)})

	out := WithLessonData(stored)
	if out[0].LessonData != nil {
		t.Fatal("user turn must not carry lesson data")
	}
	if out[1].LessonData == nil || *out[1].LessonData != l {
		t.Fatalf("expected lesson data, got %+v", out[1])
	}
	if stored[1].LessonData != nil {
		t.Fatal("input must not be mutated")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"Beginner", LevelBeginner, false},
		{" intermediate.\n", LevelIntermediate, false},
		{"**Advanced**", LevelAdvanced, false},
		{"The level is Advanced", LevelAdvanced, false},
		{"Beginner or Intermediate", LevelUnset, true},
		{"fluent", LevelUnset, true},
		{"", LevelUnset, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLevel(%q) = %q, %v; want %q, err=%v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestStripFence(t *testing.T) {
	tests := map[string]string{
		"```json\n{}\n```": "{}",
		"```\n{}\n```":     "{}",
		"```json{}```":     "{}",
		"  {}  ":           "{}",
	}
	for in, want := range tests {
		if got := StripFence(in); got != want {
			t.Errorf("StripFence(%q) = %q, want %q", in, got, want)
		}
	}
}
