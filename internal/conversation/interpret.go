package conversation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abhisek/verba/internal/llm"
)

// ErrMalformedOutput indicates the completion text is not valid JSON.
type ErrMalformedOutput struct {
	Raw string
	Err error
}

func (e *ErrMalformedOutput) Error() string {
	return fmt.Sprintf("malformed lesson output: %v", e.Err)
}

func (e *ErrMalformedOutput) Unwrap() error { return e.Err }

// ErrIncompleteLesson indicates the completion decoded as JSON but lacks
// one or more lesson fields.
type ErrIncompleteLesson struct {
	Raw string
	Err error
}

func (e *ErrIncompleteLesson) Error() string {
	return fmt.Sprintf("incomplete lesson: %v", e.Err)
}

func (e *ErrIncompleteLesson) Unwrap() error { return e.Err }

// InterpretText extracts a plain-text reply from a completion result.
func InterpretText(resp *llm.Response) (string, error) {
	text, err := usableText(resp)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// InterpretLesson extracts and validates a lesson from a completion result.
func InterpretLesson(resp *llm.Response) (Lesson, error) {
	text, err := usableText(resp)
	if err != nil {
		return Lesson{}, err
	}
	return ParseLesson(text)
}

// ParseLesson decodes lesson JSON, tolerating a Markdown code fence around
// it. It returns *ErrMalformedOutput or *ErrIncompleteLesson on failure.
func ParseLesson(text string) (Lesson, error) {
	raw := StripFence(text)

	parsed, err := llm.ValidateJSON(nil, []byte(raw))
	if err != nil {
		return Lesson{}, &ErrMalformedOutput{Raw: text, Err: err}
	}
	if _, err := llm.ValidateJSON(LessonSchema, []byte(raw)); err != nil {
		return Lesson{}, &ErrIncompleteLesson{Raw: text, Err: err}
	}

	obj := parsed.(map[string]any)
	return Lesson{
		Title:    obj["title"].(string),
		Greeting: obj["greeting"].(string),
		Lesson:   obj["lesson"].(string),
		Practice: obj["practice"].(string),
	}, nil
}

// StripFence removes a surrounding ```json ... ``` or ``` ... ``` fence.
func StripFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop the info string ("json") up to the first newline.
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func usableText(resp *llm.Response) (string, error) {
	if resp == nil {
		return "", llm.ErrEmptyGeneration
	}
	if resp.Blocked() {
		return "", &llm.ErrContentBlocked{Reason: resp.BlockReason}
	}
	if strings.TrimSpace(resp.Text) == "" {
		return "", llm.ErrEmptyGeneration
	}
	return resp.Text, nil
}

// Encode returns the canonical JSON encoding of the lesson.
func (l Lesson) Encode() string {
	// Marshalling a struct of strings cannot fail.
	b, _ := json.Marshal(l)
	return string(b)
}
