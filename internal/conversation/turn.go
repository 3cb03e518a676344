// Package conversation holds the tutoring conversation model: turns,
// lessons, history mapping for completion calls and interpretation of
// completion output.
package conversation

import "strings"

// Role is the speaker of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Kind distinguishes plain text turns from generated lessons.
type Kind int

const (
	KindText Kind = iota
	KindLesson
)

func (k Kind) String() string {
	if k == KindLesson {
		return "lesson"
	}
	return "text"
}

// Lesson is one unit of tutoring content. Greeting may be empty.
type Lesson struct {
	Title    string `json:"title"`
	Greeting string `json:"greeting"`
	Lesson   string `json:"lesson"`
	Practice string `json:"practice"`
}

// Flatten returns what the tutor said: greeting, lesson and practice joined
// with single spaces. An empty greeting is skipped.
func (l Lesson) Flatten() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{l.Greeting, l.Lesson, l.Practice} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// Turn is a conversation turn at the domain boundary. Exactly one of Text
// and Lesson is meaningful, as reported by Kind.
type Turn struct {
	Role   Role
	Text   string
	Lesson *Lesson
}

// Kind reports whether the turn carries a lesson.
func (t Turn) Kind() Kind {
	if t.Lesson != nil {
		return KindLesson
	}
	return KindText
}

// UserText builds a user text turn.
func UserText(text string) Turn {
	return Turn{Role: RoleUser, Text: text}
}

// AssistantText builds an assistant text turn.
func AssistantText(text string) Turn {
	return Turn{Role: RoleAssistant, Text: text}
}

// AssistantLesson builds an assistant lesson turn.
func AssistantLesson(l Lesson) Turn {
	return Turn{Role: RoleAssistant, Lesson: &l}
}

// StoredTurn is the persisted, type-stable shape of a turn. Content is always
// text; lesson turns hold the canonical JSON encoding of the lesson.
//
// LessonData is never persisted. Clients send it with their local history
// and the API attaches it when returning a stored conversation.
type StoredTurn struct {
	Role       string  `json:"role"`
	Content    string  `json:"content"`
	LessonData *Lesson `json:"lessonData,omitempty"`
}

// EncodeTurn converts a domain turn to its stored form.
func EncodeTurn(t Turn) StoredTurn {
	st := StoredTurn{Role: string(t.Role), Content: t.Text}
	if t.Lesson != nil {
		st.Content = t.Lesson.Encode()
	}
	return st
}

// DecodeTurn converts a stored turn to a domain turn. An assistant turn
// becomes a lesson only when it carries lesson data or its content decodes
// to a complete lesson; anything else is text.
func DecodeTurn(st StoredTurn) Turn {
	t := Turn{Role: normalizeRole(st.Role), Text: st.Content}
	if t.Role != RoleAssistant {
		return t
	}
	if st.LessonData != nil && validLesson(*st.LessonData) {
		l := *st.LessonData
		return Turn{Role: RoleAssistant, Lesson: &l}
	}
	if l, err := ParseLesson(st.Content); err == nil {
		return Turn{Role: RoleAssistant, Lesson: &l}
	}
	return t
}

// EncodeTurns encodes a sequence of turns in order.
func EncodeTurns(turns []Turn) []StoredTurn {
	out := make([]StoredTurn, len(turns))
	for i, t := range turns {
		out[i] = EncodeTurn(t)
	}
	return out
}

// DecodeTurns decodes a sequence of stored turns in order.
func DecodeTurns(stored []StoredTurn) []Turn {
	out := make([]Turn, len(stored))
	for i, st := range stored {
		out[i] = DecodeTurn(st)
	}
	return out
}

// WithLessonData returns stored turns with LessonData attached to every
// turn that decodes to a lesson, for API responses.
func WithLessonData(stored []StoredTurn) []StoredTurn {
	out := make([]StoredTurn, len(stored))
	for i, st := range stored {
		out[i] = StoredTurn{Role: st.Role, Content: st.Content}
		if t := DecodeTurn(st); t.Kind() == KindLesson {
			out[i].LessonData = t.Lesson
		}
	}
	return out
}

// normalizeRole maps unknown roles to assistant; completion APIs only know
// two speakers and the user side is always explicit.
func normalizeRole(r string) Role {
	if Role(r) == RoleUser {
		return RoleUser
	}
	return RoleAssistant
}

func validLesson(l Lesson) bool {
	return l.Title != "" && l.Lesson != "" && l.Practice != ""
}
