package conversation

import "github.com/abhisek/verba/internal/llm"

// MapHistory converts stored turns into the message sequence a completion
// call expects. It is order- and length-preserving: every input turn yields
// exactly one message, with lesson turns flattened to what the tutor said.
func MapHistory(history []StoredTurn) []llm.Message {
	out := make([]llm.Message, len(history))
	for i, st := range history {
		out[i] = mapTurn(DecodeTurn(st))
	}
	return out
}

// MapTurns is MapHistory for already-decoded turns.
func MapTurns(turns []Turn) []llm.Message {
	out := make([]llm.Message, len(turns))
	for i, t := range turns {
		out[i] = mapTurn(t)
	}
	return out
}

func mapTurn(t Turn) llm.Message {
	if t.Role == RoleUser {
		return llm.Message{Role: llm.RoleUser, Content: t.Text}
	}
	if t.Lesson != nil {
		return llm.Message{Role: llm.RoleAssistant, Content: t.Lesson.Flatten()}
	}
	return llm.Message{Role: llm.RoleAssistant, Content: t.Text}
}

// Recent returns the last n turns of history, or all of it when shorter.
func Recent[T any](history []T, n int) []T {
	if n <= 0 {
		return nil
	}
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
