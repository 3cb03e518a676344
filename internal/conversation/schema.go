package conversation

import "github.com/abhisek/verba/internal/llm"

// LessonSchemaDefinition is the JSON Schema a generated lesson must satisfy.
// greeting is required but may be empty.
var LessonSchemaDefinition = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"title": map[string]any{
			"type":        "string",
			"description": "Short lesson title, at most five words",
			"minLength":   1,
		},
		"greeting": map[string]any{
			"type":        "string",
			"description": "Feedback on the learner's last answer or a short greeting",
		},
		"lesson": map[string]any{
			"type":        "string",
			"description": "One or two short sentences with an example or the next step",
			"minLength":   1,
		},
		"practice": map[string]any{
			"type":        "string",
			"description": "One short practice question",
			"minLength":   1,
		},
	},
	"required": []string{"title", "greeting", "lesson", "practice"},
}

// LessonSchema is the structured-output schema sent with lesson requests
// and used to validate their results.
var LessonSchema = &llm.Schema{
	Name:        "english-lesson",
	Description: "A short English lesson step with feedback and a practice question",
	Definition:  LessonSchemaDefinition,
}
