package onboarding

import (
	"fmt"
	"strings"
)

// SystemPrompt is the system instruction for the onboarding chat with name.
func SystemPrompt(name string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are Verba, a friendly and supportive AI English tutor. You are currently onboarding %s to the Verba learning experience.\n\n", name)
	b.WriteString("You have already said:\n")
	fmt.Fprintf(&b, "%q\n\n", greeting(name))
	b.WriteString("Now the user will respond.\n")

	b.WriteString(`
Your objectives:
1. Ask about the user's English learning goal (if not already provided).
2. Assess their current English level: Beginner, Intermediate, or Advanced.
3. Respond in a warm, encouraging, conversational tone. Keep it short, positive and natural, like a friendly human tutor.

Rules:
- If the user's message expresses their learning goal, reply only with: "goal has been set + ask for level"
- If the user's message expresses their English level, reply only with: "level has been set + suggest starting lesson"
- If both goal and level are expressed in the same message, reply only with: "goal and level have been set"
- Otherwise, continue the conversation naturally and helpfully.
- Once you know both the goal and the level, say "type lets go to start the first lesson".`)

	return b.String()
}

func greeting(name string) string {
	return fmt.Sprintf("Hi %s! Welcome to Verba. I'm excited to help you learn English. What's your English learning goal?", name)
}

// ClassifierPrompt asks whether message states a goal, a level, both or
// neither.
func ClassifierPrompt(message string) string {
	var b strings.Builder
	b.WriteString(`Analyze the following user message and tell me if it contains:
- a learning goal (what the user wants to achieve)
- an English level (e.g. beginner, intermediate, advanced, fluent, conversational, "just starting", "pretty good")
Respond with exactly one of: "goal", "level", "goal and level", or "none".
`)
	fmt.Fprintf(&b, "\nMessage: %q\n", message)
	return b.String()
}

// GoalCleanerPrompt asks for a single corrected, profanity-free sentence.
func GoalCleanerPrompt(goal string) string {
	var b strings.Builder
	b.WriteString(`You are a helpful text cleaner.
1. Correct all typos and grammar in the following user message.
2. Filter out any profanity or inappropriate language. If the message contains bad language, replace the entire goal with the neutral phrase: "My learning goal."
3. Return ONLY the single corrected and safe sentence. Do not add extra text, explanations, or quotes.
`)
	fmt.Fprintf(&b, "\nOriginal Goal Message: %q\n", goal)
	return b.String()
}

// LevelPrompt asks for exactly one of the three level names.
func LevelPrompt(message string) string {
	var b strings.Builder
	b.WriteString(`Analyze the following user message and classify the implied English level as one of these three categories:
- Beginner (just starting, low confidence, basic grammar and vocabulary)
- Intermediate (conversational, handles most situations, needs practice with complex grammar and nuance)
- Advanced (fluent, near-native, confident in professional or academic settings)

Your response MUST be only one of these words: "Beginner", "Intermediate", or "Advanced".
`)
	fmt.Fprintf(&b, "\nUser Message: %q\n", message)
	return b.String()
}

// Classification is what the classifier found in a learner message.
type Classification struct {
	Goal  bool
	Level bool
}

func (c Classification) None() bool { return !c.Goal && !c.Level }

// ParseClassification reads the classifier's answer. Matching is by
// substring, so "goal and level" sets both.
func ParseClassification(answer string) Classification {
	a := strings.ToLower(answer)
	return Classification{
		Goal:  strings.Contains(a, "goal"),
		Level: strings.Contains(a, "level"),
	}
}
