package conversation

import (
	"fmt"
	"strings"
)

// Level is a learner's English level. The zero value means unset.
type Level string

const (
	LevelUnset        Level = ""
	LevelBeginner     Level = "Beginner"
	LevelIntermediate Level = "Intermediate"
	LevelAdvanced     Level = "Advanced"
)

// Levels lists the valid levels in ascending order.
var Levels = []Level{LevelBeginner, LevelIntermediate, LevelAdvanced}

// ParseLevel normalizes free text (e.g. a classifier reply such as
// "Intermediate." or "**advanced**") to a Level.
func ParseLevel(s string) (Level, error) {
	cleaned := strings.ToLower(strings.Trim(strings.TrimSpace(s), " .!*\"'`"))
	for _, l := range Levels {
		if cleaned == strings.ToLower(string(l)) {
			return l, nil
		}
	}
	// Fall back to a single unambiguous mention.
	var found []Level
	for _, l := range Levels {
		if strings.Contains(cleaned, strings.ToLower(string(l))) {
			found = append(found, l)
		}
	}
	if len(found) == 1 {
		return found[0], nil
	}
	return LevelUnset, fmt.Errorf("unrecognized level %q", s)
}

// Valid reports whether l is one of the three levels.
func (l Level) Valid() bool {
	for _, v := range Levels {
		if l == v {
			return true
		}
	}
	return false
}
