package store

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/abhisek/verba/internal/conversation"
)

// User is a learner. Goal and Level are set during onboarding.
type User struct {
	ID        uint               `gorm:"primaryKey" json:"id"`
	Name      string             `gorm:"not null" json:"name"`
	Email     string             `gorm:"uniqueIndex;not null" json:"email"`
	Goal      string             `gorm:"not null;default:''" json:"goal"`
	Level     conversation.Level `gorm:"type:varchar(16);not null;default:''" json:"level"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// Onboarded reports whether both goal and level are set.
func (u *User) Onboarded() bool {
	return u.Goal != "" && u.Level != conversation.LevelUnset
}

// Conversation is a learner's single ordered log of turns. Messages holds
// a JSON array of conversation.StoredTurn. Version increases with every
// append and guards against lost updates.
type Conversation struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"uniqueIndex;not null" json:"userId"`
	Messages  datatypes.JSON `gorm:"not null" json:"messages"`
	Version   int64          `gorm:"not null;default:1" json:"-"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// Turns decodes the stored messages.
func (c *Conversation) Turns() ([]conversation.StoredTurn, error) {
	if len(c.Messages) == 0 {
		return nil, nil
	}
	var turns []conversation.StoredTurn
	if err := json.Unmarshal(c.Messages, &turns); err != nil {
		return nil, fmt.Errorf("decode conversation %d: %w", c.ID, err)
	}
	return turns, nil
}

// LLMRequestEvent records one provider call.
type LLMRequestEvent struct {
	ID           uint      `gorm:"primaryKey"`
	Timestamp    time.Time `gorm:"index;not null"`
	Provider     string    `gorm:"not null"`
	Model        string    `gorm:"index;not null"`
	Purpose      string    `gorm:"index;not null"`
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string `gorm:"type:text"`
	RequestBody  string `gorm:"type:text"`
	ResponseBody string `gorm:"type:text"`
}
