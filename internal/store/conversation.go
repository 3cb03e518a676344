package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/abhisek/verba/internal/conversation"
	"github.com/abhisek/verba/internal/logger"
	"github.com/abhisek/verba/internal/metrics"
)

// ErrConcurrentAppend is returned when an append kept losing the version
// race to concurrent writers.
var ErrConcurrentAppend = errors.New("conversation append: too many concurrent writers")

const defaultAppendAttempts = 10

// ConversationRepo is the per-learner conversation log.
type ConversationRepo interface {
	// FindByUser returns the learner's conversation or ErrNotFound.
	FindByUser(ctx context.Context, userID uint) (*Conversation, error)

	// Append adds turns to the learner's conversation in order, creating
	// the conversation when absent. Concurrent appends never lose turns.
	Append(ctx context.Context, userID uint, turns ...conversation.Turn) (*Conversation, error)

	// DeleteByUser removes the learner's conversation, if any.
	DeleteByUser(ctx context.Context, userID uint) error
}

// ConversationOption configures a ConversationRepo.
type ConversationOption func(*conversationRepo)

// WithMetrics records append outcomes.
func WithMetrics(m *metrics.Metrics) ConversationOption {
	return func(r *conversationRepo) { r.metrics = m }
}

// WithAppendAttempts bounds how often Append retries after losing a race.
func WithAppendAttempts(n int) ConversationOption {
	return func(r *conversationRepo) {
		if n > 0 {
			r.attempts = n
		}
	}
}

type conversationRepo struct {
	db       *gorm.DB
	log      *logger.Logger
	metrics  *metrics.Metrics
	attempts int
}

func NewConversationRepo(db *gorm.DB, log *logger.Logger, opts ...ConversationOption) ConversationRepo {
	if log == nil {
		log = logger.Nop()
	}
	r := &conversationRepo{
		db:       db,
		log:      log.With("repo", "ConversationRepo"),
		attempts: defaultAppendAttempts,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *conversationRepo) FindByUser(ctx context.Context, userID uint) (*Conversation, error) {
	var c Conversation
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Take(&c).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *conversationRepo) Append(ctx context.Context, userID uint, turns ...conversation.Turn) (*Conversation, error) {
	if len(turns) == 0 {
		return nil, fmt.Errorf("append: no turns")
	}
	added := conversation.EncodeTurns(turns)

	for attempt := range r.attempts {
		existing, err := r.FindByUser(ctx, userID)
		if errors.Is(err, ErrNotFound) {
			created, err := r.create(ctx, userID, added)
			if err == nil {
				r.metrics.ObserveAppend("create")
				return created, nil
			}
			if !isUniqueViolation(err) {
				return nil, err
			}
			// Another request created the row first; append to it instead.
			r.metrics.ObserveAppendConflict()
			r.log.Debug("conversation create lost race", "user_id", userID, "attempt", attempt+1)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("find conversation: %w", err)
		}

		ok, err := r.appendTo(ctx, existing, added)
		if err != nil {
			return nil, err
		}
		if ok {
			r.metrics.ObserveAppend("append")
			return existing, nil
		}
		r.metrics.ObserveAppendConflict()
		r.log.Debug("conversation version conflict", "user_id", userID, "attempt", attempt+1)
	}

	r.log.Warn("conversation append gave up", "user_id", userID, "attempts", r.attempts)
	return nil, ErrConcurrentAppend
}

func (r *conversationRepo) create(ctx context.Context, userID uint, turns []conversation.StoredTurn) (*Conversation, error) {
	raw, err := json.Marshal(turns)
	if err != nil {
		return nil, fmt.Errorf("encode turns: %w", err)
	}
	c := &Conversation{
		UserID:   userID,
		Messages: datatypes.JSON(raw),
		Version:  1,
	}
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return c, nil
}

// appendTo writes c's turns plus added, conditional on c's version being
// unchanged. It reports false when another writer got there first. On
// success c is updated in place.
func (r *conversationRepo) appendTo(ctx context.Context, c *Conversation, added []conversation.StoredTurn) (bool, error) {
	existing, err := c.Turns()
	if err != nil {
		return false, err
	}
	merged := make([]conversation.StoredTurn, 0, len(existing)+len(added))
	merged = append(merged, existing...)
	merged = append(merged, added...)

	raw, err := json.Marshal(merged)
	if err != nil {
		return false, fmt.Errorf("encode turns: %w", err)
	}

	now := time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&Conversation{}).
		Where("id = ? AND version = ?", c.ID, c.Version).
		Updates(map[string]any{
			"messages":   datatypes.JSON(raw),
			"version":    gorm.Expr("version + 1"),
			"updated_at": now,
		})
	if res.Error != nil {
		return false, fmt.Errorf("update conversation %d: %w", c.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	c.Messages = datatypes.JSON(raw)
	c.Version++
	c.UpdatedAt = now
	return true, nil
}

func (r *conversationRepo) DeleteByUser(ctx context.Context, userID uint) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&Conversation{}).Error
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err came from a unique index. gorm
// translates Postgres errors; the modernc SQLite driver is matched by text.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
