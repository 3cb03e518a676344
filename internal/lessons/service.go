// Package lessons generates lesson steps for onboarded learners and keeps
// their conversation log.
package lessons

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/verba/internal/conversation"
	"github.com/abhisek/verba/internal/llm"
	"github.com/abhisek/verba/internal/logger"
	"github.com/abhisek/verba/internal/metrics"
	"github.com/abhisek/verba/internal/realtime"
	"github.com/abhisek/verba/internal/store"
)

// ErrOnboardingIncomplete is returned when the learner has no goal or level.
var ErrOnboardingIncomplete = errors.New("complete onboarding first")

// ConversationView is a stored conversation as returned to clients.
type ConversationView struct {
	ID        uint                      `json:"id"`
	CreatedAt time.Time                 `json:"createdAt"`
	UserID    uint                      `json:"userId"`
	Messages  []conversation.StoredTurn `json:"messages"`
}

// Service generates lessons and records them in the learner's conversation.
type Service struct {
	provider      llm.Provider
	users         store.UserRepo
	conversations store.ConversationRepo
	bus           realtime.Bus
	cfg           Config
	log           *logger.Logger
	metrics       *metrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

func WithBus(b realtime.Bus) Option { return func(s *Service) { s.bus = b } }
func WithLogger(l *logger.Logger) Option { return func(s *Service) { s.log = l } }
func WithMetrics(m *metrics.Metrics) Option { return func(s *Service) { s.metrics = m } }

// NewService creates a lesson service.
func NewService(provider llm.Provider, users store.UserRepo, conversations store.ConversationRepo, cfg Config, opts ...Option) *Service {
	s := &Service{
		provider:      provider,
		users:         users,
		conversations: conversations,
		cfg:           cfg,
		log:           logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("service", "lessons")
	return s
}

// Start generates the next lesson step in reply to message and appends the
// exchange to the learner's conversation. The stored conversation is the
// history of record; clientHistory is only used when nothing is stored yet.
func (s *Service) Start(ctx context.Context, userID uint, message string, clientHistory []conversation.StoredTurn) (conversation.Lesson, error) {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return conversation.Lesson{}, fmt.Errorf("load user: %w", err)
	}
	if !user.Onboarded() {
		return conversation.Lesson{}, ErrOnboardingIncomplete
	}

	history, err := s.history(ctx, userID, clientHistory)
	if err != nil {
		return conversation.Lesson{}, err
	}

	msgs := conversation.MapHistory(conversation.Recent(history, HistoryLimit))
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: message})

	resp, err := s.provider.Generate(llm.WithPurpose(ctx, llm.PurposeLesson), llm.Request{
		System:      SystemPrompt(user.Name, user.Goal, user.Level),
		Messages:    msgs,
		Schema:      LessonSchema,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return conversation.Lesson{}, fmt.Errorf("lesson generation: %w", err)
	}

	lesson, err := conversation.InterpretLesson(resp)
	if err != nil {
		s.reportInterpretFailure(userID, resp, err)
		return conversation.Lesson{}, err
	}

	if _, err := s.conversations.Append(ctx, userID,
		conversation.UserText(message),
		conversation.AssistantLesson(lesson),
	); err != nil {
		return conversation.Lesson{}, fmt.Errorf("save conversation: %w", err)
	}

	s.publishRefresh(ctx, userID)
	return lesson, nil
}

// Conversation returns the learner's stored conversation with lessonData
// attached to lesson turns. It returns store.ErrNotFound when none exists.
func (s *Service) Conversation(ctx context.Context, userID uint) (*ConversationView, error) {
	c, err := s.conversations.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	turns, err := c.Turns()
	if err != nil {
		return nil, err
	}
	return &ConversationView{
		ID:        c.ID,
		CreatedAt: c.CreatedAt,
		UserID:    c.UserID,
		Messages:  conversation.WithLessonData(turns),
	}, nil
}

func (s *Service) history(ctx context.Context, userID uint, clientHistory []conversation.StoredTurn) ([]conversation.StoredTurn, error) {
	c, err := s.conversations.FindByUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return clientHistory, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	turns, err := c.Turns()
	if err != nil {
		return nil, err
	}
	if len(turns) == 0 {
		return clientHistory, nil
	}
	return turns, nil
}

func (s *Service) reportInterpretFailure(userID uint, resp *llm.Response, err error) {
	var (
		blocked    *llm.ErrContentBlocked
		malformed  *conversation.ErrMalformedOutput
		incomplete *conversation.ErrIncompleteLesson
	)
	switch {
	case errors.As(err, &blocked):
		s.metrics.ObserveInterpretFailure("blocked")
		s.log.Warn("lesson blocked by provider", "user_id", userID, "reason", blocked.Reason)
	case errors.As(err, &malformed):
		s.metrics.ObserveInterpretFailure("malformed")
		s.log.Error("lesson output is not JSON", "user_id", userID, "raw", malformed.Raw, "error", err)
	case errors.As(err, &incomplete):
		s.metrics.ObserveInterpretFailure("incomplete")
		s.log.Error("lesson output is incomplete", "user_id", userID, "raw", incomplete.Raw, "error", err)
	default:
		s.metrics.ObserveInterpretFailure("empty")
		stop := ""
		if resp != nil {
			stop = resp.StopReason
		}
		s.log.Error("lesson output is empty", "user_id", userID, "stop_reason", stop)
	}
}

func (s *Service) publishRefresh(ctx context.Context, userID uint) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(context.WithoutCancel(ctx), realtime.Refresh(userID)); err != nil {
		s.log.Warn("publish refresh failed", "user_id", userID, "error", err)
	}
}
