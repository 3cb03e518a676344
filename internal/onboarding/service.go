// Package onboarding runs the chat that collects a learner's goal and level.
package onboarding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/verba/internal/conversation"
	"github.com/abhisek/verba/internal/llm"
	"github.com/abhisek/verba/internal/logger"
	"github.com/abhisek/verba/internal/metrics"
	"github.com/abhisek/verba/internal/realtime"
	"github.com/abhisek/verba/internal/store"
)

var (
	// ErrUserNotFound is returned when the authenticated learner has no row.
	ErrUserNotFound = errors.New("user not found")
	ErrEmptyGoal    = errors.New("goal is required")
)

const (
	// CompletionMessage replaces the chat reply once goal and level are known.
	CompletionMessage = "Great! Your goal and level have been set. Click 'Go To Dashboard' to start your first lesson!"

	// FallbackReply is sent when the model produced no text.
	FallbackReply = "I apologize, I had trouble responding."

	// DefaultGoal is stored when the goal cleaner returns nothing usable.
	DefaultGoal = "My learning goal"
)

// Result is the outcome of one onboarding chat turn.
type Result struct {
	Reply              string
	User               *store.User
	OnboardingComplete bool
}

// Service answers onboarding chat messages and records goal and level.
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

// NewService creates an onboarding service.
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
	s.log = s.log.With("service", "onboarding")
	return s
}

// Chat answers message in the context of the client-held history. While the
// learner's goal or level is unset, the message is also classified and the
// detected goal and/or level are stored.
func (s *Service) Chat(ctx context.Context, userID uint, message string, history []conversation.StoredTurn) (*Result, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	reply, err := s.reply(ctx, user, message, history)
	if err != nil {
		return nil, err
	}

	if user.Onboarded() {
		return &Result{Reply: reply, User: user, OnboardingComplete: true}, nil
	}

	class, err := s.classify(ctx, message)
	if err != nil {
		return nil, err
	}
	s.log.Debug("classified onboarding message", "user_id", userID, "goal", class.Goal, "level", class.Level)

	if class.Goal {
		goal, err := s.cleanGoal(ctx, message)
		if err != nil {
			return nil, err
		}
		if user, err = s.users.UpdateGoal(ctx, userID, goal); err != nil {
			return nil, fmt.Errorf("save goal: %w", err)
		}
	}

	if class.Level {
		level, err := s.classifyLevel(ctx, message)
		switch {
		case err == nil:
			if user, err = s.users.UpdateLevel(ctx, userID, level); err != nil {
				return nil, fmt.Errorf("save level: %w", err)
			}
		case errors.As(err, new(*levelParseError)):
			s.log.Warn("level classifier answer not recognised; level left unset", "user_id", userID, "error", err)
		default:
			return nil, err
		}
	}

	if user.Onboarded() {
		return &Result{Reply: CompletionMessage, User: user, OnboardingComplete: true}, nil
	}
	return &Result{Reply: reply, User: user}, nil
}

// ChangeGoal cleans and stores a new goal. The learner's conversation is
// deleted because its lessons were built for the old goal.
func (s *Service) ChangeGoal(ctx context.Context, userID uint, goal string) (*store.User, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return nil, ErrEmptyGoal
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.loadUser(ctx, userID); err != nil {
		return nil, err
	}

	cleaned, err := s.cleanGoal(ctx, goal)
	if err != nil {
		return nil, err
	}

	if err := s.conversations.DeleteByUser(ctx, userID); err != nil {
		return nil, err
	}
	user, err := s.users.UpdateGoal(ctx, userID, cleaned)
	if err != nil {
		return nil, fmt.Errorf("save goal: %w", err)
	}

	s.publishRefresh(ctx, userID)
	s.log.Info("goal changed", "user_id", userID)
	return user, nil
}

func (s *Service) reply(ctx context.Context, user *store.User, message string, history []conversation.StoredTurn) (string, error) {
	msgs := conversation.MapHistory(history)
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: message})

	resp, err := s.provider.Generate(llm.WithPurpose(ctx, llm.PurposeOnboardingChat), llm.Request{
		System:      SystemPrompt(user.Name),
		Messages:    msgs,
		MaxTokens:   s.cfg.ChatMaxTokens,
		Temperature: s.cfg.ChatTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("onboarding chat: %w", err)
	}

	text, err := conversation.InterpretText(resp)
	if errors.Is(err, llm.ErrEmptyGeneration) {
		s.metrics.ObserveInterpretFailure("empty")
		return FallbackReply, nil
	}
	if err != nil {
		s.metrics.ObserveInterpretFailure("blocked")
		return "", err
	}
	return text, nil
}

func (s *Service) classify(ctx context.Context, message string) (Classification, error) {
	text, err := s.ask(llm.WithPurpose(ctx, llm.PurposeClassify), ClassifierPrompt(message))
	if errors.Is(err, llm.ErrEmptyGeneration) {
		return Classification{}, nil
	}
	if err != nil {
		return Classification{}, fmt.Errorf("classify message: %w", err)
	}
	return ParseClassification(text), nil
}

// cleanGoal falls back to DefaultGoal when the cleaner returns nothing or
// refuses, which is what happens with abusive input.
func (s *Service) cleanGoal(ctx context.Context, goal string) (string, error) {
	text, err := s.ask(llm.WithPurpose(ctx, llm.PurposeGoalClean), GoalCleanerPrompt(goal))
	var blocked *llm.ErrContentBlocked
	if errors.Is(err, llm.ErrEmptyGeneration) || errors.As(err, &blocked) {
		return DefaultGoal, nil
	}
	if err != nil {
		return "", fmt.Errorf("clean goal: %w", err)
	}
	cleaned := strings.Trim(strings.TrimSpace(text), `"`)
	if cleaned == "" {
		return DefaultGoal, nil
	}
	return cleaned, nil
}

type levelParseError struct{ err error }

func (e *levelParseError) Error() string { return e.err.Error() }
func (e *levelParseError) Unwrap() error { return e.err }

func (s *Service) classifyLevel(ctx context.Context, message string) (conversation.Level, error) {
	text, err := s.ask(llm.WithPurpose(ctx, llm.PurposeLevelClassify), LevelPrompt(message))
	if errors.Is(err, llm.ErrEmptyGeneration) {
		return "", &levelParseError{err: err}
	}
	if err != nil {
		return "", fmt.Errorf("classify level: %w", err)
	}
	level, err := conversation.ParseLevel(text)
	if err != nil {
		return "", &levelParseError{err: err}
	}
	return level, nil
}

// ask sends a single-message prompt and interprets the reply as text.
func (s *Service) ask(ctx context.Context, prompt string) (string, error) {
	resp, err := s.provider.Generate(ctx, llm.Request{
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		MaxTokens:   s.cfg.AuxMaxTokens,
		Temperature: s.cfg.AuxTemperature,
	})
	if err != nil {
		return "", err
	}
	return conversation.InterpretText(resp)
}

func (s *Service) loadUser(ctx context.Context, userID uint) (*store.User, error) {
	user, err := s.users.Get(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

func (s *Service) publishRefresh(ctx context.Context, userID uint) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(context.WithoutCancel(ctx), realtime.Refresh(userID)); err != nil {
		s.log.Warn("publish refresh failed", "user_id", userID, "error", err)
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.Timeout)
}
