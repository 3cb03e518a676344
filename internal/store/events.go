package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/abhisek/verba/internal/llm"
	"github.com/abhisek/verba/internal/logger"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	Purpose string    // exact purpose match ("" = any)
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
}

// UsageStats aggregates LLM calls under one key (purpose or model).
type UsageStats struct {
	Key          string `gorm:"column:grp"`
	Calls        int
	InputTokens  int
	OutputTokens int
	Failures     int
	AvgLatencyMs int64
}

// EventRepo records and queries LLM request events. It implements
// llm.EventRecorder.
type EventRepo interface {
	llm.EventRecorder

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)
	// GetLLMEvent returns one event or ErrNotFound.
	GetLLMEvent(ctx context.Context, id uint) (*LLMRequestEvent, error)
	// LLMUsageByPurpose aggregates token usage per purpose.
	LLMUsageByPurpose(ctx context.Context) ([]UsageStats, error)
	// LLMUsageByModel aggregates token usage per model.
	LLMUsageByModel(ctx context.Context) ([]UsageStats, error)
}

type eventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEventRepo(db *gorm.DB, log *logger.Logger) EventRepo {
	if log == nil {
		log = logger.Nop()
	}
	return &eventRepo{db: db, log: log.With("repo", "EventRepo")}
}

func (r *eventRepo) RecordLLMRequest(ctx context.Context, ev llm.RequestEvent) error {
	row := &LLMRequestEvent{
		Timestamp:    time.Now().UTC(),
		Provider:     ev.Provider,
		Model:        ev.Model,
		Purpose:      ev.Purpose,
		InputTokens:  ev.InputTokens,
		OutputTokens: ev.OutputTokens,
		LatencyMs:    ev.LatencyMs,
		Success:      ev.Success,
		ErrorMessage: ev.ErrorMessage,
		RequestBody:  ev.RequestBody,
		ResponseBody: ev.ResponseBody,
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error) {
	q := r.db.WithContext(ctx).Model(&LLMRequestEvent{})
	if opts.Purpose != "" {
		q = q.Where("purpose = ?", opts.Purpose)
	}
	if !opts.From.IsZero() {
		q = q.Where("timestamp >= ?", opts.From)
	}
	if !opts.To.IsZero() {
		q = q.Where("timestamp <= ?", opts.To)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}

	var out []LLMRequestEvent
	if err := q.Order("id DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}
	return out, nil
}

func (r *eventRepo) GetLLMEvent(ctx context.Context, id uint) (*LLMRequestEvent, error) {
	var e LLMRequestEvent
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&e).Error; err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

func (r *eventRepo) LLMUsageByPurpose(ctx context.Context) ([]UsageStats, error) {
	return r.usageBy(ctx, "purpose")
}

func (r *eventRepo) LLMUsageByModel(ctx context.Context) ([]UsageStats, error) {
	return r.usageBy(ctx, "model")
}

func (r *eventRepo) usageBy(ctx context.Context, column string) ([]UsageStats, error) {
	var out []UsageStats
	err := r.db.WithContext(ctx).
		Model(&LLMRequestEvent{}).
		Select(column + " AS grp, COUNT(*) AS calls, " +
			"COALESCE(SUM(input_tokens), 0) AS input_tokens, " +
			"COALESCE(SUM(output_tokens), 0) AS output_tokens, " +
			"SUM(CASE WHEN success THEN 0 ELSE 1 END) AS failures, " +
			"CAST(COALESCE(AVG(latency_ms), 0) AS INTEGER) AS avg_latency_ms").
		Group(column).
		Order("calls DESC, grp ASC").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate LLM usage by %s: %w", column, err)
	}
	return out, nil
}
