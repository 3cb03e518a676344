package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/abhisek/verba/internal/conversation"
	"github.com/abhisek/verba/internal/logger"
)

// UserRepo reads and updates learner profiles.
type UserRepo interface {
	Create(ctx context.Context, u *User) error
	Get(ctx context.Context, id uint) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdateGoal(ctx context.Context, id uint, goal string) (*User, error)
	UpdateLevel(ctx context.Context, id uint, level conversation.Level) (*User, error)
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, log *logger.Logger) UserRepo {
	if log == nil {
		log = logger.Nop()
	}
	return &userRepo{db: db, log: log.With("repo", "UserRepo")}
}

func (r *userRepo) Create(ctx context.Context, u *User) error {
	if u.Name == "" || u.Email == "" {
		return fmt.Errorf("user name and email are required")
	}
	if u.Level != conversation.LevelUnset && !u.Level.Valid() {
		return fmt.Errorf("invalid level %q", u.Level)
	}
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *userRepo) Get(ctx context.Context, id uint) (*User, error) {
	var u User
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	if err := r.db.WithContext(ctx).Where("email = ?", email).Take(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *userRepo) UpdateGoal(ctx context.Context, id uint, goal string) (*User, error) {
	return r.update(ctx, id, map[string]any{"goal": goal})
}

func (r *userRepo) UpdateLevel(ctx context.Context, id uint, level conversation.Level) (*User, error) {
	if !level.Valid() {
		return nil, fmt.Errorf("invalid level %q", level)
	}
	return r.update(ctx, id, map[string]any{"level": level})
}

func (r *userRepo) update(ctx context.Context, id uint, updates map[string]any) (*User, error) {
	updates["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("update user %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.Get(ctx, id)
}
