package storage

import (
	"anonrelay/backend/internal/models"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Storage is the persistence contract shared by the relay engine, the
// moderation controller and the admin CLI.
type Storage interface {
	UpsertUser(ctx context.Context, user *models.User) error
	IsBanned(ctx context.Context, userID int64) (bool, error)

	RecordMessage(ctx context.Context, userID int64, anonID string, content models.Content) (uint, error)
	FindPendingByAnonID(ctx context.Context, anonID string) (*models.Message, error)
	MarkReplied(ctx context.Context, anonID, response string) error
	MarkDone(ctx context.Context, anonID string) error
	BanUser(ctx context.Context, userID int64, reason string) error

	AnonIDInUse(ctx context.Context, anonID string) (bool, error)
	ListPending(ctx context.Context, limit int) ([]models.Message, error)
}

// Service implements Storage on top of GORM. Redis is optional and only
// caches positive ban lookups.
type Service struct {
	DB     *gorm.DB
	Redis  *redis.Client
	Logger *slog.Logger
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:     db,
		Redis:  rdb,
		Logger: slog.Default(),
	}
}

func banKey(userID int64) string {
	return "ban:" + strconv.FormatInt(userID, 10)
}

// UpsertUser inserts the user on first contact and leaves existing rows untouched.
func (s *Service) UpsertUser(ctx context.Context, user *models.User) error {
	result := s.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(user)
	if result.Error != nil {
		return fmt.Errorf("upsert user %d: %w", user.UserID, result.Error)
	}
	if result.RowsAffected > 0 {
		s.Logger.Info("new user registered", "user_id", user.UserID)
	}
	return nil
}

// IsBanned checks Redis first, then the banned_users table.
func (s *Service) IsBanned(ctx context.Context, userID int64) (bool, error) {
	if s.Redis != nil {
		_, err := s.Redis.Get(ctx, banKey(userID)).Result()
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, redis.Nil):
		default:
			s.Logger.Warn("ban cache lookup failed, falling back to database", "user_id", userID, "err", err)
		}
	}

	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.Ban{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check ban for %d: %w", userID, err)
	}
	if count > 0 {
		s.cacheBan(ctx, userID)
		return true, nil
	}
	return false, nil
}

func (s *Service) cacheBan(ctx context.Context, userID int64) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Set(ctx, banKey(userID), "1", 0).Err(); err != nil {
		s.Logger.Warn("failed to cache ban", "user_id", userID, "err", err)
	}
}

// RecordMessage stores a new pending message and returns its ID.
func (s *Service) RecordMessage(ctx context.Context, userID int64, anonID string, content models.Content) (uint, error) {
	msg := models.NewMessage(userID, anonID, content)
	if err := s.DB.WithContext(ctx).Create(msg).Error; err != nil {
		return 0, fmt.Errorf("record message %s: %w", anonID, err)
	}
	return msg.ID, nil
}

func latestPending(tx *gorm.DB, anonID string) (*models.Message, error) {
	var msg models.Message
	err := tx.Where("anon_id = ? AND status = ?", anonID, models.StatusPending).
		Order("sent_at desc").
		Order("id desc").
		First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find pending %s: %w", anonID, err)
	}
	return &msg, nil
}

// FindPendingByAnonID returns the most recent pending message carrying anonID.
func (s *Service) FindPendingByAnonID(ctx context.Context, anonID string) (*models.Message, error) {
	return latestPending(s.DB.WithContext(ctx), anonID)
}

// MarkReplied moves the most recent pending message for anonID to replied.
func (s *Service) MarkReplied(ctx context.Context, anonID, response string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		msg, err := latestPending(tx, anonID)
		if err != nil {
			return err
		}
		return tx.Model(&models.Message{}).
			Where("id = ?", msg.ID).
			Updates(map[string]interface{}{
				"status":         models.StatusReplied,
				"admin_response": response,
			}).Error
	})
}

// MarkDone sets status=done on every message with anonID, whatever its
// current status. ErrNotFound is returned when no row matched.
func (s *Service) MarkDone(ctx context.Context, anonID string) error {
	result := s.DB.WithContext(ctx).Model(&models.Message{}).
		Where("anon_id = ?", anonID).
		Update("status", models.StatusDone)
	if result.Error != nil {
		return fmt.Errorf("mark done %s: %w", anonID, result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

// BanUser records the ban (once) and marks every message of the user as banned.
func (s *Service) BanUser(ctx context.Context, userID int64, reason string) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ban := models.Ban{UserID: userID, Reason: reason}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&ban).Error; err != nil {
			return err
		}
		return tx.Model(&models.Message{}).
			Where("user_id = ?", userID).
			Update("status", models.StatusBanned).Error
	})
	if err != nil {
		return fmt.Errorf("ban user %d: %w", userID, err)
	}
	s.cacheBan(ctx, userID)
	return nil
}

// AnonIDInUse reports whether a pending message already carries anonID.
func (s *Service) AnonIDInUse(ctx context.Context, anonID string) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.Message{}).
		Where("anon_id = ? AND status = ?", anonID, models.StatusPending).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListPending returns the newest pending messages, at most limit rows.
func (s *Service) ListPending(ctx context.Context, limit int) ([]models.Message, error) {
	var msgs []models.Message
	err := s.DB.WithContext(ctx).
		Where("status = ?", models.StatusPending).
		Order("sent_at desc").
		Order("id desc").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}
