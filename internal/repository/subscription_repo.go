package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"videotube/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrAlreadySubscribed   = errors.New("already subscribed to this channel")
	ErrNotSubscribed       = errors.New("not subscribed to this channel")
	ErrCannotSubscribeSelf = errors.New("cannot subscribe to yourself")
)

// SubscriptionRepository handles the subscriber/channel relation and the
// both-direction counts the channel profile needs.
type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) Subscribe(ctx context.Context, subscriberID, channelID int64) error {
	if subscriberID == channelID {
		return ErrCannotSubscribeSelf
	}
	sub := &domain.Subscription{
		ID:           uuid.New().String(),
		SubscriberID: subscriberID,
		ChannelID:    channelID,
		CreatedAt:    time.Now(),
	}
	err := r.db.WithContext(ctx).Create(sub).Error
	if err != nil && isDuplicateError(err) {
		return ErrAlreadySubscribed
	}
	return err
}

func (r *SubscriptionRepository) Unsubscribe(ctx context.Context, subscriberID, channelID int64) error {
	result := r.db.WithContext(ctx).
		Where("subscriber_id = ? AND channel_id = ?", subscriberID, channelID).
		Delete(&domain.Subscription{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotSubscribed
	}
	return nil
}

// CountSubscribers returns how many users subscribe to the channel.
func (r *SubscriptionRepository) CountSubscribers(ctx context.Context, channelID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Subscription{}).
		Where("channel_id = ?", channelID).
		Count(&count).Error
	return count, err
}

// CountSubscribedTo returns how many channels the user subscribes to.
func (r *SubscriptionRepository) CountSubscribedTo(ctx context.Context, subscriberID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Subscription{}).
		Where("subscriber_id = ?", subscriberID).
		Count(&count).Error
	return count, err
}

func (r *SubscriptionRepository) IsSubscribed(ctx context.Context, subscriberID, channelID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Subscription{}).
		Where("subscriber_id = ? AND channel_id = ?", subscriberID, channelID).
		Count(&count).Error
	return count > 0, err
}

func isDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique failed") || strings.Contains(msg, "constraint failed")
}
