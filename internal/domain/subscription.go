package domain

import "time"

// Subscription represents a user following a channel (another user).
// One row per (subscriber, channel) pair.
type Subscription struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	SubscriberID int64     `json:"subscriber_id" gorm:"index:idx_subscriptions_pair,unique;not null"`
	ChannelID    int64     `json:"channel_id" gorm:"index:idx_subscriptions_pair,unique;not null"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Subscription) TableName() string { return "subscriptions" }
