package domain

import "time"

// Video is the minimal record the watch-history projection needs.
type Video struct {
	ID          int64  `json:"id" gorm:"primaryKey"`
	OwnerID     int64  `json:"owner_id" gorm:"index;not null"`
	Title       string `json:"title" gorm:"not null"`
	Description string `json:"description,omitempty"`
	FileURL     string `json:"file_url"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	Duration    int64  `json:"duration"`
	Views       int64  `json:"views"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Video) TableName() string { return "videos" }

// VideoOwner is the reduced owner shape embedded in watch-history results.
type VideoOwner struct {
	FullName  string `json:"full_name"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}

// WatchHistoryEntry links a user to a video they watched, newest first.
type WatchHistoryEntry struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	UserID    int64     `json:"user_id" gorm:"index:idx_watch_history_user_video,unique;not null"`
	VideoID   int64     `json:"video_id" gorm:"index:idx_watch_history_user_video,unique;not null"`
	WatchedAt time.Time `json:"watched_at" gorm:"index;not null"`
}

func (WatchHistoryEntry) TableName() string { return "watch_history" }
