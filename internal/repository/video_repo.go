package repository

import (
	"context"
	"time"

	"videotube/internal/domain"

	"gorm.io/gorm"
)

type VideoRepository struct {
	db *gorm.DB
}

func NewVideoRepository(db *gorm.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

func (r *VideoRepository) GetByID(ctx context.Context, id int64) (*domain.Video, error) {
	var v domain.Video
	if err := r.db.WithContext(ctx).First(&v, id).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

// WatchedVideo is a watch-history row joined with its video and the video's
// owner reduced to the public fields.
type WatchedVideo struct {
	Video     domain.Video
	Owner     domain.VideoOwner
	WatchedAt time.Time
}

// AppendWatchHistory upserts the (user, video) pair and bumps watched_at so
// a rewatched video moves to the front of the history.
func (r *VideoRepository) AppendWatchHistory(ctx context.Context, userID, videoID int64) error {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&domain.WatchHistoryEntry{}).
		Where("user_id = ? AND video_id = ?", userID, videoID).
		Update("watched_at", now)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&domain.WatchHistoryEntry{
		UserID:    userID,
		VideoID:   videoID,
		WatchedAt: now,
	}).Error
}

// GetWatchHistory expands the user's history into full video records with the
// owner projection, newest first.
func (r *VideoRepository) GetWatchHistory(ctx context.Context, userID int64, limit int) ([]WatchedVideo, error) {
	if limit <= 0 {
		limit = 50
	}

	type row struct {
		ID            int64
		OwnerID       int64
		Title         string
		Description   string
		FileURL       string `gorm:"column:file_url"`
		Thumbnail     string
		Duration      int64
		Views         int64
		CreatedAt     time.Time
		WatchedAt     time.Time
		OwnerFullName string
		OwnerUsername string
		OwnerAvatar   string
	}

	var rows []row
	err := r.db.WithContext(ctx).
		Table("watch_history").
		Select(`videos.id, videos.owner_id, videos.title, videos.description,
			videos.file_url, videos.thumbnail, videos.duration, videos.views,
			videos.created_at, watch_history.watched_at,
			users.full_name AS owner_full_name,
			users.username AS owner_username,
			users.avatar_url AS owner_avatar`).
		Joins("JOIN videos ON videos.id = watch_history.video_id").
		Joins("JOIN users ON users.id = videos.owner_id").
		Where("watch_history.user_id = ?", userID).
		Order("watch_history.watched_at DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	history := make([]WatchedVideo, 0, len(rows))
	for _, rw := range rows {
		history = append(history, WatchedVideo{
			Video: domain.Video{
				ID:          rw.ID,
				OwnerID:     rw.OwnerID,
				Title:       rw.Title,
				Description: rw.Description,
				FileURL:     rw.FileURL,
				Thumbnail:   rw.Thumbnail,
				Duration:    rw.Duration,
				Views:       rw.Views,
				CreatedAt:   rw.CreatedAt,
			},
			WatchedAt: rw.WatchedAt,
			Owner: domain.VideoOwner{
				FullName:  rw.OwnerFullName,
				Username:  rw.OwnerUsername,
				AvatarURL: rw.OwnerAvatar,
			},
		})
	}
	return history, nil
}
