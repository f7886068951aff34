package channel

import (
	"time"

	"videotube/internal/domain"
)

// ChannelProfile is the public view of an account plus its social counts,
// computed for a specific viewer.
type ChannelProfile struct {
	ID            int64  `json:"id"`
	Username      string `json:"username"`
	FullName      string `json:"full_name"`
	AvatarURL     string `json:"avatar_url"`
	CoverImageURL string `json:"cover_image_url,omitempty"`

	SubscriberCount   int64 `json:"subscriber_count"`
	SubscribedToCount int64 `json:"subscribed_to_count"`
	IsSubscribed      bool  `json:"is_subscribed"`
}

// WatchHistoryItem is one expanded history entry: the video with its owner
// reduced to the public fields.
type WatchHistoryItem struct {
	Video     domain.Video      `json:"video"`
	Owner     domain.VideoOwner `json:"owner"`
	WatchedAt time.Time         `json:"watched_at"`
}
