package channel

import (
	"context"
	"errors"

	"videotube/internal/domain"
	"videotube/internal/repository"

	"gorm.io/gorm"
)

var (
	ErrChannelNotFound = errors.New("channel not found")
	ErrVideoNotFound   = errors.New("video not found")
)

// UserReader is the slice of the user repository this module needs; the
// caller identity itself is already resolved by the authorization gate.
type UserReader interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

type SubscriptionStore interface {
	Subscribe(ctx context.Context, subscriberID, channelID int64) error
	Unsubscribe(ctx context.Context, subscriberID, channelID int64) error
	CountSubscribers(ctx context.Context, channelID int64) (int64, error)
	CountSubscribedTo(ctx context.Context, subscriberID int64) (int64, error)
	IsSubscribed(ctx context.Context, subscriberID, channelID int64) (bool, error)
}

type VideoStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Video, error)
	AppendWatchHistory(ctx context.Context, userID, videoID int64) error
	GetWatchHistory(ctx context.Context, userID int64, limit int) ([]repository.WatchedVideo, error)
}

type Service struct {
	users         UserReader
	subscriptions SubscriptionStore
	videos        VideoStore
}

func NewService(users UserReader, subscriptions SubscriptionStore, videos VideoStore) *Service {
	return &Service{
		users:         users,
		subscriptions: subscriptions,
		videos:        videos,
	}
}

// GetChannelProfile joins the account against the subscription relation on
// both directions and tells the viewer whether they subscribe to it.
func (s *Service) GetChannelProfile(ctx context.Context, username string, viewerID int64) (*ChannelProfile, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChannelNotFound
		}
		return nil, err
	}

	subscribers, err := s.subscriptions.CountSubscribers(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	subscribedTo, err := s.subscriptions.CountSubscribedTo(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	isSubscribed, err := s.subscriptions.IsSubscribed(ctx, viewerID, user.ID)
	if err != nil {
		return nil, err
	}

	return &ChannelProfile{
		ID:                user.ID,
		Username:          user.Username,
		FullName:          user.FullName,
		AvatarURL:         user.AvatarURL,
		CoverImageURL:     user.CoverImageURL,
		SubscriberCount:   subscribers,
		SubscribedToCount: subscribedTo,
		IsSubscribed:      isSubscribed,
	}, nil
}

func (s *Service) Subscribe(ctx context.Context, viewerID int64, username string) error {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrChannelNotFound
		}
		return err
	}
	return s.subscriptions.Subscribe(ctx, viewerID, user.ID)
}

func (s *Service) Unsubscribe(ctx context.Context, viewerID int64, username string) error {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrChannelNotFound
		}
		return err
	}
	return s.subscriptions.Unsubscribe(ctx, viewerID, user.ID)
}

func (s *Service) GetWatchHistory(ctx context.Context, userID int64, limit int) ([]WatchHistoryItem, error) {
	watched, err := s.videos.GetWatchHistory(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	items := make([]WatchHistoryItem, 0, len(watched))
	for _, w := range watched {
		items = append(items, WatchHistoryItem{
			Video:     w.Video,
			Owner:     w.Owner,
			WatchedAt: w.WatchedAt,
		})
	}
	return items, nil
}

func (s *Service) AddWatchHistory(ctx context.Context, userID, videoID int64) error {
	if _, err := s.videos.GetByID(ctx, videoID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrVideoNotFound
		}
		return err
	}
	return s.videos.AppendWatchHistory(ctx, userID, videoID)
}
