// Package syncer is the mutation layer over the entity caches. Every write is
// validated locally, confirmed by the backend and only then patched into the
// affected cache entry.
package syncer

import (
	"context"
	"io"

	"github.com/orgball2608/snappy-sync/internal/cache"
	"github.com/orgball2608/snappy-sync/internal/domain"
	"github.com/orgball2608/snappy-sync/internal/media"
)

type NewPost struct {
	Caption string
	Image   io.Reader
}

type NewStory struct {
	Media        io.Reader
	ResourceType media.ResourceType
}

type EditUserInput struct {
	Name  string
	About string
	// Avatar is optional; nil keeps the current one.
	Avatar io.Reader
}

// NewNotifications is published when a poll finds more unseen notifications
// than the previous one did.
type NewNotifications struct {
	Username string
	Unseen   int
	Added    int
}

type NotificationListener func(NewNotifications)

type Client interface {
	Posts(ctx context.Context) ([]domain.Post, error)
	AddPost(ctx context.Context, in NewPost) (domain.Post, error)
	DeletePost(ctx context.Context, postID string) error
	AddComment(ctx context.Context, postID, content string) (domain.Comment, error)
	DeleteComment(ctx context.Context, postID, commentID string) error
	// ToggleLike flips the signed-in user's like and reports whether it is now set.
	ToggleLike(ctx context.Context, postID string) (bool, error)

	UserProfile(ctx context.Context, username string) (domain.UserProfile, error)
	UserByEmail(ctx context.Context, email string) (domain.UserProfile, error)
	Avatar(ctx context.Context, username string) (string, error)
	EditUser(ctx context.Context, in EditUserInput) (domain.UserProfile, error)
	// CheckUsernameUnique never touches a cache. message is the backend's verdict.
	CheckUsernameUnique(ctx context.Context, username string) (unique bool, message string, err error)

	Stories(ctx context.Context) ([]domain.StoryGroup, error)
	AddStory(ctx context.Context, in NewStory) (domain.Story, error)
	DeleteStory(ctx context.Context, storyID string) error

	Notifications(ctx context.Context) ([]domain.Notification, error)
	// PollNotifications refetches the signed-in user's notifications and
	// returns the unseen count.
	PollNotifications(ctx context.Context) (int, error)
	MarkAllSeen(ctx context.Context) error
	DeleteNotification(ctx context.Context, id string) error

	// SweepOrphanedMedia deletes uploads no record ever referenced.
	SweepOrphanedMedia(ctx context.Context) (int, error)

	SubscribePosts(l cache.Listener[[]domain.Post]) (unsubscribe func())
	SubscribeStories(l cache.Listener[[]domain.StoryGroup]) (unsubscribe func())
	SubscribeProfiles(l cache.Listener[domain.UserProfile]) (unsubscribe func())
	SubscribeNotifications(l NotificationListener) (unsubscribe func())

	Schedule(ctx context.Context) error
	// Shutdown stops the schedules and waits for background work.
	Shutdown(ctx context.Context) error
}
