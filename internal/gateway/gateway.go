package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/orgball2608/snappy-sync/internal/domain"
	apperrors "github.com/orgball2608/snappy-sync/pkg/errors"
)

var (
	// ErrTransport covers network failures, non-2xx statuses and unreadable bodies.
	ErrTransport = errors.New("transport failure")
	// ErrApplication is a 2xx response whose envelope reported success:false.
	ErrApplication = errors.New("backend reported failure")
	ErrNotFound    = apperrors.ErrNotFound
)

// FailureError is the failure half of every gateway result.
type FailureError struct {
	Endpoint string
	Message  string
	NotFound bool
}

func (e *FailureError) Error() string {
	return fmt.Sprintf("%s: %s", e.Endpoint, e.Message)
}

func (e *FailureError) Unwrap() []error {
	if e.NotFound {
		return []error{ErrApplication, ErrNotFound}
	}
	return []error{ErrApplication}
}

// Client is one call per backend REST operation. Calls are never retried.
type Client interface {
	FetchPosts(ctx context.Context) ([]domain.Post, error)
	AddPost(ctx context.Context, post domain.Post) error
	DeletePost(ctx context.Context, username, postID string) error
	AddComment(ctx context.Context, postOwner, postID string, comment domain.Comment) error
	DeleteComment(ctx context.Context, postOwner, postID, commentID string) error
	ToggleLike(ctx context.Context, postOwner, postID, liker string) error

	FetchUserByUsername(ctx context.Context, username string) (domain.UserProfile, error)
	FetchUserByEmail(ctx context.Context, email string) (domain.UserProfile, error)
	SaveUser(ctx context.Context, profile domain.UserProfile) error
	EditUser(ctx context.Context, update domain.ProfileUpdate) error
	// CheckUsernameUnique returns the backend's verdict message verbatim.
	CheckUsernameUnique(ctx context.Context, username string) (string, error)
	FetchAvatar(ctx context.Context, username string) (string, error)

	FetchStories(ctx context.Context) ([]domain.StoryGroup, error)
	AddStory(ctx context.Context, story domain.Story) error
	DeleteStory(ctx context.Context, username, storyID string) error

	FetchNotifications(ctx context.Context, username string) ([]domain.Notification, error)
	MarkAllSeen(ctx context.Context, username string) error
	DeleteNotification(ctx context.Context, username, id string) error
}

// UniqueUsernameMessage is the backend's answer for a free username.
const UniqueUsernameMessage = "Username is unique"

func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

func IsApplication(err error) bool {
	return errors.Is(err, ErrApplication)
}
