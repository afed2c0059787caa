package syncerimpl

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/orgball2608/snappy-sync/internal/domain"
	"github.com/orgball2608/snappy-sync/internal/media"
	"github.com/orgball2608/snappy-sync/internal/store"
	"github.com/orgball2608/snappy-sync/internal/syncer"
	apperrors "github.com/orgball2608/snappy-sync/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestAddPostRegistersAndPrepends(t *testing.T) {
	f := newFixture(t, nil)
	f.seedFeed(t)
	f.session.signIn("alice")

	var uploaded media.Key
	f.media.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ any, key media.Key) (string, error) {
			uploaded = key
			return "https://cdn/snappy/posts/alice/" + key.ID + ".jpg", nil
		})
	gomock.InOrder(
		f.ledger.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, a domain.MediaAsset) error {
			assert.Equal(t, domain.MediaPending, a.Status)
			assert.Equal(t, domain.MediaKindPost, a.Kind)
			assert.Equal(t, "alice", a.Owner)
			return nil
		}),
		f.ledger.EXPECT().MarkStatus(gomock.Any(), gomock.Any(), domain.MediaAttached).Return(nil),
	)

	post, err := f.svc.AddPost(context.Background(), syncer.NewPost{Caption: "new", Image: strings.NewReader("jpeg")})
	require.NoError(t, err)

	assert.Equal(t, media.PostKey("alice", post.ID), uploaded)
	assert.Len(t, post.ID, 8)
	assert.Equal(t, "Alice", post.AuthorName)
	assert.Equal(t, f.clock.Now().UTC(), post.Timestamp)

	posts, ok := f.store.Posts.Peek(store.ListKey)
	require.True(t, ok)
	require.Len(t, posts, 3)
	assert.Equal(t, post.ID, posts[0].ID)

	_, onServer := f.gw.Post(post.ID)
	assert.True(t, onServer)
	assert.Equal(t, 1, f.gw.Calls("FetchPosts"))
}

func TestAddPostUploadFailureRegistersNothing(t *testing.T) {
	f := newFixture(t, nil)
	f.seedFeed(t)
	f.session.signIn("alice")

	f.media.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ any, key media.Key) (string, error) {
			return "", &media.UploadError{Key: key, Err: errors.New("413")}
		})

	_, err := f.svc.AddPost(context.Background(), syncer.NewPost{Image: strings.NewReader("jpeg")})
	require.ErrorIs(t, err, media.ErrUpload)
	assert.Equal(t, apperrors.CodeMedia, apperrors.GetCode(err))

	assert.Zero(t, f.gw.Calls("AddPost"))
	posts, _ := f.store.Posts.Peek(store.ListKey)
	assert.Len(t, posts, 2)
}

func TestAddPostRecordFailureOrphansUpload(t *testing.T) {
	f := newFixture(t, nil)
	f.seedFeed(t)
	f.session.signIn("alice")
	f.gw.Fail("AddPost", errors.New("connection reset"))

	f.media.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any()).Return("https://cdn/x.jpg", nil)
	gomock.InOrder(
		f.ledger.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil),
		f.ledger.EXPECT().MarkStatus(gomock.Any(), gomock.Any(), domain.MediaOrphaned).Return(nil),
	)

	_, err := f.svc.AddPost(context.Background(), syncer.NewPost{Image: strings.NewReader("jpeg")})
	require.Error(t, err)

	posts, _ := f.store.Posts.Peek(store.ListKey)
	assert.Len(t, posts, 2)
}

func TestAddPostValidation(t *testing.T) {
	f := newFixture(t, nil)
	f.session.signIn("alice")

	_, err := f.svc.AddPost(context.Background(), syncer.NewPost{Caption: "no image"})
	assert.True(t, apperrors.IsValidation(err))
	assert.Zero(t, f.gw.TotalCalls())
}

func TestAddPostRequiresSession(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.AddPost(context.Background(), syncer.NewPost{Image: strings.NewReader("jpeg")})
	assert.True(t, apperrors.IsUnauthorized(err))
}

func TestDeletePost(t *testing.T) {
	f := newFixture(t, nil)
	f.seedFeed(t)
	f.session.signIn("bob")

	f.media.EXPECT().Delete(gomock.Any(), media.PostKey("bob", "p1")).Return(true, nil)
	f.ledger.EXPECT().MarkStatus(gomock.Any(), "snappy/posts/bob/p1", domain.MediaDeleted).Return(nil)

	require.NoError(t, f.svc.DeletePost(context.Background(), "p1"))

	_, cached := f.store.FindPost("p1")
	assert.False(t, cached)
	_, onServer := f.gw.Post("p1")
	assert.False(t, onServer)
}

func TestDeletePostMediaFailureKeepsPost(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
		err  error
	}{
		{"store refused", false, nil},
		{"store unreachable", false, media.ErrDeleteFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.seedFeed(t)
			f.session.signIn("bob")

			f.media.EXPECT().Delete(gomock.Any(), media.PostKey("bob", "p1")).Return(tt.ok, tt.err)

			err := f.svc.DeletePost(context.Background(), "p1")
			require.ErrorIs(t, err, media.ErrDeleteFailed)

			f.cachedPost(t, "p1")
			_, onServer := f.gw.Post("p1")
			assert.True(t, onServer)
			assert.Zero(t, f.gw.Calls("DeletePost"))
		})
	}
}

func TestDeletePostRecordFailureKeepsCachedPost(t *testing.T) {
	f := newFixture(t, nil)
	f.seedFeed(t)
	f.session.signIn("bob")
	f.gw.Fail("DeletePost", errors.New("timeout"))

	f.media.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(true, nil)
	f.allowLedger()

	require.Error(t, f.svc.DeletePost(context.Background(), "p1"))
	f.cachedPost(t, "p1")
}

func TestDeletePostOfSomeoneElse(t *testing.T) {
	f := newFixture(t, nil)
	f.seedFeed(t)
	f.session.signIn("alice")

	err := f.svc.DeletePost(context.Background(), "p1")
	assert.True(t, apperrors.IsForbidden(err))
	assert.False(t, apperrors.IsUnauthorized(err))
	assert.Zero(t, f.gw.Calls("DeletePost"))
	f.cachedPost(t, "p1")
}
