package syncerimpl

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/orgball2608/snappy-sync/internal/gateway"
	"github.com/orgball2608/snappy-sync/internal/ratelimit"
	apperrors "github.com/orgball2608/snappy-sync/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddCommentAppendsExactlyOne(t *testing.T) {
	f := newFixture(t, nil)
	f.seedFeed(t)
	f.session.signIn("alice")

	first, err := f.svc.AddComment(context.Background(), "p1", "  great shot  ")
	require.NoError(t, err)
	second, err := f.svc.AddComment(context.Background(), "p1", "agreed")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, "great shot", first.Content)
	assert.Equal(t, "alice", first.CommentorUsername)

	post := f.cachedPost(t, "p1")
	require.Len(t, post.Comments, 2)
	assert.Equal(t, first, post.Comments[0])
	assert.Equal(t, second, post.Comments[1])

	onServer, _ := f.gw.Post("p1")
	assert.Len(t, onServer.Comments, 2)
	assert.Equal(t, 1, f.gw.Calls("FetchPosts"))
}

func TestAddCommentInvalidAddsNothing(t *testing.T) {
	for _, content := range []string{"", "   ", "ok", strings.Repeat("x", 101)} {
		f := newFixture(t, nil)
		f.seedFeed(t)
		f.session.signIn("alice")

		_, err := f.svc.AddComment(context.Background(), "p1", content)
		assert.True(t, apperrors.IsValidation(err), "content %q", content)
		assert.Zero(t, f.gw.Calls("AddComment"))
		assert.Empty(t, f.cachedPost(t, "p1").Comments)
	}
}

func TestAddCommentRequiresSession(t *testing.T) {
	f := newFixture(t, nil)
	f.seedFeed(t)

	_, err := f.svc.AddComment(context.Background(), "p1", "hello there")
	assert.True(t, apperrors.IsUnauthorized(err))
	assert.Zero(t, f.gw.Calls("AddComment"))
}

func TestAddCommentRateLimited(t *testing.T) {
	f := newFixture(t, ratelimit.NewInMemoryLimiter(1, time.Hour, 1))
	f.seedFeed(t)
	f.session.signIn("alice")

	_, err := f.svc.AddComment(context.Background(), "p1", "first!")
	require.NoError(t, err)

	_, err = f.svc.AddComment(context.Background(), "p1", "second!")
	assert.True(t, apperrors.IsRateLimited(err))
	assert.Len(t, f.cachedPost(t, "p1").Comments, 1)
}

func TestAddCommentBackendFailureLeavesCache(t *testing.T) {
	f := newFixture(t, nil)
	f.seedFeed(t)
	f.session.signIn("alice")
	f.gw.Fail("AddComment", &gateway.FailureError{Endpoint: "add-comment", Message: "Post is locked"})

	_, err := f.svc.AddComment(context.Background(), "p1", "hello there")
	require.ErrorIs(t, err, gateway.ErrApplication)
	assert.Empty(t, f.cachedPost(t, "p1").Comments)
}

func TestAddCommentUnknownPost(t *testing.T) {
	f := newFixture(t, nil)
	f.seedFeed(t)
	f.session.signIn("alice")

	_, err := f.svc.AddComment(context.Background(), "missing", "hello there")
	assert.True(t, apperrors.IsNotFound(err))
	assert.Zero(t, f.gw.Calls("AddComment"))
}

func TestDeleteComment(t *testing.T) {
	f := newFixture(t, nil)
	f.seedFeed(t)
	f.session.signIn("alice")

	c, err := f.svc.AddComment(context.Background(), "p1", "to be removed")
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteComment(context.Background(), "p1", c.ID))
	assert.Empty(t, f.cachedPost(t, "p1").Comments)

	err = f.svc.DeleteComment(context.Background(), "p1", c.ID)
	assert.ErrorIs(t, err, gateway.ErrApplication)
}

func TestToggleLikeLaw(t *testing.T) {
	f := newFixture(t, nil)
	f.seedFeed(t)
	f.session.signIn("alice")

	initial := f.cachedPost(t, "p1").HasLike("alice")
	for n := 1; n <= 6; n++ {
		liked, err := f.svc.ToggleLike(context.Background(), "p1")
		require.NoError(t, err)

		want := initial
		if n%2 == 1 {
			want = !initial
		}
		assert.Equal(t, want, liked, "after %d toggles", n)
		assert.Equal(t, want, f.cachedPost(t, "p1").HasLike("alice"), "cache after %d toggles", n)

		onServer, _ := f.gw.Post("p1")
		assert.Equal(t, want, onServer.HasLike("alice"), "server after %d toggles", n)
	}
	assert.Equal(t, 1, f.gw.Calls("FetchPosts"))
}

func TestToggleLikeFailureLeavesCache(t *testing.T) {
	f := newFixture(t, nil)
	f.seedFeed(t)
	f.session.signIn("alice")
	f.gw.Fail("ToggleLike", errors.New("boom"))

	_, err := f.svc.ToggleLike(context.Background(), "p1")
	require.Error(t, err)
	assert.False(t, f.cachedPost(t, "p1").HasLike("alice"))
}
