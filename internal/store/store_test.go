package store

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/orgball2608/snappy-sync/internal/domain"
	"github.com/orgball2608/snappy-sync/internal/gateway/gatewayfake"
	"github.com/orgball2608/snappy-sync/pkg/config"
	"github.com/orgball2608/snappy-sync/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *gatewayfake.Fake, *clockwork.FakeClock) {
	t.Helper()
	cfg := &config.Config{}
	cfg.Cache.PostsTTL = 5 * time.Minute
	cfg.Cache.StoriesTTL = 5 * time.Minute

	fake := gatewayfake.New()
	clock := clockwork.NewFakeClock()
	s := New(Opts{Gateway: fake, Config: cfg, Logger: logger.NewNop(), Clock: clock})
	return s, fake, clock
}

func seed(fake *gatewayfake.Fake) {
	fake.SeedUser(domain.UserProfile{Username: "alice", Name: "Alice", Email: "alice@snappy.io", AvatarURL: "https://img/alice-1"})
	fake.SeedUser(domain.UserProfile{Username: "bob", Name: "Bob", Email: "bob@snappy.io"})
	fake.SeedPosts(
		domain.Post{ID: "p1", AuthorUsername: "alice", Caption: "first"},
		domain.Post{ID: "p2", AuthorUsername: "bob", Caption: "second"},
		domain.Post{ID: "p3", AuthorUsername: "alice", Caption: "third"},
	)
	fake.SeedStories(domain.StoryGroup{Username: "alice", Name: "Alice", Stories: []domain.Story{{ID: "s1", OwnerUsername: "alice"}}})
}

func TestPostsTTL(t *testing.T) {
	s, fake, clock := newTestStore(t)
	seed(fake)
	ctx := context.Background()

	_, err := s.Posts.Get(ctx, ListKey)
	require.NoError(t, err)

	clock.Advance(299 * time.Second)
	_, err = s.Posts.Get(ctx, ListKey)
	require.NoError(t, err)
	assert.Equal(t, 1, fake.Calls("FetchPosts"))

	clock.Advance(2 * time.Second)
	_, err = s.Posts.Get(ctx, ListKey)
	require.NoError(t, err)
	assert.Equal(t, 2, fake.Calls("FetchPosts"))
}

func TestProfileByEmailAlsoFillsUsernameCache(t *testing.T) {
	s, fake, _ := newTestStore(t)
	seed(fake)

	p, err := s.ProfilesByEmail.Get(context.Background(), "bob@snappy.io")
	require.NoError(t, err)
	assert.Equal(t, "bob", p.Username)

	cached, ok := s.Profiles.Peek("bob")
	require.True(t, ok)
	assert.Equal(t, p, cached)
	assert.Equal(t, 0, fake.Calls("FetchUserByUsername"))
}

func TestPatchHelpersAreCopyOnWrite(t *testing.T) {
	s, fake, _ := newTestStore(t)
	seed(fake)

	before, err := s.Posts.Get(context.Background(), ListKey)
	require.NoError(t, err)

	require.True(t, s.PatchPost("p1", func(p *domain.Post) { p.ToggleLike("bob") }))
	require.True(t, s.PrependPost(domain.Post{ID: "p0", AuthorUsername: "bob"}))
	require.True(t, s.RemovePost("p2"))
	assert.False(t, s.RemovePost("nope"))
	assert.False(t, s.PatchPost("nope", func(*domain.Post) {}))

	assert.Len(t, before, 3)
	assert.Empty(t, before[0].Likes, "a reader's slice must never change under it")

	after, _ := s.Posts.Peek(ListKey)
	ids := make([]string, len(after))
	for i, p := range after {
		ids[i] = p.ID
	}
	assert.Equal(t, []string{"p0", "p1", "p3"}, ids)

	p1, ok := s.FindPost("p1")
	require.True(t, ok)
	assert.True(t, p1.HasLike("bob"))
}

func TestPrependOnEmptyCacheIsNoop(t *testing.T) {
	s, _, _ := newTestStore(t)
	assert.False(t, s.PrependPost(domain.Post{ID: "x"}))
	_, ok := s.Posts.Peek(ListKey)
	assert.False(t, ok)
}

func TestPropagateAuthor(t *testing.T) {
	s, fake, _ := newTestStore(t)
	seed(fake)
	ctx := context.Background()

	_, err := s.Posts.Get(ctx, ListKey)
	require.NoError(t, err)
	_, err = s.Stories.Get(ctx, ListKey)
	require.NoError(t, err)

	n := s.PropagateAuthor("alice", "Alice Liddell", "https://img/alice-2")
	assert.Equal(t, 2, n)

	posts, _ := s.Posts.Peek(ListKey)
	for _, p := range posts {
		if p.AuthorUsername == "alice" {
			assert.Equal(t, "Alice Liddell", p.AuthorName)
			assert.Equal(t, "https://img/alice-2", p.AuthorAvatarURL)
		} else {
			assert.Equal(t, "Bob", p.AuthorName)
		}
	}

	groups, _ := s.Stories.Peek(ListKey)
	assert.Equal(t, "Alice Liddell", groups[0].Name)
	assert.Equal(t, "https://img/alice-2", groups[0].AvatarURL)

	assert.Equal(t, 0, s.PropagateAuthor("alice", "Alice Liddell", "https://img/alice-2"), "second pass has nothing to rewrite")
}

func TestPutProfile(t *testing.T) {
	s, _, _ := newTestStore(t)
	s.PutProfile(domain.UserProfile{Username: "carol", Email: "c@snappy.io", AvatarURL: "https://img/c"})

	_, ok := s.Profiles.Peek("carol")
	assert.True(t, ok)
	_, ok = s.ProfilesByEmail.Peek("c@snappy.io")
	assert.True(t, ok)
	avatar, ok := s.Avatars.Peek("carol")
	assert.True(t, ok)
	assert.Equal(t, "https://img/c", avatar)
}

func TestInvalidateProfile(t *testing.T) {
	s, fake, _ := newTestStore(t)
	seed(fake)

	_, err := s.Profiles.Get(context.Background(), "bob")
	require.NoError(t, err)
	_, err = s.ProfilesByEmail.Get(context.Background(), "bob@snappy.io")
	require.NoError(t, err)

	s.InvalidateProfile("bob", "bob@snappy.io")

	_, ok := s.Profiles.Peek("bob")
	assert.False(t, ok)
	_, ok = s.ProfilesByEmail.Peek("bob@snappy.io")
	assert.False(t, ok)
}

func TestStoryHelpers(t *testing.T) {
	s, fake, _ := newTestStore(t)
	seed(fake)
	_, err := s.Stories.Get(context.Background(), ListKey)
	require.NoError(t, err)

	bob := domain.UserProfile{Username: "bob", Name: "Bob"}
	require.True(t, s.PrependStory(bob, domain.Story{ID: "s2", OwnerUsername: "bob"}))
	require.True(t, s.PrependStory(domain.UserProfile{Username: "alice"}, domain.Story{ID: "s3", OwnerUsername: "alice"}))

	groups, _ := s.Stories.Peek(ListKey)
	require.Len(t, groups, 2)
	assert.Equal(t, "bob", groups[0].Username)
	assert.Equal(t, []string{"s3", "s1"}, []string{groups[1].Stories[0].ID, groups[1].Stories[1].ID})

	require.True(t, s.RemoveStory("bob", "s2"))
	groups, _ = s.Stories.Peek(ListKey)
	assert.Len(t, groups, 1, "empty group is dropped")
	assert.False(t, s.RemoveStory("bob", "s2"))
}
