// Package store owns the per-resource entity caches and the patch helpers the
// mutation layer uses to keep them consistent with each other.
package store

import (
	"context"
	"slices"

	"github.com/jonboulle/clockwork"
	"github.com/orgball2608/snappy-sync/internal/cache"
	"github.com/orgball2608/snappy-sync/internal/domain"
	"github.com/orgball2608/snappy-sync/internal/gateway"
	"github.com/orgball2608/snappy-sync/pkg/config"
	"github.com/orgball2608/snappy-sync/pkg/logger"
	"go.uber.org/fx"
)

// ListKey is the only key of the posts and stories caches.
const ListKey = "all"

type Opts struct {
	fx.In
	Gateway gateway.Client
	Config  *config.Config
	Logger  logger.Logger
	Clock   clockwork.Clock `optional:"true"`
}

type Store struct {
	Profiles        *cache.Cache[domain.UserProfile]
	ProfilesByEmail *cache.Cache[domain.UserProfile]
	Avatars         *cache.Cache[string]
	Posts           *cache.Cache[[]domain.Post]
	Stories         *cache.Cache[[]domain.StoryGroup]
	Notifications   *cache.Cache[[]domain.Notification]
}

func New(opts Opts) *Store {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	gw := opts.Gateway
	s := &Store{}

	s.Profiles = cache.New(func(ctx context.Context, username string) (domain.UserProfile, error) {
		return gw.FetchUserByUsername(ctx, username)
	}, cache.Options{Name: "ProfileCache", Clock: opts.Clock, Logger: opts.Logger})

	s.ProfilesByEmail = cache.New(func(ctx context.Context, email string) (domain.UserProfile, error) {
		p, err := gw.FetchUserByEmail(ctx, email)
		if err != nil {
			return p, err
		}
		s.Profiles.Set(p.Username, p)
		return p, nil
	}, cache.Options{Name: "ProfileByEmailCache", Clock: opts.Clock, Logger: opts.Logger})

	s.Avatars = cache.New(func(ctx context.Context, username string) (string, error) {
		return gw.FetchAvatar(ctx, username)
	}, cache.Options{Name: "AvatarCache", Clock: opts.Clock, Logger: opts.Logger})

	s.Posts = cache.New(func(ctx context.Context, _ string) ([]domain.Post, error) {
		return gw.FetchPosts(ctx)
	}, cache.Options{Name: "PostsCache", TTL: opts.Config.Cache.PostsTTL, Clock: opts.Clock, Logger: opts.Logger})

	s.Stories = cache.New(func(ctx context.Context, _ string) ([]domain.StoryGroup, error) {
		return gw.FetchStories(ctx)
	}, cache.Options{Name: "StoriesCache", TTL: opts.Config.Cache.StoriesTTL, Clock: opts.Clock, Logger: opts.Logger})

	s.Notifications = cache.New(func(ctx context.Context, username string) ([]domain.Notification, error) {
		return gw.FetchNotifications(ctx, username)
	}, cache.Options{Name: "NotificationCache", Clock: opts.Clock, Logger: opts.Logger})

	return s
}

// PrependPost puts a freshly created post at the head of the cached list.
// It is a no-op when the list was never loaded; the next read fetches it.
func (s *Store) PrependPost(post domain.Post) bool {
	return s.Posts.Update(ListKey, func(posts []domain.Post) ([]domain.Post, bool) {
		next := make([]domain.Post, 0, len(posts)+1)
		next = append(next, post)
		next = append(next, posts...)
		return next, true
	})
}

// PatchPost applies fn to a copy of the cached post with postID.
func (s *Store) PatchPost(postID string, fn func(*domain.Post)) bool {
	return s.Posts.Update(ListKey, func(posts []domain.Post) ([]domain.Post, bool) {
		i := slices.IndexFunc(posts, func(p domain.Post) bool { return p.ID == postID })
		if i < 0 {
			return posts, false
		}
		next := slices.Clone(posts)
		patched := next[i].Clone()
		fn(&patched)
		next[i] = patched
		return next, true
	})
}

func (s *Store) RemovePost(postID string) bool {
	return s.Posts.Update(ListKey, func(posts []domain.Post) ([]domain.Post, bool) {
		i := slices.IndexFunc(posts, func(p domain.Post) bool { return p.ID == postID })
		if i < 0 {
			return posts, false
		}
		next := slices.Clone(posts)
		return slices.Delete(next, i, i+1), true
	})
}

// FindPost looks a post up in the cached list without fetching.
func (s *Store) FindPost(postID string) (domain.Post, bool) {
	posts, ok := s.Posts.Peek(ListKey)
	if !ok {
		return domain.Post{}, false
	}
	i := slices.IndexFunc(posts, func(p domain.Post) bool { return p.ID == postID })
	if i < 0 {
		return domain.Post{}, false
	}
	return posts[i].Clone(), true
}

// PutProfile writes profile under both of its keys and its avatar.
func (s *Store) PutProfile(profile domain.UserProfile) {
	s.Profiles.Set(profile.Username, profile)
	if profile.Email != "" {
		s.ProfilesByEmail.Set(profile.Email, profile)
	}
	if profile.AvatarURL != "" {
		s.Avatars.Set(profile.Username, profile.AvatarURL)
	}
}

// InvalidateProfile drops the cached profile under both of its keys so the
// next read fetches it again.
func (s *Store) InvalidateProfile(username, email string) {
	s.Profiles.Invalidate(username)
	if email != "" {
		s.ProfilesByEmail.Invalidate(email)
	}
}

// PropagateAuthor rewrites the denormalized name and avatar on every cached
// post and story group owned by username. Empty values leave a field as is.
// It returns the number of posts rewritten.
func (s *Store) PropagateAuthor(username, name, avatarURL string) int {
	rewritten := 0
	s.Posts.Update(ListKey, func(posts []domain.Post) ([]domain.Post, bool) {
		var next []domain.Post
		for i, p := range posts {
			if p.AuthorUsername != username || !authorDiffers(p.AuthorName, p.AuthorAvatarURL, name, avatarURL) {
				continue
			}
			if next == nil {
				next = slices.Clone(posts)
			}
			patched := p.Clone()
			if name != "" {
				patched.AuthorName = name
			}
			if avatarURL != "" {
				patched.AuthorAvatarURL = avatarURL
			}
			next[i] = patched
			rewritten++
		}
		if next == nil {
			return posts, false
		}
		return next, true
	})

	s.Stories.Update(ListKey, func(groups []domain.StoryGroup) ([]domain.StoryGroup, bool) {
		i := slices.IndexFunc(groups, func(g domain.StoryGroup) bool { return g.Username == username })
		if i < 0 || !authorDiffers(groups[i].Name, groups[i].AvatarURL, name, avatarURL) {
			return groups, false
		}
		next := slices.Clone(groups)
		patched := next[i].Clone()
		if name != "" {
			patched.Name = name
		}
		if avatarURL != "" {
			patched.AvatarURL = avatarURL
		}
		next[i] = patched
		return next, true
	})

	return rewritten
}

func authorDiffers(curName, curAvatar, name, avatarURL string) bool {
	return (name != "" && curName != name) || (avatarURL != "" && curAvatar != avatarURL)
}

// PrependStory adds story to its owner's group, creating the group if needed.
func (s *Store) PrependStory(owner domain.UserProfile, story domain.Story) bool {
	return s.Stories.Update(ListKey, func(groups []domain.StoryGroup) ([]domain.StoryGroup, bool) {
		next := slices.Clone(groups)
		i := slices.IndexFunc(next, func(g domain.StoryGroup) bool { return g.Username == story.OwnerUsername })
		if i < 0 {
			group := domain.StoryGroup{
				Username:  owner.Username,
				Name:      owner.Name,
				AvatarURL: owner.AvatarURL,
				Stories:   []domain.Story{story},
			}
			return append([]domain.StoryGroup{group}, next...), true
		}
		patched := next[i].Clone()
		patched.Stories = append([]domain.Story{story}, patched.Stories...)
		next[i] = patched
		return next, true
	})
}

// RemoveStory drops a story and, when it was the last one, its group.
func (s *Store) RemoveStory(owner, storyID string) bool {
	return s.Stories.Update(ListKey, func(groups []domain.StoryGroup) ([]domain.StoryGroup, bool) {
		gi := slices.IndexFunc(groups, func(g domain.StoryGroup) bool { return g.Username == owner })
		if gi < 0 {
			return groups, false
		}
		si := slices.IndexFunc(groups[gi].Stories, func(st domain.Story) bool { return st.ID == storyID })
		if si < 0 {
			return groups, false
		}
		next := slices.Clone(groups)
		patched := next[gi].Clone()
		patched.Stories = slices.Delete(patched.Stories, si, si+1)
		if len(patched.Stories) == 0 {
			return slices.Delete(next, gi, gi+1), true
		}
		next[gi] = patched
		return next, true
	})
}

// PatchNotifications applies fn to a copy of the recipient's cached list.
func (s *Store) PatchNotifications(username string, fn func([]domain.Notification) ([]domain.Notification, bool)) bool {
	return s.Notifications.Update(username, func(items []domain.Notification) ([]domain.Notification, bool) {
		return fn(slices.Clone(items))
	})
}
