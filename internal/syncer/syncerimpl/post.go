package syncerimpl

import (
	"context"
	"fmt"
	"slices"

	"github.com/orgball2608/snappy-sync/internal/cache"
	"github.com/orgball2608/snappy-sync/internal/domain"
	"github.com/orgball2608/snappy-sync/internal/media"
	"github.com/orgball2608/snappy-sync/internal/store"
	"github.com/orgball2608/snappy-sync/internal/syncer"
	apperrors "github.com/orgball2608/snappy-sync/pkg/errors"
	"github.com/orgball2608/snappy-sync/pkg/shortid"
)

func (s *Impl) Posts(ctx context.Context) ([]domain.Post, error) {
	return s.store.Posts.Get(ctx, store.ListKey)
}

func (s *Impl) AddPost(ctx context.Context, in syncer.NewPost) (domain.Post, error) {
	if in.Image == nil {
		return domain.Post{}, apperrors.Validation("image", "Please select an image to upload.")
	}
	sess, err := s.actor()
	if err != nil {
		return domain.Post{}, err
	}

	author := s.author(ctx, sess.Username)
	key := media.PostKey(sess.Username, shortid.New())

	url, err := s.media.Upload(ctx, in.Image, key)
	if err != nil {
		return domain.Post{}, apperrors.WrapWithCode(err, apperrors.CodeMedia, "upload post image")
	}
	s.record(ctx, key, url, domain.MediaKindPost, sess.Username, domain.MediaPending)

	post := domain.Post{
		ID:              key.ID,
		AuthorUsername:  sess.Username,
		AuthorName:      author.Name,
		AuthorAvatarURL: author.AvatarURL,
		ImageURL:        url,
		Caption:         in.Caption,
		Timestamp:       s.clock.Now().UTC(),
		Likes:           []string{},
		Comments:        []domain.Comment{},
	}
	if err := s.gateway.AddPost(ctx, post); err != nil {
		s.mark(ctx, key, domain.MediaOrphaned)
		return domain.Post{}, fmt.Errorf("add post: %w", err)
	}
	s.mark(ctx, key, domain.MediaAttached)

	s.store.PrependPost(post)
	s.logger.Info("Post added", "post_id", post.ID, "username", sess.Username)
	return post, nil
}

// DeletePost destroys the media first. A post whose media could not be
// deleted stays everywhere.
func (s *Impl) DeletePost(ctx context.Context, postID string) error {
	sess, err := s.actor()
	if err != nil {
		return err
	}
	if post, ok := s.store.FindPost(postID); ok && post.AuthorUsername != sess.Username {
		return apperrors.Forbidden("You can only delete your own posts.")
	}

	key := media.PostKey(sess.Username, postID)
	ok, err := s.media.Delete(ctx, key)
	if err != nil {
		return apperrors.WrapWithCode(err, apperrors.CodeMedia, "delete post image")
	}
	if !ok {
		return apperrors.WrapWithCode(media.ErrDeleteFailed, apperrors.CodeMedia, "delete post image")
	}
	s.mark(ctx, key, domain.MediaDeleted)

	if err := s.gateway.DeletePost(ctx, sess.Username, postID); err != nil {
		s.logger.Error("Post image deleted but post record remains", "post_id", postID, "error", err)
		return fmt.Errorf("delete post: %w", err)
	}

	s.store.RemovePost(postID)
	s.logger.Info("Post deleted", "post_id", postID, "username", sess.Username)
	return nil
}

// findPost reads the cached list, loading it if needed.
func (s *Impl) findPost(ctx context.Context, postID string) (domain.Post, error) {
	if p, ok := s.store.FindPost(postID); ok {
		return p, nil
	}
	posts, err := s.store.Posts.Get(ctx, store.ListKey)
	if err != nil {
		return domain.Post{}, err
	}
	i := slices.IndexFunc(posts, func(p domain.Post) bool { return p.ID == postID })
	if i < 0 {
		return domain.Post{}, apperrors.WrapWithCode(apperrors.ErrNotFound, apperrors.CodeNotFound, "post "+postID)
	}
	return posts[i].Clone(), nil
}

// author returns the profile used to denormalize new posts and stories.
// A failed lookup leaves the fields empty; the next list fetch fills them.
func (s *Impl) author(ctx context.Context, username string) domain.UserProfile {
	p, err := s.loadProfile(ctx, username)
	if err != nil {
		return domain.UserProfile{Username: username}
	}
	return p
}

func (s *Impl) loadProfile(ctx context.Context, username string) (domain.UserProfile, error) {
	if p, ok := s.store.Profiles.Peek(username); ok {
		return p, nil
	}
	p, err := s.store.Profiles.Get(ctx, username)
	if err != nil {
		s.logger.Warn("Failed to load author profile", "username", username, "error", err)
		return domain.UserProfile{}, err
	}
	return p, nil
}

// warmAvatars prefetches avatars of authors in a freshly stored posts list.
func (s *Impl) warmAvatars(ev cache.Event[[]domain.Post]) {
	if ev.Kind != cache.EventSet {
		return
	}

	var missing []string
	for _, p := range ev.Value {
		if p.AuthorUsername == "" || slices.Contains(missing, p.AuthorUsername) {
			continue
		}
		if _, ok := s.store.Avatars.Peek(p.AuthorUsername); ok {
			continue
		}
		missing = append(missing, p.AuthorUsername)
	}
	if len(missing) == 0 {
		return
	}

	s.submit("warm avatars", func(ctx context.Context) {
		for _, username := range missing {
			if ctx.Err() != nil {
				return
			}
			if _, err := s.store.Avatars.Get(ctx, username); err != nil {
				s.logger.Debug("Avatar warm-up failed", "username", username, "error", err)
			}
		}
	})
}
