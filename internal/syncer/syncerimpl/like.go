package syncerimpl

import (
	"context"
	"fmt"

	"github.com/orgball2608/snappy-sync/internal/domain"
)

func (s *Impl) ToggleLike(ctx context.Context, postID string) (bool, error) {
	sess, err := s.actor()
	if err != nil {
		return false, err
	}
	if err := s.throttle(sess.Username); err != nil {
		return false, err
	}

	post, err := s.findPost(ctx, postID)
	if err != nil {
		return false, fmt.Errorf("toggle like: %w", err)
	}
	if err := s.gateway.ToggleLike(ctx, post.AuthorUsername, postID, sess.Username); err != nil {
		return false, fmt.Errorf("toggle like: %w", err)
	}

	liked := !post.HasLike(sess.Username)
	s.store.PatchPost(postID, func(p *domain.Post) {
		p.ToggleLike(sess.Username)
		liked = p.HasLike(sess.Username)
	})
	return liked, nil
}
