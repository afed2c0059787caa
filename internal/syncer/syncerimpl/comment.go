package syncerimpl

import (
	"context"
	"fmt"

	"github.com/orgball2608/snappy-sync/internal/domain"
	"github.com/orgball2608/snappy-sync/pkg/shortid"
)

func (s *Impl) AddComment(ctx context.Context, postID, content string) (domain.Comment, error) {
	content, err := validateComment(content)
	if err != nil {
		return domain.Comment{}, err
	}
	sess, err := s.actor()
	if err != nil {
		return domain.Comment{}, err
	}
	if err := s.throttle(sess.Username); err != nil {
		return domain.Comment{}, err
	}

	post, err := s.findPost(ctx, postID)
	if err != nil {
		return domain.Comment{}, fmt.Errorf("add comment: %w", err)
	}

	comment := domain.Comment{
		ID:                shortid.New(),
		CommentorUsername: sess.Username,
		Content:           content,
		Timestamp:         s.clock.Now().UTC(),
	}
	if err := s.gateway.AddComment(ctx, post.AuthorUsername, postID, comment); err != nil {
		return domain.Comment{}, fmt.Errorf("add comment: %w", err)
	}

	s.store.PatchPost(postID, func(p *domain.Post) {
		p.Comments = append(p.Comments, comment)
	})
	return comment, nil
}

func (s *Impl) DeleteComment(ctx context.Context, postID, commentID string) error {
	sess, err := s.actor()
	if err != nil {
		return err
	}
	if err := s.throttle(sess.Username); err != nil {
		return err
	}

	post, err := s.findPost(ctx, postID)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if err := s.gateway.DeleteComment(ctx, post.AuthorUsername, postID, commentID); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}

	s.store.PatchPost(postID, func(p *domain.Post) {
		p.RemoveComment(commentID)
	})
	return nil
}
