package syncerimpl

import (
	"context"

	"github.com/orgball2608/snappy-sync/internal/store"
	"github.com/orgball2608/snappy-sync/pkg/retry"
)

// confirmAvatar polls until the backend serves want as username's avatar,
// then refetches the posts list and re-applies the author fields on top of it.
func (s *Impl) confirmAvatar(ctx context.Context, username, name, want string) {
	err := retry.Poll(ctx, s.logger, "confirm avatar", func() (bool, error) {
		got, err := s.gateway.FetchAvatar(ctx, username)
		if err != nil {
			return false, err
		}
		return got == want, nil
	}, s.confirm)
	if err != nil {
		s.logger.Warn("Avatar change not confirmed, keeping local copy", "username", username, "error", err)
		return
	}

	s.store.Avatars.Set(username, want)
	if _, err := s.store.Posts.Refresh(ctx, store.ListKey); err != nil {
		s.logger.Warn("Failed to refresh posts after avatar change", "username", username, "error", err)
	}
	s.store.PropagateAuthor(username, name, want)
	s.logger.Info("Avatar change confirmed", "username", username)
}
