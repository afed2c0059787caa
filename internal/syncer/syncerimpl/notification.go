package syncerimpl

import (
	"context"
	"fmt"
	"slices"

	"github.com/orgball2608/snappy-sync/internal/domain"
	"github.com/orgball2608/snappy-sync/internal/syncer"
)

func (s *Impl) Notifications(ctx context.Context) ([]domain.Notification, error) {
	sess, err := s.actor()
	if err != nil {
		return nil, err
	}
	return s.store.Notifications.Get(ctx, sess.Username)
}

func (s *Impl) PollNotifications(ctx context.Context) (int, error) {
	sess, err := s.actor()
	if err != nil {
		return 0, err
	}

	prev, known := s.store.Notifications.Peek(sess.Username)
	items, err := s.store.Notifications.Refresh(ctx, sess.Username)
	if err != nil {
		return 0, fmt.Errorf("poll notifications: %w", err)
	}

	unseen := domain.CountUnseen(items)
	if known {
		if before := domain.CountUnseen(prev); unseen > before {
			s.logger.Info("New notifications", "username", sess.Username, "unseen", unseen)
			s.publish(syncer.NewNotifications{
				Username: sess.Username,
				Unseen:   unseen,
				Added:    unseen - before,
			})
		}
	}
	return unseen, nil
}

func (s *Impl) MarkAllSeen(ctx context.Context) error {
	sess, err := s.actor()
	if err != nil {
		return err
	}
	if err := s.gateway.MarkAllSeen(ctx, sess.Username); err != nil {
		return fmt.Errorf("mark notifications seen: %w", err)
	}

	s.store.PatchNotifications(sess.Username, func(items []domain.Notification) ([]domain.Notification, bool) {
		changed := false
		for i := range items {
			if !items[i].Seen {
				items[i].Seen = true
				changed = true
			}
		}
		return items, changed
	})
	return nil
}

func (s *Impl) DeleteNotification(ctx context.Context, id string) error {
	sess, err := s.actor()
	if err != nil {
		return err
	}
	if err := s.gateway.DeleteNotification(ctx, sess.Username, id); err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}

	s.store.PatchNotifications(sess.Username, func(items []domain.Notification) ([]domain.Notification, bool) {
		i := slices.IndexFunc(items, func(n domain.Notification) bool { return n.ID == id })
		if i < 0 {
			return items, false
		}
		return slices.Delete(items, i, i+1), true
	})
	return nil
}
