package syncerimpl

import (
	"context"
	"fmt"
	"slices"

	"github.com/orgball2608/snappy-sync/internal/domain"
	"github.com/orgball2608/snappy-sync/internal/media"
	"github.com/orgball2608/snappy-sync/internal/store"
	"github.com/orgball2608/snappy-sync/internal/syncer"
	apperrors "github.com/orgball2608/snappy-sync/pkg/errors"
	"github.com/orgball2608/snappy-sync/pkg/shortid"
)

func (s *Impl) Stories(ctx context.Context) ([]domain.StoryGroup, error) {
	return s.store.Stories.Get(ctx, store.ListKey)
}

func (s *Impl) AddStory(ctx context.Context, in syncer.NewStory) (domain.Story, error) {
	if in.Media == nil {
		return domain.Story{}, apperrors.Validation("media", "Please select an image or video to upload.")
	}
	if in.ResourceType != "" && in.ResourceType != media.Image && in.ResourceType != media.Video {
		return domain.Story{}, apperrors.Validation("media", "Stories can only be images or videos.")
	}
	sess, err := s.actor()
	if err != nil {
		return domain.Story{}, err
	}

	key := media.StoryKey(sess.Username, shortid.New(), in.ResourceType)
	url, err := s.media.Upload(ctx, in.Media, key)
	if err != nil {
		return domain.Story{}, apperrors.WrapWithCode(err, apperrors.CodeMedia, "upload story")
	}
	s.record(ctx, key, url, domain.MediaKindStory, sess.Username, domain.MediaPending)

	story := domain.Story{
		ID:            key.ID,
		OwnerUsername: sess.Username,
		ImageURL:      url,
		Timestamp:     s.clock.Now().UTC(),
	}
	if err := s.gateway.AddStory(ctx, story); err != nil {
		s.mark(ctx, key, domain.MediaOrphaned)
		return domain.Story{}, fmt.Errorf("add story: %w", err)
	}
	s.mark(ctx, key, domain.MediaAttached)

	s.store.PrependStory(s.author(ctx, sess.Username), story)
	s.logger.Info("Story added", "story_id", story.ID, "username", sess.Username)
	return story, nil
}

// DeleteStory mirrors DeletePost: media first, then the record.
func (s *Impl) DeleteStory(ctx context.Context, storyID string) error {
	sess, err := s.actor()
	if err != nil {
		return err
	}

	rt := media.Image
	if story, ok := s.findStory(sess.Username, storyID); ok {
		rt = media.ResourceTypeFromURL(story.ImageURL)
	}

	key := media.StoryKey(sess.Username, storyID, rt)
	ok, err := s.media.Delete(ctx, key)
	if err != nil {
		return apperrors.WrapWithCode(err, apperrors.CodeMedia, "delete story media")
	}
	if !ok {
		return apperrors.WrapWithCode(media.ErrDeleteFailed, apperrors.CodeMedia, "delete story media")
	}
	s.mark(ctx, key, domain.MediaDeleted)

	if err := s.gateway.DeleteStory(ctx, sess.Username, storyID); err != nil {
		s.logger.Error("Story media deleted but story record remains", "story_id", storyID, "error", err)
		return fmt.Errorf("delete story: %w", err)
	}

	s.store.RemoveStory(sess.Username, storyID)
	return nil
}

func (s *Impl) findStory(owner, storyID string) (domain.Story, bool) {
	groups, ok := s.store.Stories.Peek(store.ListKey)
	if !ok {
		return domain.Story{}, false
	}
	gi := slices.IndexFunc(groups, func(g domain.StoryGroup) bool { return g.Username == owner })
	if gi < 0 {
		return domain.Story{}, false
	}
	si := slices.IndexFunc(groups[gi].Stories, func(st domain.Story) bool { return st.ID == storyID })
	if si < 0 {
		return domain.Story{}, false
	}
	return groups[gi].Stories[si], true
}
