package syncerimpl

import (
	"context"
	"fmt"

	"github.com/orgball2608/snappy-sync/internal/domain"
	"github.com/orgball2608/snappy-sync/internal/gateway"
	"github.com/orgball2608/snappy-sync/internal/media"
	"github.com/orgball2608/snappy-sync/internal/syncer"
	apperrors "github.com/orgball2608/snappy-sync/pkg/errors"
)

func (s *Impl) UserProfile(ctx context.Context, username string) (domain.UserProfile, error) {
	return s.store.Profiles.Get(ctx, username)
}

func (s *Impl) UserByEmail(ctx context.Context, email string) (domain.UserProfile, error) {
	return s.store.ProfilesByEmail.Get(ctx, email)
}

func (s *Impl) Avatar(ctx context.Context, username string) (string, error) {
	return s.store.Avatars.Get(ctx, username)
}

func (s *Impl) CheckUsernameUnique(ctx context.Context, username string) (bool, string, error) {
	username, err := validateUsername(username)
	if err != nil {
		return false, "", err
	}
	msg, err := s.gateway.CheckUsernameUnique(ctx, username)
	if err != nil {
		return false, "", fmt.Errorf("check username: %w", err)
	}
	return msg == gateway.UniqueUsernameMessage, msg, nil
}

// EditUser saves the profile, rewrites the author fields on cached posts and
// stories, and when a new avatar was uploaded, waits for it in the background.
func (s *Impl) EditUser(ctx context.Context, in syncer.EditUserInput) (domain.UserProfile, error) {
	name, err := validateName(in.Name)
	if err != nil {
		return domain.UserProfile{}, err
	}
	sess, err := s.actor()
	if err != nil {
		return domain.UserProfile{}, err
	}

	update := domain.ProfileUpdate{
		Username: sess.Username,
		Name:     name,
		About:    in.About,
	}

	key := media.AvatarKey(sess.Username)
	if in.Avatar != nil {
		url, err := s.media.Upload(ctx, in.Avatar, key)
		if err != nil {
			return domain.UserProfile{}, apperrors.WrapWithCode(err, apperrors.CodeMedia, "upload avatar")
		}
		update.AvatarURL = url
	}

	if err := s.gateway.EditUser(ctx, update); err != nil {
		return domain.UserProfile{}, fmt.Errorf("edit user: %w", err)
	}

	profile, err := s.loadProfile(ctx, sess.Username)
	loaded := err == nil
	profile.Username = sess.Username
	profile.Name = update.Name
	profile.About = update.About
	if profile.Email == "" {
		profile.Email = sess.Email
	}
	if update.AvatarURL != "" {
		profile.AvatarURL = update.AvatarURL
		// Avatars overwrite one key per user, so they are never orphaned.
		s.record(ctx, key, update.AvatarURL, domain.MediaKindAvatar, sess.Username, domain.MediaAttached)
	}

	if loaded {
		s.store.PutProfile(profile)
	} else {
		// Only the edited fields are known; the next read refetches the rest.
		s.store.InvalidateProfile(profile.Username, profile.Email)
		if update.AvatarURL != "" {
			s.store.Avatars.Set(profile.Username, update.AvatarURL)
		}
	}
	rewritten := s.store.PropagateAuthor(profile.Username, profile.Name, update.AvatarURL)
	s.logger.Info("Profile updated", "username", profile.Username, "posts_rewritten", rewritten, "profile_cached", loaded)

	if update.AvatarURL != "" {
		s.submit("confirm avatar "+profile.Username, func(ctx context.Context) {
			s.confirmAvatar(ctx, profile.Username, profile.Name, update.AvatarURL)
		})
	}

	return profile, nil
}
