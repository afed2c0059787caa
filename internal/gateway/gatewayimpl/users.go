package gatewayimpl

import (
	"context"
	"net/http"
	"net/url"

	"github.com/orgball2608/snappy-sync/internal/domain"
)

const (
	endpointUserByUsername = "get-user-by-username"
	endpointUserByEmail    = "get-user-by-email"
	endpointSaveUser       = "save-user-in-mongo"
	endpointEditUser       = "edit-user"
	endpointCheckUnique    = "check-username-unique"
	endpointGetAvatar      = "get-avatar"
)

func (g *Impl) FetchUserByUsername(ctx context.Context, username string) (domain.UserProfile, error) {
	return g.fetchUser(ctx, endpointUserByUsername, url.Values{"username": {username}})
}

func (g *Impl) FetchUserByEmail(ctx context.Context, email string) (domain.UserProfile, error) {
	return g.fetchUser(ctx, endpointUserByEmail, url.Values{"email": {email}})
}

func (g *Impl) fetchUser(ctx context.Context, endpoint string, query url.Values) (domain.UserProfile, error) {
	raw, err := g.send(ctx, request{method: http.MethodGet, base: g.userURL, endpoint: endpoint, query: query})
	if err != nil {
		return domain.UserProfile{}, err
	}

	var payload struct {
		User domain.UserProfile `json:"user"`
	}
	if err := decode(endpoint, raw, lookup, &payload); err != nil {
		return domain.UserProfile{}, err
	}
	return payload.User, nil
}

func (g *Impl) SaveUser(ctx context.Context, profile domain.UserProfile) error {
	body := map[string]any{
		"username":   profile.Username,
		"name":       profile.Name,
		"email":      profile.Email,
		"about":      profile.About,
		"isVerified": profile.IsVerified,
	}
	return g.mutate(ctx, http.MethodPost, g.userURL, endpointSaveUser, body)
}

func (g *Impl) EditUser(ctx context.Context, update domain.ProfileUpdate) error {
	body := map[string]any{
		"username": update.Username,
		"name":     update.Name,
		"about":    update.About,
	}
	if update.AvatarURL != "" {
		body["avatar"] = update.AvatarURL
	}
	return g.mutate(ctx, http.MethodPost, g.userURL, endpointEditUser, body)
}

// CheckUsernameUnique returns the backend message for both verdicts. A taken
// name comes back as success:false, which is an answer here, not a failure.
func (g *Impl) CheckUsernameUnique(ctx context.Context, username string) (string, error) {
	raw, err := g.send(ctx, request{
		method:   http.MethodGet,
		base:     g.userURL,
		endpoint: endpointCheckUnique,
		query:    url.Values{"username": {username}},
	})
	if err != nil {
		return "", err
	}

	var payload envelope
	if err := decode(endpointCheckUnique, raw, lenient, &payload); err != nil {
		if fe := asFailure(err); fe != nil {
			return fe.Message, nil
		}
		return "", err
	}
	return payload.Message, nil
}

func (g *Impl) FetchAvatar(ctx context.Context, username string) (string, error) {
	raw, err := g.send(ctx, request{
		method:   http.MethodGet,
		base:     g.userURL,
		endpoint: endpointGetAvatar,
		query:    url.Values{"username": {username}},
	})
	if err != nil {
		return "", err
	}

	var payload struct {
		Avatar string `json:"avatar"`
	}
	if err := decode(endpointGetAvatar, raw, lookup, &payload); err != nil {
		return "", err
	}
	return payload.Avatar, nil
}
