package authimpl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/orgball2608/snappy-sync/internal/auth"
	"github.com/orgball2608/snappy-sync/internal/domain"
	"github.com/orgball2608/snappy-sync/internal/gateway"
	"github.com/orgball2608/snappy-sync/internal/store"
	"github.com/orgball2608/snappy-sync/pkg/config"
	apperrors "github.com/orgball2608/snappy-sync/pkg/errors"
	"github.com/orgball2608/snappy-sync/pkg/logger"
	"go.uber.org/fx"
)

// SessionCookie is the cookie the auth backend sets on sign-in.
const SessionCookie = "session"

type Opts struct {
	fx.In
	Config  *config.Config
	HTTP    *http.Client
	Gateway gateway.Client
	Store   *store.Store
	Logger  logger.Logger
	Clock   clockwork.Clock `optional:"true"`
}

type Impl struct {
	authURL string
	http    *http.Client
	gateway gateway.Client
	store   *store.Store
	clock   clockwork.Clock
	logger  logger.Logger

	mu      sync.RWMutex
	session *domain.Session
}

var _ auth.Client = (*Impl)(nil)

func New(opts Opts) *Impl {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Impl{
		authURL: opts.Config.Backend.AuthURL,
		http:    opts.HTTP,
		gateway: opts.Gateway,
		store:   opts.Store,
		clock:   opts.Clock,
		logger:  opts.Logger.WithComponent("Auth"),
	}
}

type authResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Token   string `json:"token"`
}

type sessionClaims struct {
	Username      string `json:"username"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	jwt.RegisteredClaims
}

func (a *Impl) Session() (domain.Session, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if !a.session.Valid(a.clock.Now()) {
		return domain.Session{}, false
	}
	return *a.session, true
}

// SignUp creates the account and then the user record. The user is not signed in.
func (a *Impl) SignUp(ctx context.Context, in auth.SignUpInput) (domain.UserProfile, error) {
	if _, err := a.call(ctx, "signup", map[string]string{
		"email":    in.Email,
		"password": in.Password,
		"username": in.Username,
		"name":     in.Name,
	}); err != nil {
		return domain.UserProfile{}, err
	}

	profile := domain.UserProfile{Username: in.Username, Name: in.Name, Email: in.Email}
	if err := a.gateway.SaveUser(ctx, profile); err != nil {
		a.logger.Error("Account created but user record was not saved", "username", in.Username, "error", err)
		return domain.UserProfile{}, fmt.Errorf("save user: %w", err)
	}

	a.store.PutProfile(profile)
	a.logger.Info("Signed up", "username", in.Username)
	return profile, nil
}

func (a *Impl) SignIn(ctx context.Context, email, password string) (domain.Session, error) {
	resp, err := a.call(ctx, "signin", map[string]string{"email": email, "password": password})
	if err != nil {
		return domain.Session{}, err
	}

	token := resp.Token
	if token == "" {
		token = a.cookieToken()
	}
	if token == "" {
		return domain.Session{}, apperrors.Unauthenticated("sign-in answered without a session")
	}

	claims, err := parseClaims(token)
	if err != nil {
		return domain.Session{}, apperrors.WrapWithCode(err, apperrors.CodeUnauthenticated, "unreadable session token")
	}
	if claims.Email == "" {
		claims.Email = email
	}

	if !claims.EmailVerified {
		if err := a.SignOut(ctx); err != nil {
			a.logger.Warn("Sign out after unverified sign-in failed", "error", err)
		}
		return domain.Session{}, auth.NewError(auth.CodeEmailNotVerified)
	}

	username := claims.Username
	if username == "" {
		profile, err := a.store.ProfilesByEmail.Get(ctx, claims.Email)
		if err != nil {
			return domain.Session{}, fmt.Errorf("load profile for %s: %w", claims.Email, err)
		}
		username = profile.Username
	}

	s := domain.Session{
		Username:      username,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}

	a.mu.Lock()
	a.session = &s
	a.mu.Unlock()

	a.logger.Info("Signed in", "username", username, "expires_at", s.ExpiresAt)
	return s, nil
}

func (a *Impl) SignOut(ctx context.Context) error {
	a.mu.Lock()
	a.session = nil
	a.mu.Unlock()

	if _, err := a.call(ctx, "signout", nil); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

func (a *Impl) call(ctx context.Context, endpoint string, body any) (authResponse, error) {
	target, err := url.JoinPath(a.authURL, endpoint)
	if err != nil {
		return authResponse{}, fmt.Errorf("build url: %w", err)
	}

	var reader io.Reader = http.NoBody
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return authResponse{}, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, reader)
	if err != nil {
		return authResponse{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.http.Do(req)
	if err != nil {
		return authResponse{}, apperrors.WrapWithCode(
			fmt.Errorf("%w: %w", gateway.ErrTransport, err), apperrors.CodeTransport, endpoint)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return authResponse{}, apperrors.WrapWithCode(
			fmt.Errorf("%w: status %d", gateway.ErrTransport, resp.StatusCode), apperrors.CodeTransport, endpoint)
	}

	var out authResponse
	err = json.NewDecoder(resp.Body).Decode(&out)
	switch {
	case errors.Is(err, io.EOF) && resp.StatusCode < 300:
		// Empty 2xx body, as signout answers.
		return authResponse{Success: true}, nil
	case err != nil:
		return authResponse{}, apperrors.WrapWithCode(
			fmt.Errorf("%w: decode response (status %d): %w", gateway.ErrTransport, resp.StatusCode, err),
			apperrors.CodeTransport, endpoint)
	}

	if !out.Success {
		a.logger.Warn("Auth call rejected", "endpoint", endpoint, "status", resp.StatusCode, "code", out.Code, "message", out.Message)
		return out, auth.NewError(out.Code)
	}
	return out, nil
}

func (a *Impl) cookieToken() string {
	u, err := url.Parse(a.authURL)
	if err != nil || a.http.Jar == nil {
		return ""
	}
	for _, c := range a.http.Jar.Cookies(u) {
		if c.Name == SessionCookie {
			return c.Value
		}
	}
	return ""
}

// parseClaims reads the token without verifying it. The backend verifies the
// cookie on every call; the agent only needs the identity and expiry.
func parseClaims(token string) (*sessionClaims, error) {
	claims := &sessionClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parse session token: %w", err)
	}
	if claims.Username == "" && !strings.Contains(claims.Subject, "@") {
		claims.Username = claims.Subject
	}
	return claims, nil
}
