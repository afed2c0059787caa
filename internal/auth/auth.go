package auth

import (
	"context"

	"github.com/orgball2608/snappy-sync/internal/domain"
	apperrors "github.com/orgball2608/snappy-sync/pkg/errors"
)

// Provider error codes.
const (
	CodeWrongPassword     = "auth/wrong-password"
	CodeUserNotFound      = "auth/user-not-found"
	CodeEmailNotVerified  = "auth/email-not-verified"
	CodeEmailAlreadyInUse = "auth/email-already-in-use"
)

var messages = map[string]string{
	CodeWrongPassword:     "The password you entered is incorrect.",
	CodeUserNotFound:      "No user found with this email address.",
	CodeEmailNotVerified:  "Please verify your email before signing in.",
	CodeEmailAlreadyInUse: "An account with this email already exists.",
}

const fallbackMessage = "An unexpected error occurred. Please try again."

// MessageFor maps a provider code to what the user should read.
func MessageFor(code string) string {
	if msg, ok := messages[code]; ok {
		return msg
	}
	return fallbackMessage
}

// Error is a rejected auth call. It always matches apperrors.ErrUnauthorized.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return apperrors.ErrUnauthorized
}

func NewError(code string) *Error {
	return &Error{Code: code, Message: MessageFor(code)}
}

type SignUpInput struct {
	Email    string
	Password string
	Username string
	Name     string
}

// SessionProvider is what mutations need to know who is acting.
type SessionProvider interface {
	// Session returns the current session while it is valid.
	Session() (domain.Session, bool)
}

type Client interface {
	SessionProvider
	SignUp(ctx context.Context, in SignUpInput) (domain.UserProfile, error)
	SignIn(ctx context.Context, email, password string) (domain.Session, error)
	SignOut(ctx context.Context) error
}
