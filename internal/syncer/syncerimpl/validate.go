package syncerimpl

import (
	"strings"
	"unicode/utf8"

	apperrors "github.com/orgball2608/snappy-sync/pkg/errors"
)

const (
	minCommentLength = 3
	maxCommentLength = 100
)

// validateComment returns the trimmed content. Length is counted in runes.
func validateComment(content string) (string, error) {
	content = strings.TrimSpace(content)
	n := utf8.RuneCountInString(content)

	switch {
	case n == 0:
		return "", apperrors.Validation("content", "Comment cannot be empty.")
	case n < minCommentLength:
		return "", apperrors.Validation("content", "Comment is too short. It must be at least 3 characters.")
	case n > maxCommentLength:
		return "", apperrors.Validation("content", "Comment is too long. It must be under 100 characters.")
	}
	return content, nil
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperrors.Validation("name", "Name cannot be empty.")
	}
	return name, nil
}

func validateUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", apperrors.Validation("username", "Username cannot be empty.")
	}
	return username, nil
}
