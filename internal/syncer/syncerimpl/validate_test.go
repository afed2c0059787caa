package syncerimpl

import (
	"strings"
	"testing"

	apperrors "github.com/orgball2608/snappy-sync/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestValidateComment(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		wantMsg string
	}{
		{"empty", "", "", "Comment cannot be empty."},
		{"whitespace only", "   \t\n", "", "Comment cannot be empty."},
		{"two chars", "hi", "", "Comment is too short. It must be at least 3 characters."},
		{"two chars padded", "  hi  ", "", "Comment is too short. It must be at least 3 characters."},
		{"minimum", "hey", "hey", ""},
		{"trimmed", "  nice shot  ", "nice shot", ""},
		{"maximum", strings.Repeat("a", 100), strings.Repeat("a", 100), ""},
		{"over maximum", strings.Repeat("a", 101), "", "Comment is too long. It must be under 100 characters."},
		{"multibyte counted as runes", strings.Repeat("é", 100), strings.Repeat("é", 100), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := validateComment(tt.content)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				assert.Equal(t, tt.want, got)
				return
			}
			assert.True(t, apperrors.IsValidation(err))
			assert.Equal(t, tt.wantMsg, apperrors.GetMessage(err))
			assert.Equal(t, "content", apperrors.GetField(err))
		})
	}
}

func TestValidateName(t *testing.T) {
	got, err := validateName("  Alice  ")
	assert.NoError(t, err)
	assert.Equal(t, "Alice", got)

	_, err = validateName(" ")
	assert.True(t, apperrors.IsValidation(err))
}
