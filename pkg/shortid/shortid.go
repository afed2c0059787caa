package shortid

import (
	"strings"

	"github.com/google/uuid"
)

const length = 8

// New returns the first eight hex characters of a random UUID.
func New() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:length]
}
