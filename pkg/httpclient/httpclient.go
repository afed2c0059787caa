// Package httpclient builds the HTTP client shared by every backend caller.
package httpclient

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/orgball2608/snappy-sync/pkg/config"
	"golang.org/x/net/publicsuffix"
)

// New returns a client whose cookie jar carries the session cookie across backends.
// A zero timeout means no deadline beyond the caller's context.
func New(timeout time.Duration) (*http.Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	return &http.Client{
		Jar:     jar,
		Timeout: timeout,
	}, nil
}

// FromConfig is the fx constructor.
func FromConfig(cfg *config.Config) (*http.Client, error) {
	return New(cfg.Backend.Timeout)
}
