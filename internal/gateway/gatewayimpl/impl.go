package gatewayimpl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/orgball2608/snappy-sync/internal/gateway"
	"github.com/orgball2608/snappy-sync/pkg/config"
	apperrors "github.com/orgball2608/snappy-sync/pkg/errors"
	"github.com/orgball2608/snappy-sync/pkg/logger"
	"go.uber.org/fx"
)

const maxBodyBytes = 8 << 20

type Opts struct {
	fx.In
	Config *config.Config
	HTTP   *http.Client
	Logger logger.Logger
}

type Impl struct {
	postURL         string
	userURL         string
	storyURL        string
	notificationURL string
	http            *http.Client
	logger          logger.Logger
}

var _ gateway.Client = (*Impl)(nil)

func New(opts Opts) *Impl {
	return &Impl{
		postURL:         opts.Config.Backend.PostURL,
		userURL:         opts.Config.Backend.UserURL,
		storyURL:        opts.Config.Backend.StoryURL,
		notificationURL: opts.Config.Backend.NotificationURL,
		http:            opts.HTTP,
		logger:          opts.Logger.WithComponent("Gateway"),
	}
}

type request struct {
	method   string
	base     string
	endpoint string
	query    url.Values
	body     any
	header   http.Header
}

// send performs the call and returns the raw body of a 2xx response.
func (g *Impl) send(ctx context.Context, r request) ([]byte, error) {
	target, err := url.JoinPath(r.base, r.endpoint)
	if err != nil {
		return nil, transportError(r.endpoint, fmt.Errorf("build url: %w", err))
	}
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	var reader io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return nil, apperrors.Wrap(err, fmt.Sprintf("%s: encode request", r.endpoint))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, reader)
	if err != nil {
		return nil, transportError(r.endpoint, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range r.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, transportError(r.endpoint, fmt.Errorf("send request: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, transportError(r.endpoint, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		g.logger.Warn("Backend returned non-2xx status",
			"endpoint", r.endpoint,
			"method", r.method,
			"status", resp.StatusCode,
		)
		return nil, transportError(r.endpoint, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, snippet(raw)))
	}

	return raw, nil
}

func transportError(endpoint string, err error) error {
	return apperrors.WrapWithCode(fmt.Errorf("%w: %w", gateway.ErrTransport, err), apperrors.CodeTransport, endpoint)
}

func snippet(raw []byte) string {
	const limit = 200
	if len(raw) > limit {
		return string(raw[:limit]) + "..."
	}
	return string(raw)
}
