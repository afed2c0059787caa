// Package mediaproxy is the only holder of the object-store API secret. It
// signs destroy calls for agents that present the shared proxy token.
package mediaproxy

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	"github.com/orgball2608/snappy-sync/internal/media"
	"github.com/orgball2608/snappy-sync/internal/media/signer"
	"github.com/orgball2608/snappy-sync/pkg/config"
	"github.com/orgball2608/snappy-sync/pkg/httpserver"
	"github.com/orgball2608/snappy-sync/pkg/logger"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In
	Config *config.Config
	HTTP   *http.Client
	Logger logger.Logger
	Clock  clockwork.Clock `optional:"true"`
}

type Handler struct {
	destroyBase string
	cloudName   string
	apiKey      string
	apiSecret   string
	token       string
	http        *http.Client
	clock       clockwork.Clock
	logger      logger.Logger
}

func New(opts Opts) *Handler {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Handler{
		destroyBase: opts.Config.MediaProxy.DestroyURL,
		cloudName:   opts.Config.Media.CloudName,
		apiKey:      opts.Config.MediaProxy.APIKey,
		apiSecret:   opts.Config.MediaProxy.APISecret,
		token:       opts.Config.MediaProxy.Token,
		http:        opts.HTTP,
		clock:       opts.Clock,
		logger:      opts.Logger.WithComponent("MediaProxy"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := httpserver.NewRouter(h.logger)
	r.Get("/healthz", httpserver.Healthz)
	r.Route("/media", func(r chi.Router) {
		r.Use(h.requireToken)
		r.Post("/destroy", h.HandleDestroy)
	})
	return r
}

type destroyRequest struct {
	PublicID     string `json:"publicId"`
	ResourceType string `json:"resourceType"`
}

type destroyResponse struct {
	Success bool   `json:"success"`
	Result  string `json:"result,omitempty"`
	Message string `json:"message,omitempty"`
}

func (h *Handler) HandleDestroy(w http.ResponseWriter, r *http.Request) {
	var req destroyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpserver.WriteJSON(w, http.StatusBadRequest, destroyResponse{Message: "invalid request body"})
		return
	}

	if err := validate(req); err != nil {
		h.logger.Warn("Refusing destroy request", "public_id", req.PublicID, "reason", err)
		httpserver.WriteJSON(w, http.StatusBadRequest, destroyResponse{Message: err.Error()})
		return
	}
	if req.ResourceType == "" {
		req.ResourceType = string(media.Image)
	}

	result, err := h.destroy(r.Context(), req)
	if err != nil {
		h.logger.Error("Destroy call failed", "public_id", req.PublicID, "error", err)
		httpserver.WriteJSON(w, http.StatusBadGateway, destroyResponse{Message: "object store unavailable"})
		return
	}

	h.logger.Info("Destroy handled", "public_id", req.PublicID, "result", result)
	httpserver.WriteJSON(w, http.StatusOK, destroyResponse{Success: result == "ok", Result: result})
}

// requireToken admits only callers presenting the shared bearer token.
func (h *Handler) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || h.token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) != 1 {
			h.logger.Warn("Rejected unauthenticated media request", "path", r.URL.Path, "remote", r.RemoteAddr)
			httpserver.WriteJSON(w, http.StatusUnauthorized, destroyResponse{Message: "missing or invalid proxy token"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func validate(req destroyRequest) error {
	if !strings.HasPrefix(req.PublicID, media.Root+"/") {
		return fmt.Errorf("public id must live under %s/", media.Root)
	}
	if strings.Contains(req.PublicID, "..") {
		return fmt.Errorf("public id must not contain '..'")
	}
	switch media.ResourceType(req.ResourceType) {
	case "", media.Image, media.Video:
		return nil
	default:
		return fmt.Errorf("unsupported resource type %q", req.ResourceType)
	}
}

// destroy calls the object store and returns its result string ("ok", "not found").
func (h *Handler) destroy(ctx context.Context, req destroyRequest) (string, error) {
	timestamp := strconv.FormatInt(h.clock.Now().Unix(), 10)
	params := map[string]string{
		"public_id": req.PublicID,
		"timestamp": timestamp,
	}

	form := url.Values{}
	form.Set("public_id", req.PublicID)
	form.Set("timestamp", timestamp)
	form.Set("api_key", h.apiKey)
	form.Set("signature", signer.Sign(params, h.apiSecret))

	endpoint, err := url.JoinPath(h.destroyBase, h.cloudName, req.ResourceType, "destroy")
	if err != nil {
		return "", fmt.Errorf("build url: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := h.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	var out struct {
		Result string `json:"result"`
		Error  *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, out.Error.Message)
	}
	return out.Result, nil
}

var Module = fx.Module("media_proxy",
	fx.Provide(New),
	fx.Invoke(func(lc fx.Lifecycle, h *Handler, cfg *config.Config, log logger.Logger) {
		httpserver.Register(lc, log.WithComponent("MediaProxyServer"), cfg.MediaProxy.Port, h.Routes())
	}),
)
