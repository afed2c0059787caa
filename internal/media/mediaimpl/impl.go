package mediaimpl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/orgball2608/snappy-sync/internal/media"
	"github.com/orgball2608/snappy-sync/pkg/config"
	"github.com/orgball2608/snappy-sync/pkg/logger"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In
	Config *config.Config
	HTTP   *http.Client
	Logger logger.Logger
}

// Impl uploads unsigned with a preset and deletes through the media proxy.
type Impl struct {
	uploadURL    string
	cloudName    string
	uploadPreset string
	destroyURL   string
	proxyToken   string
	http         *http.Client
	logger       logger.Logger
}

var _ media.Store = (*Impl)(nil)

func New(opts Opts) *Impl {
	return &Impl{
		uploadURL:    opts.Config.Media.UploadURL,
		cloudName:    opts.Config.Media.CloudName,
		uploadPreset: opts.Config.Media.UploadPreset,
		destroyURL:   opts.Config.Media.DestroyURL,
		proxyToken:   opts.Config.MediaProxy.Token,
		http:         opts.HTTP,
		logger:       opts.Logger.WithComponent("MediaStore"),
	}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (m *Impl) Upload(ctx context.Context, r io.Reader, key media.Key) (string, error) {
	fail := func(err error) (string, error) {
		m.logger.Error("Upload failed", "public_id", key.PublicID(), "error", err)
		return "", &media.UploadError{Key: key, Err: err}
	}

	body, contentType, err := multipartBody(r, map[string]string{
		"upload_preset": m.uploadPreset,
		"folder":        key.Folder,
		"public_id":     key.ID,
	}, key.ID)
	if err != nil {
		return fail(err)
	}

	endpoint, err := url.JoinPath(m.uploadURL, m.cloudName, string(resourceType(key)), "upload")
	if err != nil {
		return fail(fmt.Errorf("build url: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return fail(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := m.http.Do(req)
	if err != nil {
		return fail(fmt.Errorf("send request: %w", err))
	}
	defer resp.Body.Close()

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fail(fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err))
	}
	if resp.StatusCode != http.StatusOK || out.Error != nil || out.SecureURL == "" {
		msg := "no url returned"
		if out.Error != nil {
			msg = out.Error.Message
		}
		return fail(fmt.Errorf("status %d: %s", resp.StatusCode, msg))
	}

	m.logger.Debug("Uploaded asset", "public_id", key.PublicID(), "url", out.SecureURL)
	return out.SecureURL, nil
}

func multipartBody(r io.Reader, fields map[string]string, filename string) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, "", fmt.Errorf("read file: %w", err)
	}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := w.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", k, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return buf, w.FormDataContentType(), nil
}

type destroyRequest struct {
	PublicID     string `json:"publicId"`
	ResourceType string `json:"resourceType"`
}

type destroyResponse struct {
	Success bool   `json:"success"`
	Result  string `json:"result"`
	Message string `json:"message"`
}

// Delete asks the media proxy to destroy the asset. The proxy holds the signing secret.
func (m *Impl) Delete(ctx context.Context, key media.Key) (bool, error) {
	payload, err := json.Marshal(destroyRequest{PublicID: key.PublicID(), ResourceType: string(resourceType(key))})
	if err != nil {
		return false, fmt.Errorf("encode destroy request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.destroyURL, bytes.NewReader(payload))
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if m.proxyToken != "" {
		req.Header.Set("Authorization", "Bearer "+m.proxyToken)
	}

	resp, err := m.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: send request: %w", media.ErrDeleteFailed, err)
	}
	defer resp.Body.Close()

	var out destroyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("%w: decode response (status %d): %w", media.ErrDeleteFailed, resp.StatusCode, err)
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode >= 500 {
		return false, fmt.Errorf("%w: proxy status %d: %s", media.ErrDeleteFailed, resp.StatusCode, out.Message)
	}

	if !out.Success {
		m.logger.Warn("Media delete refused", "public_id", key.PublicID(), "result", out.Result, "message", out.Message)
		return false, nil
	}
	return true, nil
}

func resourceType(k media.Key) media.ResourceType {
	if k.ResourceType == "" {
		return media.Image
	}
	return k.ResourceType
}
