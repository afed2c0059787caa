package gatewayimpl

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/orgball2608/snappy-sync/internal/domain"
)

const (
	endpointNotifications      = ""
	endpointMarkSeen           = "mark-seen"
	notificationRecipientField = "uid"
)

func recipientHeader(username string) http.Header {
	return http.Header{notificationRecipientField: {username}}
}

// FetchNotifications reads the recipient's list. This backend answers with a
// bare array instead of an envelope.
func (g *Impl) FetchNotifications(ctx context.Context, username string) ([]domain.Notification, error) {
	raw, err := g.send(ctx, request{
		method:   http.MethodGet,
		base:     g.notificationURL,
		endpoint: endpointNotifications,
		header:   recipientHeader(username),
	})
	if err != nil {
		return nil, err
	}

	var items []domain.Notification
	if err := json.Unmarshal(raw, &items); err != nil {
		// Failures still come wrapped in the usual envelope.
		if derr := decode("notifications", raw, strict, nil); derr != nil {
			return nil, derr
		}
		return nil, transportError("notifications", fmt.Errorf("malformed payload: %w", err))
	}

	for i := range items {
		if items[i].RecipientUsername == "" {
			items[i].RecipientUsername = username
		}
	}
	return items, nil
}

func (g *Impl) MarkAllSeen(ctx context.Context, username string) error {
	raw, err := g.send(ctx, request{
		method:   http.MethodPut,
		base:     g.notificationURL,
		endpoint: endpointMarkSeen,
		header:   recipientHeader(username),
	})
	if err != nil {
		return err
	}
	return decode(endpointMarkSeen, raw, lenient, nil)
}

func (g *Impl) DeleteNotification(ctx context.Context, username, id string) error {
	raw, err := g.send(ctx, request{
		method:   http.MethodDelete,
		base:     g.notificationURL,
		endpoint: url.PathEscape(id),
		header:   recipientHeader(username),
	})
	if err != nil {
		return err
	}
	return decode("delete-notification", raw, lenient, nil)
}
