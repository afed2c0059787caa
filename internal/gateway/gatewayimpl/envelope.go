package gatewayimpl

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/orgball2608/snappy-sync/internal/gateway"
)

type envelope struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

type decodeMode int

const (
	// strict requires an explicit success:true.
	strict decodeMode = iota
	// lenient treats a missing success field as success. The notification
	// backend answers some calls without an envelope.
	lenient
	// lookup is strict and marks failures as not-found.
	lookup
)

// decode turns a 2xx body into either the payload (unmarshalled into out) or a
// *gateway.FailureError. out may be nil when the call carries no payload.
func decode(endpoint string, raw []byte, mode decodeMode, out any) error {
	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			if mode == lenient && out == nil {
				return nil
			}
			return transportError(endpoint, fmt.Errorf("malformed response: %w", err))
		}
	}

	ok := env.Success != nil && *env.Success
	if env.Success == nil && mode == lenient {
		ok = true
	}
	if !ok {
		return &gateway.FailureError{
			Endpoint: endpoint,
			Message:  failureMessage(env),
			NotFound: mode == lookup,
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return transportError(endpoint, fmt.Errorf("malformed payload: %w", err))
	}
	return nil
}

func failureMessage(env envelope) string {
	switch {
	case env.Message != "":
		return env.Message
	case env.Error != "":
		return env.Error
	case env.Success == nil:
		return "response missing success flag"
	default:
		return "request failed"
	}
}

func asFailure(err error) *gateway.FailureError {
	var fe *gateway.FailureError
	if errors.As(err, &fe) {
		return fe
	}
	return nil
}
