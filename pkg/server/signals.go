package server

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/vango-dev/livepatch/pkg/protocol"
)

// SignalsParam is the query parameter carrying signals on GET and DELETE.
const SignalsParam = "datastar"

// ReadSignals extracts the client's signals from a request: the JSON body
// for requests that have one, or the "datastar" query parameter for GET
// and DELETE. A top-level {"datastar": {...}} wrapper is unwrapped. A
// request with no signals yields an empty set.
func ReadSignals(r *http.Request, maxBytes int64) (protocol.Signals, error) {
	var data []byte
	if r.Method == http.MethodGet || r.Method == http.MethodDelete {
		data = []byte(r.URL.Query().Get(SignalsParam))
	}
	if len(data) == 0 && r.Body != nil && r.Body != http.NoBody {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes+1))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSignals, err)
		}
		if int64(len(body)) > maxBytes {
			return nil, ErrBodyTooLarge
		}
		data = body
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return protocol.Signals{}, nil
	}

	signals, err := protocol.DecodeSignals(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignals, err)
	}
	if inner, ok := signals[SignalsParam].(map[string]any); ok {
		return protocol.Signals(inner), nil
	}
	return signals, nil
}
