// Package client talks to Things hosted in other processes over their HTTP
// property/action surface.
package client

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrPeerStatus wraps non-2xx responses from a remote Thing.
var ErrPeerStatus = errors.New("peer returned error status")

const apiPrefix = "/api/v1"

// DefaultTimeout bounds every cross-Thing call.
const DefaultTimeout = 5 * time.Second

// errorBody is the JSON error shape every Thing returns.
type errorBody struct {
	Error string `json:"error"`
}

// newRestClient builds a client without resty retries: the caller's
// connection policy decides when to try again.
func newRestClient(baseURL string, timeout time.Duration) *resty.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")+apiPrefix).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetError(&errorBody{})
}

// checkResponse maps a transport error or a non-2xx status to an error.
func checkResponse(op string, resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if resp.IsError() {
		msg := resp.Status()
		if eb, ok := resp.Error().(*errorBody); ok && eb.Error != "" {
			msg = eb.Error
		}
		return fmt.Errorf("%s: %w: %d %s", op, ErrPeerStatus, resp.StatusCode(), msg)
	}
	return nil
}
