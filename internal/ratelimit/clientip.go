// SPDX-License-Identifier: MIT

package ratelimit

import (
	"errors"
	"net"
	"net/http"
	"strings"
)

// ErrNoForwardedFor is returned when forwarded-for extraction is configured
// but the header is absent. The deployment expects a reverse proxy in front;
// a missing header means the proxy is misconfigured, which the caller should
// hear about rather than being accounted under the proxy's address.
var ErrNoForwardedFor = errors.New("no X-Forwarded-For header present, inform the admin about this error")

// ClientIP extracts the address used for rate-limit accounting. With
// useForwardedFor the first value of the X-Forwarded-For header wins;
// otherwise the transport peer address is used.
func ClientIP(r *http.Request, useForwardedFor bool) (string, error) {
	if useForwardedFor {
		xff := r.Header.Get("X-Forwarded-For")
		if xff == "" {
			return "", ErrNoForwardedFor
		}
		if idx := strings.IndexByte(xff, ','); idx >= 0 {
			xff = xff[:idx]
		}
		return strings.TrimSpace(xff), nil
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr, nil
	}
	return host, nil
}
