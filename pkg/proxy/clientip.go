package proxy

import (
	"net"
	"net/http"
	"strings"
)

// HeaderForwardedFor is the de-facto standard proxy chain header.
const HeaderForwardedFor = "X-Forwarded-For"

// ClientIP resolves the caller address: the first X-Forwarded-For entry when
// present, the host part of the remote address otherwise.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get(HeaderForwardedFor); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
