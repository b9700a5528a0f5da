package api

import (
	"net"
	"net/http"
	"strings"
)

// SourceAddress returns the client-identifying address used as the
// throttle key. Prefers the forwarded address set by the edge proxy,
// falls back to the transport peer, then to a sentinel so every request
// throttles under some key.
func SourceAddress(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		// First hop is the original client
		first := strings.TrimSpace(strings.SplitN(fwd, ",", 2)[0])
		if first != "" {
			return first
		}
	}

	if real := strings.TrimSpace(r.Header.Get("X-Real-Ip")); real != "" {
		return real
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	if addr := strings.TrimSpace(r.RemoteAddr); addr != "" {
		return addr
	}

	return UnknownAddress
}
