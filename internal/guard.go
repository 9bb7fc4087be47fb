package internal

import (
	"net"
	"net/http"
	"net/url"
	"strings"

	"it-inventory-manager/internal/config"
)

// localOnly rejects requests whose Host header does not name a loopback host
// on the listen port. A configured port of 0 accepts any port.
func (s *Server) localOnly(addr string) func(http.Handler) http.Handler {
	_, listenPort, _ := net.SplitHostPort(addr)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host, port := hostParts(r.Host)
			if !config.IsLoopbackHost(host) || (listenPort != "0" && port != listenPort) {
				s.forbid(w, r, "host is not this window")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// sameOrigin rejects form posts that cannot prove they were submitted from
// the window itself. Origin is preferred over Referer.
func (s *Server) sameOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("Sec-Fetch-Site") {
		case "", "same-origin", "none":
		default:
			s.forbid(w, r, "cross-site request")
			return
		}

		proof := strings.TrimSpace(r.Header.Get("Origin"))
		if proof == "" {
			proof = strings.TrimSpace(r.Header.Get("Referer"))
		}
		if !sameOriginAs(proof, r.Host) {
			s.forbid(w, r, "origin does not match")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) forbid(w http.ResponseWriter, r *http.Request, reason string) {
	s.Log.WithField("path", r.URL.Path).
		WithField("host", r.Host).
		WithField("origin", r.Header.Get("Origin")).
		Warn("request refused: " + reason)
	http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
}

func sameOriginAs(raw, requestHost string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil || !strings.EqualFold(u.Scheme, "http") {
		return false
	}
	originHost, originPort := hostParts(u.Host)
	host, port := hostParts(requestHost)
	return originHost != "" && originHost == host && originPort == port
}

// hostParts splits a Host header value into a lowercase host and a port,
// defaulting the port to 80.
func hostParts(hostport string) (string, string) {
	hostport = strings.TrimSpace(hostport)
	host, port, err := net.SplitHostPort(hostport)
	if err != nil {
		host, port = hostport, ""
	}
	host = strings.ToLower(strings.TrimSuffix(strings.TrimPrefix(host, "["), "]"))
	if port == "" {
		port = "80"
	}
	return host, port
}
