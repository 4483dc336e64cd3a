package realtime

import (
	"net"
	"net/http"
	"net/url"
	"strings"
)

// originPolicy decides which browser origins may open a socket. Requests
// without an Origin header (non-browser clients) are always accepted, as are
// same-host and loopback origins.
type originPolicy struct {
	allowAll bool
	hosts    map[string]struct{}
}

func newOriginPolicy(origins []string) originPolicy {
	policy := originPolicy{hosts: make(map[string]struct{}, len(origins))}
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			policy.allowAll = true
			continue
		}
		if host := hostWithoutPort(origin); host != "" {
			policy.hosts[strings.ToLower(host)] = struct{}{}
		}
	}
	return policy
}

func (p originPolicy) check(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || p.allowAll {
		return true
	}
	host := strings.ToLower(hostWithoutPort(origin))
	if host == "" {
		return false
	}
	if host == strings.ToLower(hostWithoutPort(r.Host)) || isLoopback(host) {
		return true
	}
	_, ok := p.hosts[host]
	return ok
}

// hostWithoutPort accepts either a bare host[:port] or an origin URL.
func hostWithoutPort(value string) string {
	value = strings.TrimSpace(value)
	if strings.Contains(value, "://") {
		parsed, err := url.Parse(value)
		if err != nil {
			return ""
		}
		return parsed.Hostname()
	}
	if host, _, err := net.SplitHostPort(value); err == nil {
		return host
	}
	return value
}

func isLoopback(host string) bool {
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return strings.EqualFold(host, "localhost")
}
