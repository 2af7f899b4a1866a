package probe

import (
	"net"
	"net/http"
	"net/url"
	"strings"
)

// Verdict is the result of inspecting frame-related response headers.
type Verdict struct {
	Embeddable bool
	Reason     string
}

// Classify decides whether a response with header h, served for target, may be framed by
// a page at publicOrigin. A frame-ancestors directive takes precedence over
// X-Frame-Options, as it does in browsers. An empty publicOrigin cannot satisfy 'self'
// or host-source entries.
func Classify(h http.Header, target, publicOrigin string) Verdict {
	targetOrigin := normalizeOrigin(target)
	publicOrigin = normalizeOrigin(publicOrigin)

	if sources, ok := frameAncestors(h); ok {
		return classifyAncestors(sources, targetOrigin, publicOrigin)
	}

	xfo := strings.ToUpper(strings.TrimSpace(h.Get("X-Frame-Options")))
	switch {
	case xfo == "":
		return Verdict{Embeddable: true}
	case xfo == "DENY":
		return Verdict{Reason: "X-Frame-Options: DENY"}
	case xfo == "SAMEORIGIN":
		if publicOrigin != "" && publicOrigin == targetOrigin {
			return Verdict{Embeddable: true, Reason: "X-Frame-Options: SAMEORIGIN matches public origin"}
		}
		return Verdict{Reason: "X-Frame-Options: SAMEORIGIN"}
	default:
		// ALLOW-FROM and malformed values are ignored by current browsers.
		return Verdict{Embeddable: true, Reason: "X-Frame-Options value ignored: " + xfo}
	}
}

func classifyAncestors(sources []string, targetOrigin, publicOrigin string) Verdict {
	if len(sources) == 0 || (len(sources) == 1 && strings.EqualFold(sources[0], "'none'")) {
		return Verdict{Reason: "frame-ancestors 'none'"}
	}
	var pub *url.URL
	if publicOrigin != "" {
		pub, _ = url.Parse(publicOrigin)
	}
	for _, src := range sources {
		switch strings.ToLower(src) {
		case "*":
			return Verdict{Embeddable: true, Reason: "frame-ancestors *"}
		case "'self'":
			if publicOrigin != "" && publicOrigin == targetOrigin {
				return Verdict{Embeddable: true, Reason: "frame-ancestors 'self' matches public origin"}
			}
			continue
		}
		if pub != nil && matchSource(src, pub) {
			return Verdict{Embeddable: true, Reason: "frame-ancestors allows " + src}
		}
	}
	if pub == nil {
		return Verdict{Reason: "frame-ancestors restricts embedding to: " + strings.Join(sources, " ")}
	}
	return Verdict{Reason: "frame-ancestors does not include " + publicOrigin}
}

// frameAncestors returns the source list of the first frame-ancestors directive across
// all Content-Security-Policy headers.
func frameAncestors(h http.Header) ([]string, bool) {
	for _, policy := range h.Values("Content-Security-Policy") {
		for _, directive := range strings.Split(policy, ";") {
			fields := strings.Fields(directive)
			if len(fields) == 0 || !strings.EqualFold(fields[0], "frame-ancestors") {
				continue
			}
			return fields[1:], true
		}
	}
	return nil, false
}

// matchSource implements the subset of CSP source matching used by frame-ancestors:
// scheme sources, hosts with an optional leading wildcard, and optional ports.
func matchSource(src string, origin *url.URL) bool {
	src = strings.ToLower(strings.TrimSpace(src))
	if strings.HasPrefix(src, "'") {
		return false
	}
	if strings.HasSuffix(src, ":") && !strings.Contains(src, "/") {
		return strings.TrimSuffix(src, ":") == origin.Scheme
	}

	scheme := ""
	if i := strings.Index(src, "://"); i >= 0 {
		scheme = src[:i]
		src = src[i+3:]
	}
	if i := strings.Index(src, "/"); i >= 0 {
		src = src[:i]
	}
	if scheme != "" && scheme != origin.Scheme {
		if !(scheme == "http" && origin.Scheme == "https") {
			return false
		}
	}
	if scheme == "" && origin.Scheme != "http" && origin.Scheme != "https" {
		return false
	}

	host, port := src, ""
	if h, p, err := net.SplitHostPort(src); err == nil {
		host, port = h, p
	}
	originPort := origin.Port()
	if originPort == "" {
		originPort = defaultPort(origin.Scheme)
	}
	if port != "" && port != "*" && port != originPort {
		return false
	}
	if port == "" && originPort != defaultPort(origin.Scheme) {
		return false
	}

	originHost := strings.ToLower(origin.Hostname())
	if strings.HasPrefix(host, "*.") {
		return strings.HasSuffix(originHost, host[1:])
	}
	return host == originHost
}

func defaultPort(scheme string) string {
	if scheme == "https" {
		return "443"
	}
	return "80"
}

func normalizeOrigin(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return strings.ToLower(u.Scheme + "://" + u.Host)
}
