package httpserver

import (
	"net/http"
	"strings"

	"github.com/mrbrightsides/sentinel/internal/page"
)

// SecurityHeaders sets response headers common to every route. When the current page is
// in strict mode a Content-Security-Policy limits frames to the embed origin.
func SecurityHeaders(pages *page.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hdr := w.Header()
			hdr.Set("X-Content-Type-Options", "nosniff")
			hdr.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if pages != nil {
				if csp := contentSecurityPolicy(pages.Load().Embed); csp != "" {
					hdr.Set("Content-Security-Policy", csp)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func contentSecurityPolicy(embed page.EmbedSpec) string {
	if embed.Mode != page.EmbedStrict {
		return ""
	}
	frameSrc := embed.Origin()
	if frameSrc == "" {
		frameSrc = "'none'"
	}
	return strings.Join([]string{
		"default-src 'none'",
		"style-src 'unsafe-inline'",
		"img-src https: data:",
		"frame-src " + frameSrc,
		"base-uri 'none'",
		"form-action 'none'",
		"frame-ancestors 'self'",
	}, "; ")
}
