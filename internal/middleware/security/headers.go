package security

import (
	"fmt"
	"net/http"
	"strings"
)

// HeadersConfig holds the CORS and response hardening headers of the API.
type HeadersConfig struct {
	AllowOrigin  string
	AllowMethods []string
	AllowHeaders []string
	MaxAge       int // seconds a preflight may be cached, 0 omits the header

	XContentTypeOptions string
	XFrameOptions       string
	ReferrerPolicy      string
}

// DefaultHeadersConfig allows any origin to call the API from a browser.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		AllowOrigin:         "*",
		AllowMethods:        []string{http.MethodGet, http.MethodOptions},
		AllowHeaders:        []string{"Content-Type"},
		XContentTypeOptions: "nosniff",
		XFrameOptions:       "DENY",
		ReferrerPolicy:      "strict-origin-when-cross-origin",
	}
}

// HeadersMiddleware applies CORS headers to every response, errors included,
// and answers preflight requests itself.
type HeadersMiddleware struct {
	config HeadersConfig
}

func NewHeadersMiddleware(config HeadersConfig) *HeadersMiddleware {
	return &HeadersMiddleware{config: config}
}

// CORS returns the default middleware restricted to methods. OPTIONS is always allowed.
func CORS(methods ...string) func(http.Handler) http.Handler {
	cfg := DefaultHeadersConfig()
	cfg.AllowMethods = append(methods, http.MethodOptions)
	return NewHeadersMiddleware(cfg).Middleware
}

func (h *HeadersMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.applyHeaders(w)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *HeadersMiddleware) applyHeaders(w http.ResponseWriter) {
	headers := w.Header()

	headers.Set("Access-Control-Allow-Origin", h.config.AllowOrigin)
	headers.Set("Access-Control-Allow-Methods", strings.Join(dedupe(h.config.AllowMethods), ", "))
	headers.Set("Access-Control-Allow-Headers", strings.Join(h.config.AllowHeaders, ", "))
	if h.config.MaxAge > 0 {
		headers.Set("Access-Control-Max-Age", fmt.Sprintf("%d", h.config.MaxAge))
	}

	if h.config.XContentTypeOptions != "" {
		headers.Set("X-Content-Type-Options", h.config.XContentTypeOptions)
	}
	if h.config.XFrameOptions != "" {
		headers.Set("X-Frame-Options", h.config.XFrameOptions)
	}
	if h.config.ReferrerPolicy != "" {
		headers.Set("Referrer-Policy", h.config.ReferrerPolicy)
	}
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToUpper(strings.TrimSpace(v))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
