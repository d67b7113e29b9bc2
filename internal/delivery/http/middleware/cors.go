package middleware

import (
	"net/http"
	"slices"
	"strings"
)

const (
	corsAllowHeaders  = "Authorization, Content-Type, Accept, " + RequestIDHeader
	corsExposeHeaders = "Content-Disposition, " + RequestIDHeader
	corsMaxAge        = "86400"
)

// CORSConfig lists the browser origins the API serves and the methods its routes use.
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
}

// CORS adds CORS headers for allowed origins. Preflight requests are answered
// with 204 and never reach next; the allow headers are only sent when both the
// origin and the requested method are allowed.
func CORS(cfg CORSConfig, next http.Handler) http.Handler {
	origins := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		o = strings.TrimSuffix(strings.TrimSpace(o), "/")
		if o != "" {
			origins[o] = struct{}{}
		}
	}
	methods := slices.Clone(cfg.AllowedMethods)
	slices.Sort(methods)
	methods = slices.Compact(methods)
	allowMethods := strings.Join(append(slices.Clone(methods), http.MethodOptions), ", ")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Add("Vary", "Origin")
		}
		_, allowed := origins[origin]

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			requested := r.Header.Get("Access-Control-Request-Method")
			if allowed && slices.Contains(methods, requested) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Allow-Methods", allowMethods)
				w.Header().Set("Access-Control-Allow-Headers", corsAllowHeaders)
				w.Header().Set("Access-Control-Max-Age", corsMaxAge)
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if allowed {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Expose-Headers", corsExposeHeaders)
		}
		next.ServeHTTP(w, r)
	})
}
