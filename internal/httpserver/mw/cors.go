package mw

import (
	"net/http"
	"strings"
)

// CORS allows cross-origin GET/HEAD reads of the public API (node sequences,
// embed fragments) and answers preflight requests. Write routes stay
// same-origin: their methods are not advertised.
func CORS() func(http.Handler) http.Handler {
	allowMethods := strings.Join([]string{http.MethodGet, http.MethodHead, http.MethodOptions}, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Origin") == "" {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("Access-Control-Allow-Origin", "*")
			h.Set("Access-Control-Allow-Methods", allowMethods)
			h.Set("Access-Control-Allow-Headers", "Accept, Content-Type")
			h.Add("Vary", "Origin")

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Set("Access-Control-Max-Age", "600")
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
