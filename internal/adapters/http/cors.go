package httpadapter

import (
	"net/http"
	"strconv"
	"strings"
)

const corsMaxAgeSeconds = 600

var (
	corsAllowedMethods = []string{
		http.MethodGet,
		http.MethodPost,
		http.MethodOptions,
	}
	corsAllowedHeaders = []string{
		"Accept",
		"Authorization",
		"Content-Type",
		"X-Request-Id",
	}
)

// corsMiddleware answers any origin. The upload form is expected to be served
// from arbitrary hosts, so the policy is deliberately permissive; preflight
// requests are answered with 200 for older clients that reject 204.
func corsMiddleware(next http.Handler) http.Handler {
	allowMethodsValue := strings.Join(corsAllowedMethods, ", ")
	allowHeadersValue := strings.Join(corsAllowedHeaders, ", ")
	maxAgeValue := strconv.Itoa(corsMaxAgeSeconds)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")

		if r.Method == http.MethodOptions {
			w.Header().Add("Vary", "Access-Control-Request-Method")
			w.Header().Add("Vary", "Access-Control-Request-Headers")
			w.Header().Set("Access-Control-Allow-Methods", allowMethodsValue)
			w.Header().Set("Access-Control-Allow-Headers", allowHeadersValue)
			w.Header().Set("Access-Control-Max-Age", maxAgeValue)
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
