package server

import "net/http"

// ReadOnlyMiddleware rejects mutating requests. Only GET, HEAD and OPTIONS
// pass; everything else gets a 405 problem response.
func ReadOnlyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
		default:
			w.Header().Set("Allow", "GET, HEAD, OPTIONS")
			WriteProblem(w, Problem{
				Type:     ProblemTypeReadOnly,
				Title:    "Method Not Allowed",
				Status:   http.StatusMethodNotAllowed,
				Detail:   "server is in read-only mode",
				Instance: r.URL.Path,
			})
		}
	})
}
