package server

import (
	"encoding/json"
	"net/http"
)

// Problem types for RFC 7807 Problem Details responses.
const (
	ProblemTypeNotFound         = "https://droidspec.dev/problems/not-found"
	ProblemTypeBadRequest       = "https://droidspec.dev/problems/bad-request"
	ProblemTypeInternal         = "https://droidspec.dev/problems/internal-error"
	ProblemTypeRateLimited      = "https://droidspec.dev/problems/rate-limited"
	ProblemTypeConflict         = "https://droidspec.dev/problems/conflict"
	ProblemTypeValidationFailed = "https://droidspec.dev/problems/validation-failed"
	ProblemTypeBadGateway       = "https://droidspec.dev/problems/bad-gateway"
	ProblemTypeReadOnly         = "https://droidspec.dev/problems/read-only"
)

// Problem represents an RFC 7807 Problem Details response. Errors is an
// extension member listing individual catalog validation failures.
type Problem struct {
	Type     string   `json:"type" example:"https://droidspec.dev/problems/bad-request"`
	Title    string   `json:"title" example:"Bad Request"`
	Status   int      `json:"status" example:"400"`
	Detail   string   `json:"detail,omitempty" example:"unsupported export format: pdf"`
	Instance string   `json:"instance,omitempty" example:"/api/v1/export"`
	Errors   []string `json:"errors,omitempty"`
}

// WriteProblem writes an RFC 7807 Problem Details JSON response.
func WriteProblem(w http.ResponseWriter, p Problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// WriteJSON writes data as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// NotFound writes a 404 problem response.
func NotFound(w http.ResponseWriter, detail, instance string) {
	WriteProblem(w, Problem{
		Type:     ProblemTypeNotFound,
		Title:    "Not Found",
		Status:   http.StatusNotFound,
		Detail:   detail,
		Instance: instance,
	})
}

// BadRequest writes a 400 problem response.
func BadRequest(w http.ResponseWriter, detail, instance string) {
	WriteProblem(w, Problem{
		Type:     ProblemTypeBadRequest,
		Title:    "Bad Request",
		Status:   http.StatusBadRequest,
		Detail:   detail,
		Instance: instance,
	})
}

// Conflict writes a 409 problem response.
func Conflict(w http.ResponseWriter, detail, instance string) {
	WriteProblem(w, Problem{
		Type:     ProblemTypeConflict,
		Title:    "Conflict",
		Status:   http.StatusConflict,
		Detail:   detail,
		Instance: instance,
	})
}

// ValidationFailed writes a 422 problem response carrying the individual
// validation errors.
func ValidationFailed(w http.ResponseWriter, detail, instance string, errs []string) {
	WriteProblem(w, Problem{
		Type:     ProblemTypeValidationFailed,
		Title:    "Unprocessable Entity",
		Status:   http.StatusUnprocessableEntity,
		Detail:   detail,
		Instance: instance,
		Errors:   errs,
	})
}

// BadGateway writes a 502 problem response for upstream fetch failures.
func BadGateway(w http.ResponseWriter, detail, instance string) {
	WriteProblem(w, Problem{
		Type:     ProblemTypeBadGateway,
		Title:    "Bad Gateway",
		Status:   http.StatusBadGateway,
		Detail:   detail,
		Instance: instance,
	})
}

// InternalError writes a 500 problem response.
func InternalError(w http.ResponseWriter, detail, instance string) {
	WriteProblem(w, Problem{
		Type:     ProblemTypeInternal,
		Title:    "Internal Server Error",
		Status:   http.StatusInternalServerError,
		Detail:   detail,
		Instance: instance,
	})
}

// RateLimited writes a 429 problem response.
func RateLimited(w http.ResponseWriter, detail, instance string) {
	WriteProblem(w, Problem{
		Type:     ProblemTypeRateLimited,
		Title:    "Too Many Requests",
		Status:   http.StatusTooManyRequests,
		Detail:   detail,
		Instance: instance,
	})
}
