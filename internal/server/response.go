package server

import (
	"encoding/json"
	"net/http"
	"slices"

	"github.com/hanpama/resolverlog/internal/executor"
	"github.com/hanpama/resolverlog/internal/language"
)

type location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

type responseError struct {
	Message    string         `json:"message"`
	Locations  []location     `json:"locations,omitempty"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// response is the GraphQL response body. Data is omitted only for request
// errors raised before execution.
type response struct {
	Data   any             `json:"data,omitempty"`
	Errors []responseError `json:"errors,omitempty"`
}

func errorResponse(err *language.Error) response {
	re := responseError{Message: err.Message, Extensions: err.Extensions}
	for _, l := range err.Locations {
		re.Locations = append(re.Locations, location{Line: l.Line, Column: l.Column})
	}
	return response{Errors: []responseError{re}}
}

func toResponse(res *executor.ExecutionResult) response {
	out := response{Data: res.Data}
	for _, e := range res.Errors {
		out.Errors = append(out.Errors, responseError{
			Message:    e.Message,
			Path:       slices.Clone([]any(e.Path)),
			Extensions: e.Extensions,
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any, pretty bool) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	_ = enc.Encode(v)
}
