package server

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"

	"github.com/hanpama/resolverlog/internal/language"
)

const errBodyTooLargeMessage = "body too large"

// Request is one GraphQL-over-HTTP request.
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
	Extensions    map[string]any `json:"extensions,omitempty"`
}

// parseRequest reads a GET query string or a JSON POST body. A JSON array
// body is returned as a batch.
func parseRequest(r *http.Request, maxBody int64) (Request, []Request, *language.Error) {
	if r.Method == http.MethodGet {
		q := r.URL.Query()
		req := Request{Query: q.Get("query"), OperationName: q.Get("operationName"), Variables: map[string]any{}}
		if req.Query == "" {
			return Request{}, nil, language.Errorf("missing 'query'")
		}
		if v := q.Get("variables"); v != "" {
			if err := json.Unmarshal([]byte(v), &req.Variables); err != nil {
				return Request{}, nil, language.Errorf("invalid 'variables' JSON")
			}
		}
		return req, nil, nil
	}

	if ct := r.Header.Get("Content-Type"); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err != nil || mt != "application/json" {
			return Request{}, nil, language.Errorf("unsupported Content-Type")
		}
	}

	defer r.Body.Close()
	reader := io.Reader(r.Body)
	if maxBody > 0 {
		reader = io.LimitReader(r.Body, maxBody+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return Request{}, nil, language.Errorf("failed to read body")
	}
	if maxBody > 0 && int64(len(body)) > maxBody {
		return Request{}, nil, language.Errorf(errBodyTooLargeMessage)
	}

	if len(body) > 0 && body[0] == '[' {
		var batch []Request
		if err := json.Unmarshal(body, &batch); err != nil {
			return Request{}, nil, language.Errorf("invalid JSON")
		}
		if len(batch) == 0 {
			return Request{}, nil, language.Errorf("empty batch")
		}
		return Request{}, batch, nil
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return Request{}, nil, language.Errorf("invalid JSON")
	}
	if req.Query == "" {
		return Request{}, nil, language.Errorf("missing 'query'")
	}
	return req, nil, nil
}
