// Package search queries web search backends and caches their results.
package search

import (
	"context"
	"errors"
	"fmt"
)

// Snippet is a single normalized search hit.
type Snippet struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// Backend runs a plain-text query and returns a finite, possibly empty, list of snippets.
type Backend interface {
	Search(ctx context.Context, query string) ([]Snippet, error)
}

// ErrUnexpectedResponse is returned when the backend answers with something
// that is not a search result document.
var ErrUnexpectedResponse = errors.New("unexpected search response")

// StatusError reports a non-200 answer from a search backend.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("search backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("search backend returned status %d: %s", e.StatusCode, e.Body)
}
