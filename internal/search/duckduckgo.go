package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// DefaultEndpoint is the DuckDuckGo Instant Answer API.
const DefaultEndpoint = "https://api.duckduckgo.com/"

const maxErrorBody = 512

// DuckDuckGo queries the DuckDuckGo Instant Answer API.
type DuckDuckGo struct {
	endpoint   string
	client     *http.Client
	maxResults int
	logger     zerolog.Logger
}

// NewDuckDuckGo creates a backend for endpoint. A zero timeout leaves the
// deadline to the caller's context.
func NewDuckDuckGo(endpoint string, timeout time.Duration, maxResults int, logger zerolog.Logger) *DuckDuckGo {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if maxResults <= 0 {
		maxResults = 5
	}
	return &DuckDuckGo{
		endpoint:   endpoint,
		client:     &http.Client{Timeout: timeout},
		maxResults: maxResults,
		logger:     logger.With().Str("component", "duckduckgo").Logger(),
	}
}

// Search implements Backend.
func (d *DuckDuckGo) Search(ctx context.Context, query string) ([]Snippet, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("no_html", "1")
	params.Set("skip_disambig", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if !gjson.ValidBytes(body) {
		return nil, ErrUnexpectedResponse
	}

	snippets := d.parse(gjson.ParseBytes(body))

	d.logger.Debug().
		Str("query", query).
		Int("results", len(snippets)).
		Dur("duration", time.Since(start)).
		Msg("Search completed")

	return snippets, nil
}

func (d *DuckDuckGo) parse(doc gjson.Result) []Snippet {
	var snippets []Snippet
	seen := make(map[string]bool)

	add := func(s Snippet) bool {
		if s.Description == "" || (s.URL != "" && seen[s.URL]) {
			return len(snippets) < d.maxResults
		}
		seen[s.URL] = true
		snippets = append(snippets, s)
		return len(snippets) < d.maxResults
	}

	heading := doc.Get("Heading").String()

	if !add(Snippet{
		Title:       heading,
		URL:         doc.Get("AbstractURL").String(),
		Description: doc.Get("Abstract").String(),
	}) {
		return snippets
	}

	if !add(Snippet{
		Title:       heading,
		URL:         doc.Get("DefinitionURL").String(),
		Description: doc.Get("Definition").String(),
	}) {
		return snippets
	}

	// RelatedTopics mixes plain topics with named groups holding more topics.
	doc.Get("RelatedTopics").ForEach(func(_, topic gjson.Result) bool {
		if group := topic.Get("Topics"); group.IsArray() {
			more := true
			group.ForEach(func(_, nested gjson.Result) bool {
				more = add(topicSnippet(nested))
				return more
			})
			return more
		}
		return add(topicSnippet(topic))
	})

	return snippets
}

func topicSnippet(topic gjson.Result) Snippet {
	text := topic.Get("Text").String()
	title := text
	if i := strings.Index(text, " - "); i > 0 {
		title = text[:i]
	}
	return Snippet{
		Title:       title,
		URL:         topic.Get("FirstURL").String(),
		Description: text,
	}
}
