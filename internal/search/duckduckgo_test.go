package search

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ddgResponse = `{
  "Heading": "Sam Altman",
  "Abstract": "Sam Altman is CEO of OpenAI.",
  "AbstractURL": "https://en.wikipedia.org/wiki/Sam_Altman",
  "Definition": "",
  "RelatedTopics": [
    {"Text": "OpenAI - An AI research company.", "FirstURL": "https://duckduckgo.com/OpenAI"},
    {"Name": "People", "Topics": [
      {"Text": "Greg Brockman - Co-founder of OpenAI.", "FirstURL": "https://duckduckgo.com/Greg_Brockman"},
      {"Text": "Duplicate", "FirstURL": "https://duckduckgo.com/OpenAI"}
    ]},
    {"Text": "", "FirstURL": "https://duckduckgo.com/empty"}
  ]
}`

func TestDuckDuckGo_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "CEO of OpenAI", q.Get("q"))
		assert.Equal(t, "json", q.Get("format"))
		assert.Equal(t, "1", q.Get("no_html"))
		assert.Equal(t, "1", q.Get("skip_disambig"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(ddgResponse))
	}))
	defer srv.Close()

	backend := NewDuckDuckGo(srv.URL, time.Second, 10, zerolog.Nop())

	snippets, err := backend.Search(context.Background(), "CEO of OpenAI")
	require.NoError(t, err)
	require.Len(t, snippets, 3)

	assert.Equal(t, Snippet{
		Title:       "Sam Altman",
		URL:         "https://en.wikipedia.org/wiki/Sam_Altman",
		Description: "Sam Altman is CEO of OpenAI.",
	}, snippets[0])
	assert.Equal(t, "OpenAI", snippets[1].Title)
	assert.Equal(t, "Greg Brockman", snippets[2].Title)
}

func TestDuckDuckGo_MaxResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(ddgResponse))
	}))
	defer srv.Close()

	backend := NewDuckDuckGo(srv.URL, time.Second, 2, zerolog.Nop())

	snippets, err := backend.Search(context.Background(), "openai")
	require.NoError(t, err)
	assert.Len(t, snippets, 2)
}

func TestDuckDuckGo_EmptyDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Abstract":"","RelatedTopics":[]}`))
	}))
	defer srv.Close()

	snippets, err := NewDuckDuckGo(srv.URL, time.Second, 5, zerolog.Nop()).Search(context.Background(), "xyzzy")
	require.NoError(t, err)
	assert.Empty(t, snippets)
}

func TestDuckDuckGo_Errors(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		}))
		defer srv.Close()

		_, err := NewDuckDuckGo(srv.URL, time.Second, 5, zerolog.Nop()).Search(context.Background(), "mars")
		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
		assert.Equal(t, "rate limited", statusErr.Body)
	})

	t.Run("invalid body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>"))
		}))
		defer srv.Close()

		_, err := NewDuckDuckGo(srv.URL, time.Second, 5, zerolog.Nop()).Search(context.Background(), "mars")
		assert.ErrorIs(t, err, ErrUnexpectedResponse)
	})

	t.Run("deadline", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		defer srv.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := NewDuckDuckGo(srv.URL, 0, 5, zerolog.Nop()).Search(ctx, "mars")
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
	})
}
