package arxiv

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/matsen/refcheck/internal/lookup"
)

func entryXML(id, title string, authors ...string) string {
	s := "<entry><id>" + id + "</id><title>" + title + "</title>"
	for _, a := range authors {
		s += "<author><name>" + a + "</name></author>"
	}
	return s + "</entry>"
}

func newTestClient(serverURL string) *Client {
	return NewClient(
		WithBaseURL(serverURL),
		WithRateLimit(1000),
		WithRetryPolicy(lookup.RetryPolicy{MaxAttempts: 3, BaseBackoff: time.Millisecond, MaxBackoff: 4 * time.Millisecond}),
	)
}

func TestFindPaperRanksBySimilarity(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("search_query")
		fmt.Fprint(w, "<feed>"+
			entryXML("http://arxiv.org/abs/1", "Attention in Convolutional Networks", "Other Person")+
			entryXML("http://arxiv.org/abs/2", "Attention Is All You Need", "Ashish Vaswani")+
			"</feed>")
	}))
	defer server.Close()

	cand, err := newTestClient(server.URL).FindPaper(context.Background(), "Attention Is All You Need", "Vaswani")
	if err != nil {
		t.Fatalf("FindPaper() error = %v", err)
	}

	if gotQuery != `ti:"Attention Is All You Need"` {
		t.Errorf("search_query = %q", gotQuery)
	}
	if cand.ID != "http://arxiv.org/abs/2" {
		t.Errorf("FindPaper() picked %q", cand.ID)
	}
	if cand.URL != cand.ID {
		t.Errorf("URL = %q, want the entry ID", cand.URL)
	}
	if cand.Source != lookup.SourceArxiv {
		t.Errorf("Source = %v", cand.Source)
	}
}

func TestFindPaperAuthorQueryOnlyOnEmptyTitleResult(t *testing.T) {
	var queries []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("search_query")
		queries = append(queries, q)
		if len(queries) == 1 {
			// Title-only query finds nothing.
			fmt.Fprint(w, "<feed></feed>")
			return
		}
		fmt.Fprint(w, "<feed>"+entryXML("http://arxiv.org/abs/9", "Sparse Transformers", "Child")+"</feed>")
	}))
	defer server.Close()

	cand, err := newTestClient(server.URL).FindPaper(context.Background(), "Sparse Transformers", "Child")
	if err != nil {
		t.Fatalf("FindPaper() error = %v", err)
	}
	if len(queries) != 2 {
		t.Fatalf("queries = %v, want title query then title+author query", queries)
	}
	if queries[1] != `ti:"Sparse Transformers" AND au:"Child"` {
		t.Errorf("second query = %q", queries[1])
	}
	if cand.ID != "http://arxiv.org/abs/9" {
		t.Errorf("ID = %q", cand.ID)
	}
}

func TestFindPaperNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<feed></feed>")
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FindPaper(context.Background(), "Nonexistent", "")
	if !lookup.IsNotFound(err) {
		t.Errorf("FindPaper() error = %v, want ErrNotFound", err)
	}
}

func TestQueryRetriesServerErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, "<feed>"+entryXML("http://arxiv.org/abs/1", "Recovered Paper")+"</feed>")
	}))
	defer server.Close()

	cand, err := newTestClient(server.URL).FindPaper(context.Background(), "Recovered Paper", "")
	if err != nil {
		t.Fatalf("FindPaper() error = %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if cand.Title != "Recovered Paper" {
		t.Errorf("Title = %q", cand.Title)
	}
}
