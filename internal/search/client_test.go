package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"foody/indexer/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

type fakeElastic struct {
	mu       sync.Mutex
	requests []recordedRequest
	handler  func(w http.ResponseWriter, r *http.Request, body string)
}

func (f *fakeElastic) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Body: string(body)})
	f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	f.handler(w, r, string(body))
}

func (f *fakeElastic) paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	paths := make([]string, 0, len(f.requests))
	for _, r := range f.requests {
		paths = append(paths, r.Method+" "+r.Path)
	}
	return paths
}

func newTestClient(t *testing.T, handler func(w http.ResponseWriter, r *http.Request, body string)) (*Client, *fakeElastic) {
	t.Helper()
	fake := &fakeElastic{handler: handler}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client := NewClient(Config{URL: server.URL, Index: "information-retrieve", Timeout: 5 * time.Second})
	t.Cleanup(func() { _ = client.Close() })
	return client, fake
}

func TestClient_Upsert(t *testing.T) {
	client, fake := newTestClient(t, func(w http.ResponseWriter, _ *http.Request, _ string) {
		_, _ = w.Write([]byte(`{"_id":"abc","result":"created"}`))
	})

	body := domain.ItemBody{Name: "Cơm Nhà", Address: "12 Main St", Menu: []domain.MenuLine{{Name: "Nem", Price: 30000}}}
	result, err := client.Upsert(context.Background(), "abc", body)
	require.NoError(t, err)
	assert.Equal(t, ResultCreated, result)

	require.Len(t, fake.requests, 1)
	req := fake.requests[0]
	assert.Equal(t, "PUT /information-retrieve/_doc/abc", req.Method+" "+req.Path)

	var sent map[string]any
	require.NoError(t, json.Unmarshal([]byte(req.Body), &sent))
	assert.Equal(t, "Cơm Nhà", sent["name"])
	assert.NotContains(t, sent, "id")
}

func TestClient_UpsertUpdated(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request, _ string) {
		_, _ = w.Write([]byte(`{"result":"updated"}`))
	})

	result, err := client.Upsert(context.Background(), "abc", domain.ItemBody{})
	require.NoError(t, err)
	assert.Equal(t, ResultUpdated, result)
}

func TestClient_UpsertHTTPError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request, _ string) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"mapper_parsing_exception"}`))
	})

	_, err := client.Upsert(context.Background(), "abc", domain.ItemBody{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "abc")
}

func TestClient_SearchRefreshesFirst(t *testing.T) {
	client, fake := newTestClient(t, func(w http.ResponseWriter, r *http.Request, _ string) {
		switch r.URL.Path {
		case "/information-retrieve/_refresh":
			_, _ = w.Write([]byte(`{"_shards":{"total":1,"successful":1,"failed":0}}`))
		case "/information-retrieve/_search":
			_, _ = w.Write([]byte(`{"hits":{"total":{"value":1},"hits":[
				{"_id":"abc","_score":1.5,"_source":{"name":"Cơm Nhà","tag":"Quán ăn","menu":[]}}
			]}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	query, err := NewQuery().Bool().Should(MatchPhrase("name", "cơm nhà")).Build()
	require.NoError(t, err)

	result, err := client.Search(context.Background(), query)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"POST /information-retrieve/_refresh",
		"POST /information-retrieve/_search",
	}, fake.paths())
	assert.JSONEq(t, `{"query":{"bool":{"should":[{"match_phrase":{"name":"cơm nhà"}}]}}}`, fake.requests[1].Body)

	require.Len(t, result.Hits, 1)
	assert.Equal(t, int64(1), result.Total)
	assert.Equal(t, "abc", result.Hits[0].ID)
	assert.Equal(t, "Cơm Nhà", result.Hits[0].Source.Name)
}

func TestClient_SearchStopsWhenRefreshFails(t *testing.T) {
	client, fake := newTestClient(t, func(w http.ResponseWriter, _ *http.Request, _ string) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"index_not_found_exception"}`))
	})

	query, err := TextQuery("phở")
	require.NoError(t, err)

	_, err = client.Search(context.Background(), query)
	require.Error(t, err)
	assert.Equal(t, []string{"POST /information-retrieve/_refresh"}, fake.paths())
}
