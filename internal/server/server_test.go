package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"foody/indexer/internal/domain"
	"foody/indexer/internal/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	got    search.Query
	result *search.SearchResult
	err    error
}

func (f *fakeSearcher) Search(_ context.Context, query search.Query) (*search.SearchResult, error) {
	f.got = query
	return f.result, f.err
}

func TestHandleSearch(t *testing.T) {
	searcher := &fakeSearcher{result: &search.SearchResult{
		Total: 1,
		Hits: []search.Hit{{
			ID:     "abc",
			Score:  1.5,
			Source: domain.ItemBody{Name: "Cơm Nhà", Tag: "Quán ăn"},
		}},
	}}
	srv := httptest.NewServer(New(":0", searcher).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/search?query=c%C6%A1m+nh%C3%A0")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body search.SearchResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.EqualValues(t, 1, body.Total)
	require.Len(t, body.Hits, 1)
	assert.Equal(t, "Cơm Nhà", body.Hits[0].Source.Name)

	want, err := search.TextQuery("cơm nhà")
	require.NoError(t, err)
	assert.Equal(t, want, searcher.got)
}

func TestHandleSearch_Errors(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		err        error
		wantStatus int
	}{
		{name: "missing query", path: "/search", wantStatus: http.StatusBadRequest},
		{name: "blank query", path: "/search?query=+", wantStatus: http.StatusBadRequest},
		{name: "index down", path: "/search?query=pho", err: errors.New("connection refused"), wantStatus: http.StatusBadGateway},
		{name: "wrong method", path: "/search?query=pho", wantStatus: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := New(":0", &fakeSearcher{err: tt.err, result: &search.SearchResult{}}).Handler()

			method := http.MethodGet
			if tt.wantStatus == http.StatusMethodNotAllowed {
				method = http.MethodPost
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(method, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestHandleHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	New(":0", &fakeSearcher{}).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestStart_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New("127.0.0.1:0", &fakeSearcher{}).Start(ctx) }()

	cancel()
	assert.NoError(t, <-done)
}
