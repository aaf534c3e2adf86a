package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/poiesic/lahza/ai/mock"
	"github.com/poiesic/lahza/core"
	"github.com/poiesic/lahza/reindex"
	"github.com/poiesic/lahza/search"
	"github.com/poiesic/lahza/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "cron-s3cret"

type fakeSearcher struct {
	query     string
	episodeID core.ID
	results   []*core.SearchResult
	err       error
}

func (f *fakeSearcher) Search(ctx context.Context, query string, episodeID core.ID) ([]*core.SearchResult, error) {
	f.query = query
	f.episodeID = episodeID
	if f.err != nil {
		return nil, f.err
	}
	if strings.TrimSpace(query) == "" {
		return nil, search.ErrEmptyQuery
	}
	return f.results, nil
}

type fakeReindexer struct {
	calls  int
	offset int
	limit  int
	err    error
}

func (f *fakeReindexer) ProcessBatch(ctx context.Context, offset, limit int) (*reindex.BatchResult, error) {
	f.calls++
	f.offset = offset
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	return &reindex.BatchResult{
		Message:    reindex.MessageBatchProcessed,
		Processed:  1,
		Count:      1,
		NextOffset: offset + limit,
		Details:    []reindex.ItemResult{{ID: 1, Status: reindex.StatusSuccess}},
	}, nil
}

func do(t *testing.T, h http.Handler, method, target string, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestSearch(t *testing.T) {
	searcher := &fakeSearcher{results: []*core.SearchResult{
		{Id: 4, EpisodeID: 2, Content: "on anger", Similarity: 0.81, EpisodeTitle: "Seneca", EpisodeURL: "https://youtu.be/x"},
	}}
	s := New(searcher, &fakeReindexer{})

	rec := do(t, s.Handler(), http.MethodPost, "/api/search", `{"query":"anger","filter_episode":2}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Results []core.SearchResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Results, 1)
	assert.Equal(t, "on anger", body.Results[0].Content)
	assert.Equal(t, "anger", searcher.query)
	assert.Equal(t, core.ID(2), searcher.episodeID)
}

func TestSearch_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		searchErr  error
		wantStatus int
		wantError  string
	}{
		{"empty query", `{"query":""}`, nil, http.StatusBadRequest, "Query required"},
		{"missing query", `{}`, nil, http.StatusBadRequest, "Query required"},
		{"bad json", `{"query":`, nil, http.StatusBadRequest, "Invalid JSON"},
		{"embedding failure", `{"query":"x"}`, errors.New("embedding failed: quota"), http.StatusInternalServerError, "embedding failed: quota"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(&fakeSearcher{err: tt.searchErr}, &fakeReindexer{})
			rec := do(t, s.Handler(), http.MethodPost, "/api/search", tt.body, nil)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, decodeError(t, rec), tt.wantError)
		})
	}
}

func TestReindex_Auth(t *testing.T) {
	tests := []struct {
		name       string
		secret     string
		target     string
		headers    map[string]string
		wantStatus int
		wantError  string
	}{
		{"missing config", "", "/api/reindex", map[string]string{"Authorization": "Bearer "}, http.StatusInternalServerError, "Missing Config"},
		{"no credential", testSecret, "/api/reindex", nil, http.StatusUnauthorized, "Unauthorized"},
		{"wrong bearer", testSecret, "/api/reindex", map[string]string{"Authorization": "Bearer nope"}, http.StatusUnauthorized, "Unauthorized"},
		{"not bearer", testSecret, "/api/reindex", map[string]string{"Authorization": "Basic " + testSecret}, http.StatusUnauthorized, "Unauthorized"},
		{"header wins over query", testSecret, "/api/reindex?secret=" + testSecret, map[string]string{"Authorization": "Bearer nope"}, http.StatusUnauthorized, "Unauthorized"},
		{"bearer", testSecret, "/api/reindex", map[string]string{"Authorization": "Bearer " + testSecret}, http.StatusOK, ""},
		{"query secret", testSecret, "/api/reindex?secret=" + testSecret, nil, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reindexer := &fakeReindexer{}
			s := New(&fakeSearcher{}, reindexer, WithCronSecret(tt.secret))
			rec := do(t, s.Handler(), http.MethodGet, tt.target, "", tt.headers)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, decodeError(t, rec))
				assert.Zero(t, reindexer.calls)
			}
		})
	}
}

func TestReindex_Params(t *testing.T) {
	auth := map[string]string{"Authorization": "Bearer " + testSecret}

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantOffset int
		wantLimit  int
	}{
		{"defaults", "", http.StatusOK, 0, 5},
		{"explicit", "?offset=25&limit=10", http.StatusOK, 25, 10},
		{"max limit", "?limit=50", http.StatusOK, 0, 50},
		{"limit too big", "?limit=51", http.StatusBadRequest, 0, 0},
		{"zero limit", "?limit=0", http.StatusBadRequest, 0, 0},
		{"negative offset", "?offset=-5", http.StatusBadRequest, 0, 0},
		{"garbage offset", "?offset=abc", http.StatusBadRequest, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reindexer := &fakeReindexer{}
			s := New(&fakeSearcher{}, reindexer, WithCronSecret(testSecret))
			rec := do(t, s.Handler(), http.MethodGet, "/api/reindex"+tt.query, "", auth)

			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus != http.StatusOK {
				assert.Zero(t, reindexer.calls)
				return
			}
			assert.Equal(t, tt.wantOffset, reindexer.offset)
			assert.Equal(t, tt.wantLimit, reindexer.limit)

			var result reindex.BatchResult
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
			assert.Equal(t, tt.wantOffset+tt.wantLimit, result.NextOffset)
		})
	}
}

func TestReindex_FetchFailure(t *testing.T) {
	reindexer := &fakeReindexer{err: fmt.Errorf("%w: connection refused", reindex.ErrFetchFailed)}
	s := New(&fakeSearcher{}, reindexer, WithCronSecret(testSecret))

	rec := do(t, s.Handler(), http.MethodGet, "/api/reindex", "", map[string]string{"Authorization": "Bearer " + testSecret})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decodeError(t, rec), "connection refused")
}

func TestReindex_MaxBatchLimitOption(t *testing.T) {
	s := New(&fakeSearcher{}, &fakeReindexer{}, WithCronSecret(testSecret), WithMaxBatchLimit(10))
	rec := do(t, s.Handler(), http.MethodGet, "/api/reindex?limit=11", "", map[string]string{"Authorization": "Bearer " + testSecret})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndRouting(t *testing.T) {
	s := New(&fakeSearcher{}, &fakeReindexer{})

	rec := do(t, s.Handler(), http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, s.Handler(), http.MethodGet, "/api/search", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = do(t, s.Handler(), http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s.Handler(), http.MethodOptions, "/api/search", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestID(t *testing.T) {
	s := New(&fakeSearcher{}, &fakeReindexer{})

	rec := do(t, s.Handler(), http.MethodGet, "/health", "", nil)
	assert.Len(t, rec.Header().Get(requestIDHeader), 36)

	rec = do(t, s.Handler(), http.MethodGet, "/health", "", map[string]string{requestIDHeader: "abc-123"})
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

// The reindex route against a real processor and store.
func TestReindex_EndToEnd(t *testing.T) {
	ctx := context.Background()
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	episode, err := store.UpsertEpisode(ctx, &core.Episode{VideoID: "v", Title: "T", URL: "https://youtu.be/v"})
	require.NoError(t, err)
	for _, content := range []string{"A", "B", "C"} {
		_, err := store.AddChunks(ctx, &core.Chunk{EpisodeID: episode.Id, Content: content})
		require.NoError(t, err)
	}

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		if text == "B" {
			return nil, errors.New("no vector")
		}
		return mock.DeterministicVector(text, core.EmbeddingDimensions), nil
	}
	processor, err := reindex.NewProcessor(store, store, embedder)
	require.NoError(t, err)
	searcher, err := search.NewSearcher(store, embedder)
	require.NoError(t, err)

	s := New(searcher, processor, WithCronSecret(testSecret))
	auth := map[string]string{"Authorization": "Bearer " + testSecret}

	rec := do(t, s.Handler(), http.MethodGet, "/api/reindex?offset=0&limit=3", "", auth)
	require.Equal(t, http.StatusOK, rec.Code)

	var result reindex.BatchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "Batch processed", result.Message)
	assert.Equal(t, 3, result.Processed)
	assert.Equal(t, 3, result.NextOffset)
	require.Len(t, result.Details, 3)
	assert.Equal(t, reindex.StatusSuccess, result.Details[0].Status)
	assert.Equal(t, reindex.StatusFailed, result.Details[1].Status)
	assert.Equal(t, reindex.StatusSuccess, result.Details[2].Status)

	rec = do(t, s.Handler(), http.MethodGet, "/api/reindex?offset=3", "", auth)
	require.Equal(t, http.StatusOK, rec.Code)
	var empty map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &empty))
	assert.Equal(t, "No more chunks found", empty["message"])
	assert.Equal(t, float64(0), empty["count"])

	rec = do(t, s.Handler(), http.MethodPost, "/api/search", `{"query":"C"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"content":"C"`)
}
