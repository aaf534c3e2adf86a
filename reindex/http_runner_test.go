package reindex

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPRunner_RunBatch(t *testing.T) {
	var gotPath, gotAuth, gotOffset, gotLimit string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotOffset = r.URL.Query().Get("offset")
		gotLimit = r.URL.Query().Get("limit")
		json.NewEncoder(w).Encode(BatchResult{
			Message:    MessageBatchProcessed,
			Processed:  2,
			Count:      2,
			NextOffset: 15,
			Details: []ItemResult{
				{ID: 11, Status: StatusSuccess},
				{ID: 12, Status: StatusFailed, Error: "quota exceeded"},
			},
		})
	}))
	defer server.Close()

	runner := NewHTTPRunner(server.URL+"/", "s3cret", time.Second)
	result, err := runner.RunBatch(context.Background(), 10, 5)
	require.NoError(t, err)

	assert.Equal(t, "/api/reindex", gotPath)
	assert.Equal(t, "Bearer s3cret", gotAuth)
	assert.Equal(t, "10", gotOffset)
	assert.Equal(t, "5", gotLimit)
	assert.Equal(t, 15, result.NextOffset)
	require.Len(t, result.Details, 2)
	assert.Equal(t, "quota exceeded", result.Details[1].Error)
}

func TestHTTPRunner_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":"Unauthorized"}`, "Unauthorized"},
		{"server error without body", http.StatusInternalServerError, ``, "returned 500"},
		{"bad json", http.StatusOK, `{not json`, "decode"},
		{"details mismatch", http.StatusOK, `{"message":"Batch processed","processed":3,"details":[]}`, "malformed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			runner := NewHTTPRunner(server.URL, "s3cret", time.Second)
			_, err := runner.RunBatch(context.Background(), 0, 5)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestHTTPRunner_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	runner := NewHTTPRunner(server.URL, "s3cret", 20*time.Millisecond)
	_, err := runner.RunBatch(context.Background(), 0, 5)
	assert.Error(t, err)
}
