package reindex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// HTTPRunner runs batches by calling a remote GET /api/reindex endpoint.
type HTTPRunner struct {
	endpoint string
	secret   string
	client   *http.Client
}

var _ BatchRunner = (*HTTPRunner)(nil)

// NewHTTPRunner creates a runner for the service at baseURL, authenticating
// with secret as a bearer token. timeout bounds each call.
func NewHTTPRunner(baseURL, secret string, timeout time.Duration) *HTTPRunner {
	return &HTTPRunner{
		endpoint: strings.TrimSuffix(baseURL, "/") + "/api/reindex",
		secret:   secret,
		client:   &http.Client{Timeout: timeout},
	}
}

// RunBatch calls the endpoint once. Any transport failure, non-2xx status or
// undecodable body is an error; the driver decides whether to retry.
func (r *HTTPRunner) RunBatch(ctx context.Context, offset, limit int) (*BatchResult, error) {
	query := url.Values{}
	query.Set("offset", strconv.Itoa(offset))
	query.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+r.secret)
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
			return nil, fmt.Errorf("reindex endpoint returned %d: %s", resp.StatusCode, errResp.Error)
		}
		return nil, fmt.Errorf("reindex endpoint returned %d", resp.StatusCode)
	}

	var result BatchResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if result.Processed != len(result.Details) {
		return nil, fmt.Errorf("malformed response: processed %d but %d details", result.Processed, len(result.Details))
	}
	return &result, nil
}
