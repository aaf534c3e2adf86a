package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/poiesic/lahza/ai"
)

// maxErrorBody caps how much of a non-JSON error body ends up in an error message.
const maxErrorBody = 512

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type embedRequest struct {
	Model                string  `json:"model"`
	Content              content `json:"content"`
	OutputDimensionality int     `json:"outputDimensionality,omitempty"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// embedResponse is the embedContent response: either an embedding or an error payload.
type embedResponse struct {
	Embedding *struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
	Error *apiError `json:"error"`
}

// resolve turns the decoded payload into a vector or an ai.ErrEmbeddingFailed error.
func (r *embedResponse) resolve() ([]float32, error) {
	if r.Error != nil {
		return nil, fmt.Errorf("%w: api error %d %s: %s", ai.ErrEmbeddingFailed, r.Error.Code, r.Error.Status, r.Error.Message)
	}
	if r.Embedding == nil || len(r.Embedding.Values) == 0 {
		return nil, fmt.Errorf("%w: no vector in response", ai.ErrEmbeddingFailed)
	}
	return r.Embedding.Values, nil
}

// Embedder implements ai.Embedder against the Gemini embedContent endpoint.
type Embedder struct {
	client   *http.Client
	endpoint string
	apiKey   string
	model    string
	dims     int
	native   bool
	logger   *slog.Logger
}

// newEmbedder is an internal constructor that returns the concrete type.
func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/models/%s:embedContent", config.EmbeddingHost, url.PathEscape(config.EmbeddingModel))
	return &Embedder{
		client:   &http.Client{Timeout: config.Timeout},
		endpoint: endpoint,
		apiKey:   config.APIKey,
		model:    config.EmbeddingModel,
		dims:     config.Dimensions,
		native:   config.NativeDimensions,
		logger:   slog.Default().With("component", "gemini-embedder"),
	}, nil
}

// NewEmbedder creates a new Gemini embedder using the provided configuration.
// Returned vectors are guaranteed to have config.Dimensions components
// unless config.NativeDimensions is set.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	e, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}
	if e.native {
		return e, nil
	}
	return ai.RequireDimensions(e, e.dims), nil
}

// EmbedText generates a vector embedding for a single text string.
// Exactly one request is made; failures are not retried here.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	e.logger.Debug("generating embedding for single text", "length", len(text))

	vec, err := e.embed(ctx, text)
	if err != nil {
		e.logger.Warn("failed to generate embedding",
			"length", len(text),
			"preview", ai.Preview(text, 50),
			"err", err)
		return nil, err
	}
	return vec, nil
}

// EmbedTexts embeds each text in turn. embedContent has no batch form.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.EmbedText(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("text %d: %w", i, err)
		}
		out[i] = vec
	}
	return out, nil
}

func (e *Embedder) embed(ctx context.Context, text string) ([]float32, error) {
	request := embedRequest{
		Model:   "models/" + e.model,
		Content: content{Parts: []part{{Text: text}}},
	}
	if !e.native {
		request.OutputDimensionality = e.dims
	}
	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal request: %w", ai.ErrEmbeddingFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint+"?key="+url.QueryEscape(e.apiKey), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", ai.ErrEmbeddingFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %w", ai.ErrEmbeddingFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %w", ai.ErrEmbeddingFailed, err)
	}

	var decoded embedResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w: status %d: %s", ai.ErrEmbeddingFailed, resp.StatusCode, truncate(raw))
		}
		return nil, fmt.Errorf("%w: failed to decode response: %w", ai.ErrEmbeddingFailed, err)
	}
	if resp.StatusCode != http.StatusOK && decoded.Error == nil {
		return nil, fmt.Errorf("%w: status %d: %s", ai.ErrEmbeddingFailed, resp.StatusCode, truncate(raw))
	}
	return decoded.resolve()
}

func truncate(b []byte) string {
	if len(b) > maxErrorBody {
		return string(b[:maxErrorBody]) + "..."
	}
	return string(b)
}
