package ingestion

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/lahza/ai"
	"github.com/poiesic/lahza/core"
	"github.com/poiesic/lahza/retry"
)

// spanEmbedder turns a span into stored text and a vector. Cleaning is
// optional and falls back to the raw text; embedding has a bounded number
// of attempts.
type spanEmbedder struct {
	embedder ai.Embedder
	cleaner  ai.TranscriptCleaner
	attempts int
	delay    time.Duration
	logger   *slog.Logger
}

// clean returns the cleaned text and true, or the raw text and false when no
// cleaner is configured or it failed.
func (se *spanEmbedder) clean(ctx context.Context, span Span) (string, bool) {
	if se.cleaner == nil {
		return span.Text, false
	}
	cleaned, err := se.cleaner.CleanTranscript(ctx, span.Text)
	if err == nil {
		cleaned = strings.TrimSpace(cleaned)
	}
	if err != nil || cleaned == "" {
		se.logger.Warn("cleaning failed, keeping raw text",
			"start", span.Start,
			"length", len(span.Text),
			"preview", ai.Preview(span.Text, 50),
			"err", err)
		return span.Text, false
	}
	return cleaned, true
}

// embed returns nil when every attempt failed. The wait before retry n is
// n times delay.
func (se *spanEmbedder) embed(ctx context.Context, span Span, text string) []float32 {
	var vector []float32
	err := retry.Do(ctx, func() error {
		v, err := se.embedder.EmbedText(ctx, text)
		if err != nil {
			return err
		}
		if err := core.ValidateVector(v); err != nil {
			return err
		}
		vector = v
		return nil
	}, se.attempts, se.delay, retry.Linear)
	if err != nil {
		se.logger.Warn("giving up on chunk embedding",
			"start", span.Start,
			"length", len(text),
			"preview", ai.Preview(text, 50),
			"err", err)
		return nil
	}
	return vector
}
