package mock

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/poiesic/lahza/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEmbedder_Defaults(t *testing.T) {
	m := NewMockEmbedder()
	ctx := context.Background()

	a, err := m.EmbedText(ctx, "hello")
	require.NoError(t, err)
	b, err := m.EmbedText(ctx, "hello")
	require.NoError(t, err)

	assert.Len(t, a, core.EmbeddingDimensions)
	assert.Equal(t, a, b)

	var sum float64
	for _, v := range a {
		sum += float64(v * v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-4)

	assert.Equal(t, 2, m.CallCount())
	assert.Equal(t, []string{"hello", "hello"}, m.Texts())
}

func TestMockEmbedder_CustomFunc(t *testing.T) {
	m := NewMockEmbedder()
	boom := errors.New("boom")
	m.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, boom
	}

	_, err := m.EmbedTexts(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, boom)

	m.Reset()
	assert.Equal(t, 0, m.CallCount())
	_, err = m.EmbedText(context.Background(), "a")
	assert.NoError(t, err)
}

func TestMockEmbedder_Concurrent(t *testing.T) {
	m := NewMockEmbedder()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.EmbedText(context.Background(), "x")
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, m.CallCount())
}

func TestMockProvider(t *testing.T) {
	p := NewMockProvider()
	defer p.Close()

	assert.Equal(t, "mock-embedding", p.Model())
	_, err := p.Embedder().EmbedText(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, 1, p.(*MockProvider).GetMockEmbedder().CallCount())
}

func TestMockCleaner(t *testing.T) {
	c := NewMockCleaner()

	cleaned, err := c.CleanTranscript(context.Background(), "  so   so\tthe idea ")
	require.NoError(t, err)
	assert.Equal(t, "so so the idea", cleaned)

	c.CleanTranscriptFunc = func(ctx context.Context, text string) (string, error) {
		return strings.ToUpper(text), nil
	}
	cleaned, err = c.CleanTranscript(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "X", cleaned)
	assert.Equal(t, 2, c.CallCount())
}
