package mock

import (
	"context"
	"strings"
	"sync"
)

// MockCleaner is a test double for ai.TranscriptCleaner.
// It allows custom behavior injection via function fields.
type MockCleaner struct {
	// CleanTranscriptFunc is called by CleanTranscript if set.
	// If nil, runs of whitespace collapse to one space.
	CleanTranscriptFunc func(ctx context.Context, text string) (string, error)

	mu        sync.Mutex
	callCount int
}

// NewMockCleaner creates a mock cleaner with default behavior.
func NewMockCleaner() *MockCleaner {
	return &MockCleaner{}
}

// CleanTranscript returns the cleaned text.
func (m *MockCleaner) CleanTranscript(ctx context.Context, text string) (string, error) {
	m.mu.Lock()
	m.callCount++
	fn := m.CleanTranscriptFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, text)
	}
	return strings.Join(strings.Fields(text), " "), nil
}

// CallCount returns the number of times CleanTranscript was called.
func (m *MockCleaner) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}
