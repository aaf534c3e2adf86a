package search

import (
	"log/slog"
	"time"

	"github.com/poiesic/lahza/core"
)

// SearchMonitor provides hooks to observe the search process.
type SearchMonitor interface {
	Start(query string)
	AfterEmbedding(dimensions int, cached bool)
	AfterMatch(results []*core.SearchResult)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                    {}
func (n *noopMonitor) AfterEmbedding(_ int, _ bool)      {}
func (n *noopMonitor) AfterMatch(_ []*core.SearchResult) {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)     {}

// LogMonitor logs each stage with its elapsed time.
type LogMonitor struct {
	logger *slog.Logger
	start  time.Time
	stage  time.Time
}

var _ SearchMonitor = (*LogMonitor)(nil)

// NewLogMonitor creates a LogMonitor writing to logger.
func NewLogMonitor(logger *slog.Logger) *LogMonitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMonitor{logger: logger}
}

func (m *LogMonitor) Start(query string) {
	m.start = time.Now()
	m.stage = m.start
	m.logger.Info("search started", "query", query)
}

func (m *LogMonitor) AfterEmbedding(dimensions int, cached bool) {
	m.logger.Info("query embedded", "dimensions", dimensions, "cached", cached, "elapsed", m.lap())
}

func (m *LogMonitor) AfterMatch(results []*core.SearchResult) {
	m.logger.Info("chunks matched", "hits", len(results), "elapsed", m.lap())
}

func (m *LogMonitor) Finish(results []*core.SearchResult) {
	var best float32
	if len(results) > 0 {
		best = results[0].Similarity
	}
	m.logger.Info("search finished", "hits", len(results), "best", best, "total", time.Since(m.start))
}

func (m *LogMonitor) lap() time.Duration {
	now := time.Now()
	d := now.Sub(m.stage)
	m.stage = now
	return d
}
