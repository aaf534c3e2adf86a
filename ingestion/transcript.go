package ingestion

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/poiesic/lahza/core"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed transcript.schema.json
var transcriptSchemaJSON string

var loadTranscriptSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(transcriptSchemaJSON))
})

// Segment is one timed utterance from a speech-to-text transcript.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript is an episode's metadata and its timed segments.
type Transcript struct {
	VideoID      string            `json:"video_id"`
	Title        string            `json:"title"`
	URL          string            `json:"url,omitempty"`
	ThumbnailURL string            `json:"thumbnail_url,omitempty"`
	PublishedAt  time.Time         `json:"published_at,omitzero"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	Segments     []Segment         `json:"segments"`
}

// ParseTranscript validates data against the transcript schema and decodes it.
func ParseTranscript(data []byte) (*Transcript, error) {
	schema, err := loadTranscriptSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to load transcript schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTranscript, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidTranscript, strings.Join(msgs, "; "))
	}

	var t Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTranscript, err)
	}
	for i, s := range t.Segments {
		if s.Start > s.End {
			return nil, fmt.Errorf("%w: segment %d: %w", ErrInvalidTranscript, i, core.ErrInvalidTimeRange)
		}
	}
	return &t, nil
}

// LoadTranscript reads and parses a transcript file.
func LoadTranscript(path string) (*Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseTranscript(data)
}

// Episode returns the episode described by the transcript.
// A missing URL defaults to the YouTube watch page for VideoID.
func (t *Transcript) Episode() *core.Episode {
	url := t.URL
	if url == "" {
		url = "https://www.youtube.com/watch?v=" + t.VideoID
	}
	return &core.Episode{
		VideoID:      t.VideoID,
		Title:        t.Title,
		URL:          url,
		ThumbnailURL: t.ThumbnailURL,
		PublishedAt:  t.PublishedAt,
		Metadata:     t.Metadata,
	}
}
