package ingestion

import (
	"strings"
	"unicode/utf8"
)

// ChunkCharLimit is the character count at which a chunk is closed.
const ChunkCharLimit = 800

// Span is a run of consecutive segments merged into one chunk of text.
type Span struct {
	Text  string
	Start float64 // start of the first segment
	End   float64 // end of the last segment
}

// ChunkSegments merges segments into spans. Segment texts are joined with a
// single space; a span is closed once it reaches limit characters (counted in
// runes) or the segments run out. Spans with no text are dropped.
func ChunkSegments(segments []Segment, limit int) []Span {
	if limit < 1 {
		limit = ChunkCharLimit
	}

	var spans []Span
	var buf strings.Builder
	var start float64

	for i, seg := range segments {
		if buf.Len() == 0 {
			start = seg.Start
		}
		buf.WriteString(" ")
		buf.WriteString(seg.Text)

		if utf8.RuneCountInString(buf.String()) >= limit || i == len(segments)-1 {
			if text := strings.TrimSpace(buf.String()); text != "" {
				spans = append(spans, Span{Text: text, Start: start, End: seg.End})
			}
			buf.Reset()
		}
	}
	return spans
}
