package ingestion

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkSegments(t *testing.T) {
	segments := []Segment{
		{Start: 0, End: 4, Text: "aaaa"},
		{Start: 4, End: 8, Text: "bbbb"},
		{Start: 8, End: 12, Text: "cccc"},
		{Start: 12, End: 15, Text: "dd"},
	}

	// " aaaa bbbb" is 10 characters
	spans := ChunkSegments(segments, 10)
	assert.Equal(t, []Span{
		{Text: "aaaa bbbb", Start: 0, End: 8},
		{Text: "cccc dd", Start: 8, End: 15},
	}, spans)
}

func TestChunkSegments_CountsRunes(t *testing.T) {
	// Five two-byte runes per segment plus the joining space
	segments := []Segment{
		{Start: 0, End: 1, Text: "وش صار"},
		{Start: 1, End: 2, Text: "كلام"},
	}

	spans := ChunkSegments(segments, 8)
	assert.Len(t, spans, 1)
	assert.Equal(t, "وش صار كلام", spans[0].Text)
	assert.Equal(t, 2.0, spans[0].End)
}

func TestChunkSegments_LongSegmentStandsAlone(t *testing.T) {
	long := strings.Repeat("x", 900)
	segments := []Segment{
		{Start: 0, End: 60, Text: long},
		{Start: 60, End: 61, Text: "tail"},
	}

	spans := ChunkSegments(segments, ChunkCharLimit)
	assert.Len(t, spans, 2)
	assert.Equal(t, long, spans[0].Text)
	assert.Equal(t, Span{Text: "tail", Start: 60, End: 61}, spans[1])
}

func TestChunkSegments_Empty(t *testing.T) {
	assert.Empty(t, ChunkSegments(nil, ChunkCharLimit))
	assert.Empty(t, ChunkSegments([]Segment{{Start: 0, End: 1, Text: "  "}}, ChunkCharLimit))
}
