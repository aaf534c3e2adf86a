// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"fmt"
	"slices"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/lahza/core"
)

// Values are encoded field by field in declaration order. The same field
// list drives both sizing and writing so the two can never disagree.

type fieldWriter interface {
	uint64(v uint64)
	int64(v int64)
	float32(v float32)
	float64(v float64)
	string(v string)
}

type sizer struct{ n int }

func (s *sizer) uint64(v uint64)   { s.n += varint.Uint64.Size(v) }
func (s *sizer) int64(v int64)     { s.n += varint.Int64.Size(v) }
func (s *sizer) float32(v float32) { s.n += varint.Float32.Size(v) }
func (s *sizer) float64(v float64) { s.n += varint.Float64.Size(v) }
func (s *sizer) string(v string)   { s.n += ord.String.Size(v) }

type writer struct {
	bs []byte
	n  int
}

func (w *writer) uint64(v uint64)   { w.n += varint.Uint64.Marshal(v, w.bs[w.n:]) }
func (w *writer) int64(v int64)     { w.n += varint.Int64.Marshal(v, w.bs[w.n:]) }
func (w *writer) float32(v float32) { w.n += varint.Float32.Marshal(v, w.bs[w.n:]) }
func (w *writer) float64(v float64) { w.n += varint.Float64.Marshal(v, w.bs[w.n:]) }
func (w *writer) string(v string)   { w.n += ord.String.Marshal(v, w.bs[w.n:]) }

// reader decodes fields in order, remembering the first error.
type reader struct {
	bs  []byte
	n   int
	err error
}

func (r *reader) fail(err error) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
}

func (r *reader) uint64() uint64 {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Uint64.Unmarshal(r.bs[r.n:])
	r.n += n
	if err != nil {
		r.fail(err)
	}
	return v
}

func (r *reader) int64() int64 {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Int64.Unmarshal(r.bs[r.n:])
	r.n += n
	if err != nil {
		r.fail(err)
	}
	return v
}

func (r *reader) float32() float32 {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Float32.Unmarshal(r.bs[r.n:])
	r.n += n
	if err != nil {
		r.fail(err)
	}
	return v
}

func (r *reader) float64() float64 {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Float64.Unmarshal(r.bs[r.n:])
	r.n += n
	if err != nil {
		r.fail(err)
	}
	return v
}

func (r *reader) string() string {
	if r.err != nil {
		return ""
	}
	v, n, err := ord.String.Unmarshal(r.bs[r.n:])
	r.n += n
	if err != nil {
		r.fail(err)
	}
	return v
}

// length reads a collection length, rejecting values that cannot fit in the
// remaining bytes (every element takes at least one byte).
func (r *reader) length() int {
	l := r.uint64()
	if r.err != nil {
		return 0
	}
	if l > uint64(len(r.bs)-r.n) {
		r.fail(ErrTruncatedData)
		return 0
	}
	return int(l)
}

func encode(fn func(w fieldWriter)) []byte {
	s := &sizer{}
	fn(s)
	w := &writer{bs: make([]byte, s.n)}
	fn(w)
	return w.bs
}

func writeTime(w fieldWriter, t time.Time) {
	if t.IsZero() {
		w.uint64(0)
		return
	}
	w.uint64(1)
	w.int64(t.UnixMicro())
}

func readTime(r *reader) time.Time {
	if r.uint64() == 0 {
		return time.Time{}
	}
	return time.UnixMicro(r.int64()).UTC()
}

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	return encode(func(w fieldWriter) { w.uint64(uint64(id)) })
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	r := &reader{bs: data}
	id := core.ID(r.uint64())
	return id, r.err
}

func writeVector(w fieldWriter, v []float32) {
	w.uint64(uint64(len(v)))
	for _, x := range v {
		w.float32(x)
	}
}

// readVector returns nil for an empty vector.
func readVector(r *reader) []float32 {
	n := r.length()
	if n == 0 {
		return nil
	}
	v := make([]float32, n)
	for i := range v {
		v[i] = r.float32()
	}
	return v
}

// MarshalVector serializes an embedding vector to bytes.
func MarshalVector(vector []float32) []byte {
	return encode(func(w fieldWriter) { writeVector(w, vector) })
}

// UnmarshalVector deserializes an embedding vector from bytes.
func UnmarshalVector(data []byte) ([]float32, error) {
	r := &reader{bs: data}
	v := readVector(r)
	if r.err != nil {
		return nil, r.err
	}
	return v, nil
}

func writeChunk(w fieldWriter, c *core.Chunk) {
	w.uint64(uint64(c.Id))
	w.uint64(uint64(c.EpisodeID))
	w.string(c.Content)
	w.float64(c.StartTime)
	w.float64(c.EndTime)
	writeVector(w, c.Embedding)
}

// MarshalChunk serializes a Chunk to bytes.
func MarshalChunk(chunk *core.Chunk) []byte {
	return encode(func(w fieldWriter) { writeChunk(w, chunk) })
}

// UnmarshalChunk deserializes a Chunk from bytes.
func UnmarshalChunk(data []byte) (*core.Chunk, error) {
	r := &reader{bs: data}
	chunk := &core.Chunk{
		Id:        core.ID(r.uint64()),
		EpisodeID: core.ID(r.uint64()),
		Content:   r.string(),
		StartTime: r.float64(),
		EndTime:   r.float64(),
	}
	chunk.Embedding = readVector(r)
	if r.err != nil {
		return nil, r.err
	}
	return chunk, nil
}

func writeEpisode(w fieldWriter, e *core.Episode) {
	w.uint64(uint64(e.Id))
	w.string(e.VideoID)
	w.string(e.Title)
	w.string(e.URL)
	w.string(e.ThumbnailURL)
	writeTime(w, e.PublishedAt)

	keys := make([]string, 0, len(e.Metadata))
	for k := range e.Metadata {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	w.uint64(uint64(len(keys)))
	for _, k := range keys {
		w.string(k)
		w.string(e.Metadata[k])
	}
}

// MarshalEpisode serializes an Episode to bytes.
// Metadata keys are written in sorted order so equal episodes encode identically.
func MarshalEpisode(episode *core.Episode) []byte {
	return encode(func(w fieldWriter) { writeEpisode(w, episode) })
}

// UnmarshalEpisode deserializes an Episode from bytes.
func UnmarshalEpisode(data []byte) (*core.Episode, error) {
	r := &reader{bs: data}
	episode := &core.Episode{
		Id:           core.ID(r.uint64()),
		VideoID:      r.string(),
		Title:        r.string(),
		URL:          r.string(),
		ThumbnailURL: r.string(),
		PublishedAt:  readTime(r),
	}
	if n := r.length(); n > 0 {
		episode.Metadata = make(map[string]string, n)
		for i := 0; i < n; i++ {
			k := r.string()
			episode.Metadata[k] = r.string()
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	return episode, nil
}

// MarshalCheckpoint serializes a Checkpoint to bytes.
func MarshalCheckpoint(checkpoint *core.Checkpoint) []byte {
	return encode(func(w fieldWriter) {
		w.string(checkpoint.Name)
		w.int64(int64(checkpoint.Offset))
		writeTime(w, checkpoint.UpdatedAt)
	})
}

// UnmarshalCheckpoint deserializes a Checkpoint from bytes.
func UnmarshalCheckpoint(data []byte) (*core.Checkpoint, error) {
	r := &reader{bs: data}
	checkpoint := &core.Checkpoint{
		Name:      r.string(),
		Offset:    int(r.int64()),
		UpdatedAt: readTime(r),
	}
	if r.err != nil {
		return nil, r.err
	}
	return checkpoint, nil
}
