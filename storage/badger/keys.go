package badger

import (
	"encoding/binary"

	"github.com/poiesic/lahza/core"
)

// Key prefixes for different data types.
// Sequence keys live under their own prefix so they never show up in entity scans.
const (
	chunkPrefix        = "chunk:"
	episodePrefix      = "episode:"
	episodeVideoPrefix = "episodevid:"
	checkpointPrefix   = "chkpt:"
	chunkIDSeq         = "seq:chunk"
	episodeIDSeq       = "seq:episode"
)

// makeIDKey generates a key of the form prefix + 8-byte big-endian ID.
// BigEndian keeps lexicographic key order equal to numeric ID order.
func makeIDKey(prefix string, id core.ID) []byte {
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// idFromKey extracts the ID from a key built by makeIDKey.
func idFromKey(prefix string, key []byte) core.ID {
	return core.ID(binary.BigEndian.Uint64(key[len(prefix):]))
}

func makeChunkKey(id core.ID) []byte {
	return makeIDKey(chunkPrefix, id)
}

func makeEpisodeKey(id core.ID) []byte {
	return makeIDKey(episodePrefix, id)
}

// makeEpisodeVideoKey generates the unique index key for an episode's video ID.
func makeEpisodeVideoKey(videoID string) []byte {
	return []byte(episodeVideoPrefix + videoID)
}

// makeCheckpointKey generates a key for job checkpoints.
func makeCheckpointKey(name string) []byte {
	return []byte(checkpointPrefix + name)
}
