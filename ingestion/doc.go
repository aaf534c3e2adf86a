// Package ingestion loads episode transcripts into the chunk store.
//
// A transcript is a JSON document of timed segments plus episode metadata.
// The Pipeline upserts the episode, merges segments into chunks of roughly
// ChunkCharLimit characters, embeds the chunks on a worker pool and inserts
// them in start-time order.
//
// A chunk whose embedding fails is still inserted, without a vector, and
// counted in the Report so a later reindex can fill it in.
package ingestion
