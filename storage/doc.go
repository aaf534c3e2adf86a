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


// Package storage provides the storage abstraction layer for lahza.
//
// This package defines repository interfaces that decouple storage implementation
// from business logic. Two backends implement them:
//
//   - storage/postgres: Postgres with the pgvector extension. Similarity search
//     is delegated to the match_chunks SQL function.
//   - storage/badger: embedded BadgerDB for local development and tests, with
//     brute-force cosine ranking.
//
// # Constructor Return Type Pattern
//
// Public constructors return the storage.Store interface:
//
//	store, err := postgres.NewStore(ctx, databaseURL)  // returns storage.Store
//
// Internal package constructors may return concrete types since they're only
// used within the implementation package.
//
// # Architecture
//
//   - ChunkRepository: paging, embedding updates and inserts of transcript chunks
//   - EpisodeRepository: episode upsert keyed by video ID
//   - VectorSearcher: similarity search joined with episode metadata
//   - CheckpointRepository: resume cursors for the reindex driver
//   - Store: all of the above plus Close
//
// # Serialization
//
// The embedded backend stores values encoded with mus-go. See serialization.go.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation
// and timeout support.
package storage
