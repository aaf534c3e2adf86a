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


// Package postgres implements storage.Store on Postgres with pgvector.
//
// Connections come from a pgxpool; every pooled connection registers the
// pgvector types so embeddings travel as pgvector.Vector values. Similarity
// search is delegated to the match_chunks SQL function shipped in schema.sql,
// which Migrate applies.
//
// # Usage
//
//	if err := postgres.Migrate(ctx, databaseURL); err != nil {
//	    log.Fatal(err)
//	}
//	store, err := postgres.NewStore(ctx, databaseURL)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
// # Tests
//
// Tests in this package need a Postgres with the vector extension available
// and run only when LAHZA_TEST_DATABASE_URL is set.
package postgres
