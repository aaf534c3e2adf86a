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


// Package search answers natural-language queries against the chunk store.
//
// A query is embedded with the configured ai.Embedder (optionally through a
// QueryCache), then handed to a storage.VectorSearcher which returns the
// closest chunks above a similarity threshold, joined with their episode.
//
// The package also carries the small text helpers the CLI uses to flag
// hits containing every query term verbatim.
package search
