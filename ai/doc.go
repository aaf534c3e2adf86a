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


// Package ai provides abstractions for the embedding services used by lahza.
//
// The package defines the Embedder and TranscriptCleaner interfaces and the
// provider configuration.
// Business logic (reindexing, search, ingestion) depends only on these
// abstractions, never on a concrete provider.
//
// # Implementation Packages
//
//   - ai/gemini: Google Gemini embedContent API (the production default)
//   - ai/openai: OpenAI-compatible APIs (OpenAI, Ollama, LocalAI, vLLM), and
//     the chat-model transcript cleaner
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Dimensionality
//
// Stored embeddings have a fixed length (core.EmbeddingDimensions). Providers
// always request that length explicitly, and every provider's Embedder is
// wrapped with RequireDimensions so a vector of any other length becomes
// ErrEmbeddingFailed instead of reaching the store. Config.NativeDimensions
// turns both off for diagnostics.
//
// # Constructor Return Type Pattern
//
// Public constructors (gemini.NewProvider, openai.NewEmbedder, etc.) return
// INTERFACE types. Test utility constructors (mock.NewMockEmbedder) return
// CONCRETE types to enable assertions via CallCount and the func fields.
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithAPIKey(os.Getenv("GEMINI_API_KEY")))
//	provider, err := gemini.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vector, err := provider.Embedder().EmbedText(ctx, "Hello world")
//	if errors.Is(err, ai.ErrEmbeddingFailed) {
//	    // item-scoped failure
//	}
package ai
