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


// Package gemini implements ai.Embedder against Google's Gemini embedContent API.
//
// Every request names its output dimensionality explicitly; the provider's
// default (3072 for gemini-embedding-001) is never relied on. The response is
// decoded into a typed value and resolved straight into a vector or an error
// wrapping ai.ErrEmbeddingFailed.
//
// # Usage
//
//	config := ai.NewConfig(ai.WithAPIKey(os.Getenv("GEMINI_API_KEY")))
//	provider, err := gemini.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	vector, err := provider.Embedder().EmbedText(ctx, "sample text")
package gemini
