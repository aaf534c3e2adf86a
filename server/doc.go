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


// Package server exposes search and batch reindexing over HTTP.
//
// Routes:
//
//	POST /api/search   {query, filter_episode?} -> {results}
//	GET  /api/reindex  ?offset=&limit=          -> reindex.BatchResult
//	GET  /health                                -> {status}
//
// The reindex route requires the configured cron secret, either as a bearer
// token or as the secret query parameter.
package server
