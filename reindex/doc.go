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


// Package reindex recomputes chunk embeddings in resumable batches.
//
// One batch is a stateless unit of work: Processor.ProcessBatch fetches the
// page [offset, offset+limit) ordered by chunk ID, embeds each chunk's content
// one at a time, writes each vector back through an Updater, and reports one
// ItemResult per chunk. A failed chunk never aborts the batch; only a failed
// page fetch does. NextOffset is always offset+limit, so a caller resumes by
// feeding it back.
//
// The Driver owns the loop across batches. It talks to a BatchRunner, either
// the in-process Processor or an HTTPRunner calling a deployed service,
// retries a failing batch at the same offset with exponential backoff, pauses
// between batches, and stops once a batch comes back short. With a
// storage.CheckpointRepository it persists the cursor after every batch.
//
// # Usage
//
//	processor, err := reindex.NewProcessor(store, store, embedder)
//	if err != nil {
//	    return err
//	}
//	driver := reindex.NewDriver(processor, reindex.DefaultDriverConfig(),
//	    reindex.WithCheckpoints(store),
//	    reindex.WithProgress(os.Stdout))
//	summary, err := driver.Run(ctx)
//
// Every full pass re-embeds every chunk, including ones that already have an
// embedding.
package reindex
