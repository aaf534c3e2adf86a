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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrInvalidEpisode indicates an Episode failed validation.
	ErrInvalidEpisode = errors.New("invalid episode")

	// ErrEmptyContent indicates the Content field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidTimeRange indicates a chunk whose start time is after its end time.
	ErrInvalidTimeRange = errors.New("start time must not be after end time")

	// ErrInvalidVector indicates an embedding of the wrong length.
	ErrInvalidVector = errors.New("invalid embedding vector")

	// ErrEmptyTitle indicates the episode Title field is empty.
	ErrEmptyTitle = errors.New("episode title cannot be empty")

	// ErrEmptyURL indicates the episode URL field is empty.
	ErrEmptyURL = errors.New("episode url cannot be empty")
)
