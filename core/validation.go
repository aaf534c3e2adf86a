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

import (
	"fmt"
)

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - Content must not be empty
//   - StartTime must not be after EndTime
//   - Embedding, when present, must be EmbeddingDimensions long
//
// NOT validated:
//   - ID (0 is valid before the store assigns one)
//   - EpisodeID (checked by the store's foreign key)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}

	if chunk.StartTime > chunk.EndTime {
		return fmt.Errorf("%w: %w (%.2f > %.2f)", ErrInvalidChunk, ErrInvalidTimeRange, chunk.StartTime, chunk.EndTime)
	}

	if chunk.HasEmbedding() {
		if err := ValidateVector(chunk.Embedding); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidChunk, err)
		}
	}

	return nil
}

// ValidateEpisode validates an Episode according to domain rules.
//
// Validation rules:
//   - Title must not be empty
//   - URL must not be empty
func ValidateEpisode(episode *Episode) error {
	if episode == nil {
		return fmt.Errorf("%w: episode is nil", ErrInvalidEpisode)
	}

	if episode.Title == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEpisode, ErrEmptyTitle)
	}

	if episode.URL == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEpisode, ErrEmptyURL)
	}

	return nil
}

// ValidateVector checks that a vector has exactly EmbeddingDimensions components.
func ValidateVector(vector []float32) error {
	if len(vector) != EmbeddingDimensions {
		return fmt.Errorf("%w: length %d, want %d", ErrInvalidVector, len(vector), EmbeddingDimensions)
	}
	return nil
}
