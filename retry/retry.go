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


// Package retry runs operations a bounded number of times with a growing
// pause between attempts.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
var ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

// Backoff returns the pause after the given failed attempt (1-based).
type Backoff func(attempt int, base time.Duration) time.Duration

// Exponential doubles the pause after every failure: base, 2*base, 4*base...
func Exponential(attempt int, base time.Duration) time.Duration {
	return base << (attempt - 1)
}

// Linear grows the pause by base after every failure: base, 2*base, 3*base...
func Linear(attempt int, base time.Duration) time.Duration {
	return base * time.Duration(attempt)
}

// Do calls operation until it succeeds, maxAttempts is reached or ctx is done.
// Returns the error from the last attempt if all attempts fail.
func Do(ctx context.Context, operation func() error, maxAttempts int, baseDelay time.Duration, backoff Backoff) error {
	if maxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = operation()
		if lastErr == nil {
			if attempt > 1 {
				slog.Debug("operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}

		slog.Debug("operation failed, will retry", "attempt", attempt, "maxAttempts", maxAttempts, "err", lastErr)

		// Don't sleep after the last attempt
		if attempt == maxAttempts {
			break
		}

		if !Sleep(ctx, backoff(attempt, baseDelay)) {
			return ctx.Err()
		}
	}

	return lastErr
}

// WithBackoff retries an operation with exponential backoff.
// baseDelay doubles on each retry.
func WithBackoff(ctx context.Context, operation func() error, maxAttempts int, baseDelay time.Duration) error {
	return Do(ctx, operation, maxAttempts, baseDelay, Exponential)
}

// Sleep waits for d or until ctx is done, whichever comes first.
// It reports whether the full duration elapsed.
func Sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
