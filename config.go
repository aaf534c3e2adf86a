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


package lahza

import (
	"errors"
	"fmt"
	"time"

	"github.com/poiesic/lahza/ai"
	"github.com/poiesic/lahza/server"
)

// ErrMissingConfig indicates a required setting was not provided.
var ErrMissingConfig = errors.New("missing configuration")

// Config aggregates everything needed to assemble an App.
type Config struct {
	// AI configures the embedding provider.
	AI *ai.Config

	// DatabaseURL selects the Postgres store. Takes precedence over BadgerPath.
	DatabaseURL string

	// BadgerPath selects the embedded store.
	BadgerPath string

	// RedisURL enables the query embedding cache when set.
	RedisURL string

	// CronSecret guards the reindex route.
	CronSecret string

	// MaxBatchLimit caps the reindex route's limit. Default: server.MaxBatchLimit
	MaxBatchLimit int

	// ItemDelay pauses after every successful item in a reindex batch.
	ItemDelay time.Duration
}

// DefaultConfig returns a Config with default AI settings and no store.
func DefaultConfig() *Config {
	return &Config{
		AI:            ai.DefaultConfig(),
		MaxBatchLimit: server.MaxBatchLimit,
	}
}

// Validate checks that a store and a usable embedding provider are configured.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" && c.BadgerPath == "" {
		return fmt.Errorf("%w: database url or badger path required", ErrMissingConfig)
	}
	if c.AI == nil {
		return fmt.Errorf("%w: ai config required", ErrMissingConfig)
	}
	if err := c.AI.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrMissingConfig, err)
	}
	if c.MaxBatchLimit < 0 {
		return fmt.Errorf("max batch limit must not be negative, got %d", c.MaxBatchLimit)
	}
	return nil
}
