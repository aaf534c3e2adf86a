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


package openai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/lahza/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Cleaner implements ai.TranscriptCleaner using an OpenAI-compatible chat API.
type Cleaner struct {
	client  llms.Model
	timeout time.Duration
	logger  *slog.Logger
}

// newCleaner is an internal constructor that returns the concrete type.
func newCleaner(config *ai.Config) (*Cleaner, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.CleanerModel == "" {
		return nil, fmt.Errorf("%w: CleanerModel is required", ai.ErrInvalidConfig)
	}

	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	token := config.APIKey
	if token == "" {
		token = "none"
	}

	client, err := openai.New(
		openai.WithBaseURL(config.CleanerHost),
		openai.WithToken(token),
		openai.WithModel(config.CleanerModel),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrInvalidConfig, err)
	}

	return &Cleaner{
		client:  client,
		timeout: config.Timeout,
		logger:  slog.Default().With("component", "openai-cleaner"),
	}, nil
}

// NewCleaner creates a transcript cleaner for config.CleanerModel on
// config.CleanerHost. The API key is shared with the embedder.
//
// Returns ai.TranscriptCleaner interface to enforce abstraction.
func NewCleaner(config *ai.Config) (ai.TranscriptCleaner, error) {
	c, err := newCleaner(config)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// CleanTranscript asks the chat model for an edited version of text.
func (c *Cleaner) CleanTranscript(ctx context.Context, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, cleanerSystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, text),
	}

	response, err := c.client.GenerateContent(ctx, content, llms.WithTemperature(0.0))
	if err != nil {
		c.logger.Warn("failed to clean transcript", "length", len(text), "preview", ai.Preview(text, 50), "err", err)
		return "", fmt.Errorf("%w: %w", ai.ErrCleaningFailed, err)
	}
	if len(response.Choices) < 1 {
		return "", fmt.Errorf("%w: no choices returned from model", ai.ErrCleaningFailed)
	}

	cleaned := unwrapResponse(response.Choices[0].Content)
	if cleaned == "" {
		return "", fmt.Errorf("%w: empty response", ai.ErrCleaningFailed)
	}

	c.logger.Debug("transcript cleaned", "before", len(text), "after", len(cleaned))
	return cleaned, nil
}

// unwrapResponse strips code fences and surrounding quotes some models add.
func unwrapResponse(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}
