/*
 * Copyright 2025 Google LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *    https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */
package genai

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Provider names accepted by NewCompleter.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
)

// CompletionRequest is one prompt sent to a model.
type CompletionRequest struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int64
}

// Completer sends a single prompt to a model and returns its text output.
type Completer interface {
	// Complete returns the model's raw text output.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// Provider returns the provider name, used for logging and metrics.
	Provider() string

	// Close cleans up any resources used by the client.
	Close() error
}

// KeyValidator is implemented by completers that can check their credentials up front.
type KeyValidator interface {
	IsAPIKeyValid(ctx context.Context) error
}

// ProviderConfig holds configuration for one model client.
type ProviderConfig struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration
}

// NewCompleter creates a client for the configured provider.
func NewCompleter(ctx context.Context, cfg ProviderConfig) (Completer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("cannot create %s client: API key is missing", cfg.Provider)
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case ProviderAnthropic:
		return newAnthropicCompleter(cfg), nil
	case ProviderOpenAI:
		return newOpenAICompleter(cfg), nil
	case ProviderGemini:
		c, err := newGeminiCompleter(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unsupported model provider: %q (only %s, %s, %s are supported)",
			cfg.Provider, ProviderAnthropic, ProviderOpenAI, ProviderGemini)
	}
}
