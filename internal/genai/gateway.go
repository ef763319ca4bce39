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
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GoogleCloudPlatform/sql-doc-translator/internal/observability"
)

// Sentinel prefixes that replace errors in gateway output.
const (
	TranslationErrorPrefix = "[Translation Error]"
	EvaluationErrorPrefix  = "[Evaluation Error]"
)

const evaluatorSystemPrompt = "You are a helpful evaluator."

// Gateway sends prompts to the generation and judge models. Failures are never
// returned as errors: they come back as sentinel text so one bad row cannot abort a run.
type Gateway interface {
	// Generate returns the generation model's output or a TranslationErrorPrefix sentinel.
	Generate(ctx context.Context, systemPrompt, userPrompt string, temperature float64) string

	// Evaluate returns the judge model's output or an EvaluationErrorPrefix sentinel.
	Evaluate(ctx context.Context, prompt string) string
}

// IsTranslationError reports whether text is a generation failure sentinel.
func IsTranslationError(text string) bool {
	return strings.HasPrefix(text, TranslationErrorPrefix)
}

// IsEvaluationError reports whether text is a judge failure sentinel.
func IsEvaluationError(text string) bool {
	return strings.HasPrefix(text, EvaluationErrorPrefix)
}

// GatewayOptions configures a ModelGateway.
type GatewayOptions struct {
	GenerationMaxTokens   int64
	EvaluationMaxTokens   int64
	EvaluationTemperature float64
	// Timeout bounds each model call. Zero means no timeout beyond the caller's context.
	Timeout time.Duration
	// MinInterval is the minimum spacing between consecutive model calls. Zero disables pacing.
	MinInterval time.Duration
}

// DefaultGatewayOptions mirrors the limits the pipeline has always used.
var DefaultGatewayOptions = GatewayOptions{
	GenerationMaxTokens:   4096,
	EvaluationMaxTokens:   512,
	EvaluationTemperature: 0,
	Timeout:               120 * time.Second,
	MinInterval:           500 * time.Millisecond,
}

// ModelGateway implements Gateway over two completers.
type ModelGateway struct {
	generator Completer
	judge     Completer
	opts      GatewayOptions
	limiter   *rate.Limiter
}

var _ Gateway = (*ModelGateway)(nil)

// NewGateway creates a gateway using generator for translations and judge for evaluations.
func NewGateway(generator, judge Completer, opts GatewayOptions) *ModelGateway {
	g := &ModelGateway{
		generator: generator,
		judge:     judge,
		opts:      opts,
	}
	if opts.MinInterval > 0 {
		g.limiter = rate.NewLimiter(rate.Every(opts.MinInterval), 1)
	}
	return g
}

// Generate implements Gateway.
func (g *ModelGateway) Generate(ctx context.Context, systemPrompt, userPrompt string, temperature float64) string {
	text, err := g.call(ctx, "generation", g.generator, CompletionRequest{
		System:      systemPrompt,
		User:        userPrompt,
		Temperature: temperature,
		MaxTokens:   g.opts.GenerationMaxTokens,
	})
	if err != nil {
		zap.S().Warnf("Generation call failed: %v", err)
		return fmt.Sprintf("%s %v", TranslationErrorPrefix, err)
	}
	return text
}

// Evaluate implements Gateway.
func (g *ModelGateway) Evaluate(ctx context.Context, prompt string) string {
	text, err := g.call(ctx, "evaluation", g.judge, CompletionRequest{
		System:      evaluatorSystemPrompt,
		User:        prompt,
		Temperature: g.opts.EvaluationTemperature,
		MaxTokens:   g.opts.EvaluationMaxTokens,
	})
	if err != nil {
		zap.S().Warnf("Evaluation call failed: %v", err)
		return fmt.Sprintf("%s %v", EvaluationErrorPrefix, err)
	}
	return text
}

func (g *ModelGateway) call(ctx context.Context, role string, c Completer, req CompletionRequest) (string, error) {
	if c == nil {
		return "", errors.New(role + " model is not configured")
	}
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("waiting for model call slot: %w", err)
		}
	}
	if g.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := c.Complete(ctx, req)
	observability.ObserveModelCall(role, c.Provider(), err, time.Since(start))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// Close releases both completers.
func (g *ModelGateway) Close() error {
	var errs []error
	if g.generator != nil {
		errs = append(errs, g.generator.Close())
	}
	if g.judge != nil && g.judge != g.generator {
		errs = append(errs, g.judge.Close())
	}
	return errors.Join(errs...)
}
