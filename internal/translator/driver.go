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
package translator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/GoogleCloudPlatform/sql-doc-translator/internal/genai"
	"github.com/GoogleCloudPlatform/sql-doc-translator/internal/observability"
)

// ProgressSink receives the completion percentage of a run.
type ProgressSink interface {
	Publish(ctx context.Context, runID string, percent int) error
}

// ProgressQuerier reads back a published percentage. ok is false for unknown runs.
type ProgressQuerier interface {
	Query(ctx context.Context, runID string) (percent int, ok bool, err error)
}

// DefaultTemperatures are the generation temperatures used when none are configured.
var DefaultTemperatures = []float64{0.1}

// DriverConfig configures a Driver.
type DriverConfig struct {
	// Temperatures are applied to every fragment, in order.
	Temperatures []float64
	// Workers is the number of fragments processed at once. Values above 1 precompute
	// line spans and fan fragments out; 1 processes fragments strictly in order.
	Workers int
}

// Driver runs the translate-then-evaluate pipeline over a submission.
type Driver struct {
	gateway genai.Gateway
	sink    ProgressSink
	cfg     DriverConfig
}

// NewDriver creates a driver. sink may be nil.
func NewDriver(gw genai.Gateway, sink ProgressSink, cfg DriverConfig) *Driver {
	if cfg.Temperatures == nil {
		cfg.Temperatures = DefaultTemperatures
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Driver{
		gateway: gw,
		sink:    sink,
		cfg:     cfg,
	}
}

// NewFragments pairs SQL texts with instructions by position. Both are right-trimmed.
func NewFragments(sqls, instructions []string) ([]Fragment, error) {
	if len(sqls) != len(instructions) {
		return nil, &ErrPrecondition{
			Msg: fmt.Sprintf("SQL and instruction inputs must have the same number of rows (got %d and %d)", len(sqls), len(instructions)),
		}
	}
	fragments := make([]Fragment, len(sqls))
	for i := range sqls {
		fragments[i] = Fragment{
			Index:       i + 1,
			SQL:         strings.TrimRightFunc(sqls[i], unicode.IsSpace),
			Instruction: strings.TrimRightFunc(instructions[i], unicode.IsSpace),
		}
	}
	return fragments, nil
}

// Run translates and evaluates every fragment and returns the two output tables.
// Only invalid input is reported as an error before any work starts; model failures
// are recorded in the output. If ctx is cancelled the records produced so far are
// returned with an *ErrCancelled.
func (d *Driver) Run(ctx context.Context, runID string, sqls, instructions []string) (*Result, error) {
	fragments, err := NewFragments(sqls, instructions)
	if err != nil {
		return nil, err
	}
	if len(d.cfg.Temperatures) == 0 {
		return nil, &ErrPrecondition{Msg: "at least one generation temperature is required"}
	}

	startTime := time.Now()
	zap.S().Infof("Run[%s] Processing %d fragment(s) at %d temperature(s) with %d worker(s)...",
		runID, len(fragments), len(d.cfg.Temperatures), d.cfg.Workers)

	var res *Result
	if d.cfg.Workers > 1 {
		res, err = d.runParallel(ctx, runID, fragments)
	} else {
		res, err = d.runSequential(ctx, runID, fragments)
	}
	if err != nil {
		zap.S().Warnf("Run[%s] Stopped after %s: %v", runID, time.Since(startTime), err)
		return res, err
	}

	d.publish(ctx, runID, 100)
	zap.S().Infof("Run[%s] Completed in %s. Produced %d translation and %d evaluation rows.",
		runID, time.Since(startTime), len(res.Translations), len(res.Evaluations))
	return res, nil
}

func (d *Driver) runSequential(ctx context.Context, runID string, fragments []Fragment) (*Result, error) {
	res := &Result{}
	tracker := NewLineTracker()
	for i, f := range fragments {
		if err := ctx.Err(); err != nil {
			return res, &ErrCancelled{Msg: fmt.Sprintf("run %s cancelled before fragment %d", runID, f.Index), Err: err}
		}
		span := tracker.Advance(f.SQL)
		translations, evaluations := d.processFragment(ctx, f, span)
		res.Translations = append(res.Translations, translations...)
		res.Evaluations = append(res.Evaluations, evaluations...)

		d.publish(ctx, runID, percentDone(i+1, len(fragments)))
	}
	return res, nil
}

func (d *Driver) runParallel(ctx context.Context, runID string, fragments []Fragment) (*Result, error) {
	sqls := make([]string, len(fragments))
	for i, f := range fragments {
		sqls[i] = f.SQL
	}
	spans := Spans(sqls)

	translations := make([][]TranslationRecord, len(fragments))
	evaluations := make([][]EvaluationRecord, len(fragments))

	var (
		g    errgroup.Group
		mu   sync.Mutex
		done int
	)
	g.SetLimit(d.cfg.Workers)

	for i, f := range fragments {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			translations[i], evaluations[i] = d.processFragment(ctx, f, spans[i])

			mu.Lock()
			defer mu.Unlock()
			done++
			d.publish(ctx, runID, percentDone(done, len(fragments)))
			return nil
		})
	}
	waitErr := g.Wait()

	res := &Result{}
	for i := range fragments {
		res.Translations = append(res.Translations, translations[i]...)
		res.Evaluations = append(res.Evaluations, evaluations[i]...)
	}
	if err := ctx.Err(); err != nil {
		return res, &ErrCancelled{Msg: fmt.Sprintf("run %s cancelled", runID), Err: err}
	}
	if waitErr != nil {
		return res, &ErrCancelled{Msg: fmt.Sprintf("run %s cancelled", runID), Err: waitErr}
	}
	return res, nil
}

// processFragment runs generation and evaluation for every temperature of one fragment.
func (d *Driver) processFragment(ctx context.Context, f Fragment, span LineSpan) ([]TranslationRecord, []EvaluationRecord) {
	fragLogPrefix := fmt.Sprintf("Fragment[%d]", f.Index)
	translations := make([]TranslationRecord, 0, 3*len(d.cfg.Temperatures))
	evaluations := make([]EvaluationRecord, 0, 3*len(d.cfg.Temperatures))

	for _, temp := range d.cfg.Temperatures {
		system, user := BuildGenerationPrompt(f.Instruction, f.SQL, span)
		text := d.gateway.Generate(ctx, system, user, temp)

		var sections TranslationSections
		if genai.IsTranslationError(text) {
			zap.S().Warnf("%s Translation failed at temperature %g %s", fragLogPrefix, temp, span)
			sections = TranslationSections{Objective: text, BusinessRules: text, ExecutionSteps: text}
		} else {
			sections = ParseTranslation(text)
		}

		rows := make([]TranslationRecord, 0, 3)
		for _, t := range Sections() {
			content := sections.Get(t)
			if content == "" {
				observability.ParseMiss(string(t))
			}
			rows = append(rows, TranslationRecord{
				SQLIndex:    f.Index,
				Temperature: temp,
				Prompt:      f.Instruction,
				Type:        t,
				Content:     content,
			})
		}

		judgement := d.gateway.Evaluate(ctx, BuildEvaluationPrompt(text))
		var fields EvaluationFields
		if genai.IsEvaluationError(judgement) {
			zap.S().Warnf("%s Evaluation failed at temperature %g", fragLogPrefix, temp)
		} else {
			fields = ParseEvaluation(judgement)
		}
		for _, c := range Criteria() {
			if fields.Get(c).Verdict == nil {
				observability.ParseMiss(string(c))
			}
		}

		for _, row := range rows {
			evaluations = append(evaluations, EvaluationRecord{TranslationRecord: row, EvaluationFields: fields})
		}
		translations = append(translations, rows...)
	}

	observability.FragmentProcessed()
	zap.S().Debugf("%s Processed %s", fragLogPrefix, span)
	return translations, evaluations
}

func (d *Driver) publish(ctx context.Context, runID string, percent int) {
	if d.sink == nil {
		return
	}
	if err := d.sink.Publish(ctx, runID, percent); err != nil {
		zap.S().Warnf("Run[%s] Failed to publish progress %d%%: %v", runID, percent, err)
	}
}

// percentDone is done/total as a whole percentage, rounded down.
func percentDone(done, total int) int {
	if total == 0 {
		return 100
	}
	return done * 100 / total
}
