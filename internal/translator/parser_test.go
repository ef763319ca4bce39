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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestParseTranslation(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want TranslationSections
	}{
		{
			name: "canonical format",
			raw: "{Objective: Identify loyal shoppers. (lines 1-3)}\n" +
				"{Business Rules: Only members with more than 5 visits. (lines 1-3)}\n" +
				"{Execution Steps: 1. Filter visits.\n2. Rank members. (lines 1-3)}",
			want: TranslationSections{
				Objective:      "Identify loyal shoppers. (lines 1-3)",
				BusinessRules:  "Only members with more than 5 visits. (lines 1-3)",
				ExecutionSteps: "1. Filter visits.\n2. Rank members. (lines 1-3)",
			},
		},
		{
			name: "headers are case insensitive and padded",
			raw:  "Here you go:\n{ objective :  Count stores.  }\n{BUSINESS RULES: None.}\n{execution steps: Run it.}",
			want: TranslationSections{
				Objective:      "Count stores.",
				BusinessRules:  "None.",
				ExecutionSteps: "Run it.",
			},
		},
		{
			name: "missing business rules",
			raw:  "{Objective: Count stores.}\n{Execution Steps: Run it.}",
			want: TranslationSections{
				Objective:      "Count stores.",
				ExecutionSteps: "Run it.",
			},
		},
		{
			name: "no braces at all",
			raw:  "I cannot help with that.",
			want: TranslationSections{},
		},
		{
			name: "error sentinel",
			raw:  "[Translation Error] rate limited",
			want: TranslationSections{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTranslation(tt.raw))
		})
	}
}

func TestParseTranslationRoundTrip(t *testing.T) {
	injected := map[SectionType]string{
		SectionObjective:      "Reward high spenders in the loyalty program. (lines 7-12)",
		SectionBusinessRules:  "Customers must have spent over $500 in 90 days.\nExclude staff accounts. (lines 7-12)",
		SectionExecutionSteps: "1. Sum spend per customer.\n2. Keep those above the threshold. (lines 7-12)",
	}
	raw := ""
	for _, s := range Sections() {
		raw += "{" + string(s) + ": " + injected[s] + "}\n"
	}

	got := ParseTranslation(raw)
	for _, s := range Sections() {
		assert.Equal(t, injected[s], got.Get(s), string(s))
	}
}

func TestParseEvaluation(t *testing.T) {
	raw := "{ACCURACY: 1\nAccuracy Confidence: 90%\nExplanation: Matches the SQL.}\n" +
		"{CONCISENESS: 0\nConciseness Confidence: 75%\nExplanation: Repeats the rules twice.}\n" +
		"{COMPLETENESS: 1\nCompleteness Confidence: 100%\nExplanation: Covers every step.}"

	got := ParseEvaluation(raw)

	assert.Equal(t, CriterionResult{Verdict: strPtr("1"), Confidence: strPtr("90"), Explanation: strPtr("Matches the SQL.")}, got.Accurate)
	assert.Equal(t, CriterionResult{Verdict: strPtr("0"), Confidence: strPtr("75"), Explanation: strPtr("Repeats the rules twice.")}, got.Concise)
	assert.Equal(t, CriterionResult{Verdict: strPtr("1"), Confidence: strPtr("100"), Explanation: strPtr("Covers every step.")}, got.Complete)
}

func TestParseEvaluationSingleLineBlocks(t *testing.T) {
	raw := "{ACCURACY: 0; Accuracy Confidence: 60%; Explanation: Misses the join.}" +
		"{CONCISENESS: 1; Conciseness Confidence: 80%; Explanation: Short.}"

	got := ParseEvaluation(raw)

	assert.Equal(t, "0", *got.Accurate.Verdict)
	assert.Equal(t, "60", *got.Accurate.Confidence)
	assert.Equal(t, "Misses the join.", *got.Accurate.Explanation)
	assert.Equal(t, "1", *got.Concise.Verdict)
	assert.Equal(t, CriterionResult{}, got.Complete)
}

func TestParseEvaluationFieldIndependence(t *testing.T) {
	got := ParseEvaluation("{ACCURACY: 1}")

	require.NotNil(t, got.Accurate.Verdict)
	assert.Equal(t, "1", *got.Accurate.Verdict)
	assert.Nil(t, got.Accurate.Confidence)
	assert.Nil(t, got.Accurate.Explanation)
}

func TestParseEvaluationExplicitZeroIsNotAbsent(t *testing.T) {
	got := ParseEvaluation("{COMPLETENESS: 0\nCompleteness Confidence: 0%}")

	require.NotNil(t, got.Complete.Verdict)
	assert.Equal(t, "0", *got.Complete.Verdict)
	require.NotNil(t, got.Complete.Confidence)
	assert.Equal(t, "0", *got.Complete.Confidence)
	assert.Nil(t, got.Complete.Explanation)
	assert.Nil(t, got.Accurate.Verdict)
}

func TestParseEvaluationIgnoresUnknownBlocks(t *testing.T) {
	got := ParseEvaluation("{Clarity: 1\nExplanation: Nice.}\n{Summary: fine}")
	assert.Equal(t, EvaluationFields{}, got)
}

func TestParseEvaluationUnparsable(t *testing.T) {
	assert.Equal(t, EvaluationFields{}, ParseEvaluation("[Evaluation Error] connection reset"))
	assert.Equal(t, EvaluationFields{}, ParseEvaluation(""))
}

// Duplicate criterion blocks resolve to the last one.
func TestParseEvaluationDuplicateBlockLastWins(t *testing.T) {
	raw := "{ACCURACY: 1\nAccuracy Confidence: 95%\nExplanation: First pass.}\n" +
		"{ACCURATE: 0\nExplanation: Second pass.}"

	got := ParseEvaluation(raw)

	assert.Equal(t, "0", *got.Accurate.Verdict)
	assert.Nil(t, got.Accurate.Confidence)
	assert.Equal(t, "Second pass.", *got.Accurate.Explanation)
}
