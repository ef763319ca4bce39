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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildGenerationPrompt(t *testing.T) {
	sql := "SELECT name\nFROM customers\nWHERE spend > 100 AND note <> '{x}'"
	system, user := BuildGenerationPrompt("Summarize this.", sql, LineSpan{Start: 12, End: 14})

	for _, header := range []string{"{Objective: ...}", "{Business Rules: ...}", "{Execution Steps: ...}"} {
		assert.Contains(t, system, header)
	}
	assert.Contains(t, system, "(lines 12-14)")
	assert.Contains(t, system, "without changing any other punctuation")

	assert.Equal(t, "Summarize this.\n\nSQL Code:\n"+sql, user)
}

func TestBuildEvaluationPrompt(t *testing.T) {
	translation := "{Objective: find \"vip\" shoppers (lines 1-2)}"
	prompt := BuildEvaluationPrompt(translation)

	acc := strings.Index(prompt, "{ACCURACY: 0/1")
	con := strings.Index(prompt, "{CONCISENESS: 0/1")
	com := strings.Index(prompt, "{COMPLETENESS: 0/1")
	assert.True(t, acc >= 0 && acc < con && con < com, "criteria must appear in order")

	for _, line := range []string{"Accuracy Confidence: n%", "Conciseness Confidence: n%", "Completeness Confidence: n%", "Explanation: ..."} {
		assert.Contains(t, prompt, line)
	}
	assert.True(t, strings.HasSuffix(prompt, "Translation:\n\"\"\""+translation+"\"\"\""))
}

func TestDefaultInstructionDescribesFormat(t *testing.T) {
	for _, s := range Sections() {
		assert.Contains(t, DefaultInstruction, string(s))
	}
}
