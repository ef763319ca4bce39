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
	"regexp"
	"strings"
)

// TranslationSections holds the three sections extracted from a generation response.
type TranslationSections struct {
	Objective      string
	BusinessRules  string
	ExecutionSteps string
}

// Get returns the content of the given section.
func (s TranslationSections) Get(t SectionType) string {
	switch t {
	case SectionObjective:
		return s.Objective
	case SectionBusinessRules:
		return s.BusinessRules
	case SectionExecutionSteps:
		return s.ExecutionSteps
	}
	return ""
}

// Responses from both models follow the block grammar
//
//	block := "{" header ":" body "}"
//
// where body never contains a closing brace.
var (
	sectionPatterns = map[SectionType]*regexp.Regexp{}

	blockPattern       = regexp.MustCompile(`\{([^}]*)\}`)
	verdictPattern     = regexp.MustCompile(`\b([01])\b`)
	confidencePattern  = regexp.MustCompile(`(\d+)%`)
	explanationPattern = regexp.MustCompile(`(?i)Explanation\s*:\s*(.+)`)
)

func init() {
	for _, t := range Sections() {
		sectionPatterns[t] = regexp.MustCompile(`(?is)\{\s*` + regexp.QuoteMeta(string(t)) + `\s*:(.+?)\}`)
	}
}

// ParseTranslation extracts the three sections from a generation response. A section
// whose header is missing is returned as an empty string.
func ParseTranslation(raw string) TranslationSections {
	grab := func(t SectionType) string {
		m := sectionPatterns[t].FindStringSubmatch(raw)
		if m == nil {
			return ""
		}
		return strings.TrimSpace(m[1])
	}
	return TranslationSections{
		Objective:      grab(SectionObjective),
		BusinessRules:  grab(SectionBusinessRules),
		ExecutionSteps: grab(SectionExecutionSteps),
	}
}

// ParseEvaluation extracts per-criterion verdicts from a judge response. Fields the
// response does not supply stay nil. When a criterion block appears more than once the
// last occurrence wins.
func ParseEvaluation(raw string) EvaluationFields {
	var out EvaluationFields
	for _, blk := range splitBlocks(raw) {
		c, ok := classifyBlock(blk)
		if !ok {
			continue
		}
		out.set(c, CriterionResult{
			Verdict:     firstGroup(verdictPattern, blk),
			Confidence:  firstGroup(confidencePattern, blk),
			Explanation: firstGroup(explanationPattern, blk),
		})
	}
	return out
}

// splitBlocks returns the contents of every brace-delimited block. Adjacent blocks
// separated only by a newline are split apart first.
func splitBlocks(raw string) []string {
	normalized := strings.ReplaceAll(raw, "}\n{", "}|{")
	matches := blockPattern.FindAllStringSubmatch(normalized, -1)
	blocks := make([]string, 0, len(matches))
	for _, m := range matches {
		blocks = append(blocks, m[1])
	}
	return blocks
}

// classifyBlock maps a block to its criterion by the header before the first colon.
func classifyBlock(blk string) (Criterion, bool) {
	key, _, _ := strings.Cut(blk, ":")
	key = strings.ToLower(strings.TrimSpace(key))
	switch {
	case strings.HasPrefix(key, "accur"):
		return CriterionAccurate, true
	case strings.HasPrefix(key, "concise"):
		return CriterionConcise, true
	case strings.HasPrefix(key, "complete"):
		return CriterionComplete, true
	}
	return "", false
}

func firstGroup(re *regexp.Regexp, s string) *string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	v := strings.TrimSpace(m[1])
	return &v
}
