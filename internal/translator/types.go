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

import "strconv"

// SectionType names one of the three parts of a translation.
type SectionType string

const (
	SectionObjective      SectionType = "Objective"
	SectionBusinessRules  SectionType = "Business Rules"
	SectionExecutionSteps SectionType = "Execution Steps"
)

// Sections returns the section types in output order.
func Sections() []SectionType {
	return []SectionType{SectionObjective, SectionBusinessRules, SectionExecutionSteps}
}

// Criterion names one of the judged quality dimensions.
type Criterion string

const (
	CriterionAccurate Criterion = "Accurate"
	CriterionConcise  Criterion = "Concise"
	CriterionComplete Criterion = "Complete"
)

// Criteria returns the criteria in output order.
func Criteria() []Criterion {
	return []Criterion{CriterionAccurate, CriterionConcise, CriterionComplete}
}

// Fragment is one SQL snippet paired with the instruction used to translate it.
type Fragment struct {
	Index       int // 1-based position in the submission
	SQL         string
	Instruction string
}

// LineSpan is the absolute line range a fragment occupies in the whole submission.
type LineSpan struct {
	Start int
	End   int
}

// TranslationRecord is one row of the translation table.
type TranslationRecord struct {
	SQLIndex    int
	Temperature float64
	Prompt      string
	Type        SectionType
	Content     string
}

// CriterionResult holds the judge's verdict for one criterion. A nil field means the
// judge response did not supply it.
type CriterionResult struct {
	Verdict     *string
	Confidence  *string
	Explanation *string
}

// EvaluationFields is the parsed judge response for one translation.
type EvaluationFields struct {
	Accurate CriterionResult
	Concise  CriterionResult
	Complete CriterionResult
}

// Get returns the result for the given criterion.
func (f EvaluationFields) Get(c Criterion) CriterionResult {
	switch c {
	case CriterionAccurate:
		return f.Accurate
	case CriterionConcise:
		return f.Concise
	case CriterionComplete:
		return f.Complete
	}
	return CriterionResult{}
}

func (f *EvaluationFields) set(c Criterion, r CriterionResult) {
	switch c {
	case CriterionAccurate:
		f.Accurate = r
	case CriterionConcise:
		f.Concise = r
	case CriterionComplete:
		f.Complete = r
	}
}

// EvaluationRecord is one row of the analysis table.
type EvaluationRecord struct {
	TranslationRecord
	EvaluationFields
}

// Result holds the two output tables of a pipeline run.
type Result struct {
	Translations []TranslationRecord
	Evaluations  []EvaluationRecord
}

// TranslationColumns are the headers of the translation table.
var TranslationColumns = []string{"SQL_Index", "Temperature", "prompt", "Type", "Content"}

// EvaluationColumns are the headers of the analysis table.
var EvaluationColumns = append(append([]string{}, TranslationColumns...),
	"Accurate", "Accurate Confidence (%)", "Accurate Explanation",
	"Concise", "Concise Confidence (%)", "Concise Explanation",
	"Complete", "Complete Confidence (%)", "Complete Explanation",
)

// Row renders the record in TranslationColumns order.
func (r TranslationRecord) Row() []string {
	return []string{
		strconv.Itoa(r.SQLIndex),
		strconv.FormatFloat(r.Temperature, 'f', -1, 64),
		r.Prompt,
		string(r.Type),
		r.Content,
	}
}

// Row renders the record in EvaluationColumns order. Absent values render as empty cells.
func (r EvaluationRecord) Row() []string {
	row := r.TranslationRecord.Row()
	for _, c := range Criteria() {
		res := r.Get(c)
		row = append(row, deref(res.Verdict), deref(res.Confidence), deref(res.Explanation))
	}
	return row
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
