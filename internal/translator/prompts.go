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

import "fmt"

// DefaultInstruction is paired with every fragment when the caller supplies SQL only.
const DefaultInstruction = "You are an assistant to translate the sql codes with the user message " +
	"{SQL CODES: ...} into business documentation in plain English so that " +
	"those without sql knowledge can understand.\n" +
	"The sql codes are to support a customer marketing program at a " +
	"supermarket chain.\n" +
	"Summarize the codes to find out the objective, business rules, and " +
	"execution steps.\n" +
	"Export your output in the following format:\n" +
	"{Objective ...}\n{Business Rules ...}\n{Execution Steps ...}\n" +
	"It is critical for assistant to enclose Objective, Business Rules, " +
	"Execution Steps within their own {} respectively, nothing outside {}."

// String renders the span the way the generation prompt asks the model to append it.
func (s LineSpan) String() string {
	return fmt.Sprintf("(lines %d-%d)", s.Start, s.End)
}

// BuildGenerationPrompt returns the system and user prompts for translating one fragment.
// The system prompt is the parser's input contract: ParseTranslation depends on the
// brace format it demands.
func BuildGenerationPrompt(instruction, sql string, span LineSpan) (string, string) {
	system := "You are a helpful assistant that translates SQL into business " +
		"documentation in plain English.\n" +
		"Output EXACTLY in this format (include the braces):\n" +
		"{Objective: ...}\n{Business Rules: ...}\n{Execution Steps: ...}\n" +
		"At the very end of the text inside each pair of braces, append " +
		fmt.Sprintf("the absolute SQL line range %s without changing any ", span) +
		"other punctuation or line breaks."

	user := instruction + "\n\nSQL Code:\n" + sql
	return system, user
}

// BuildEvaluationPrompt returns the judge prompt for one translation. The translation is
// embedded verbatim between triple quotes.
func BuildEvaluationPrompt(translation string) string {
	return "OUTPUT EXACTLY in this format:\n" +
		"{ACCURACY: 0/1\nAccuracy Confidence: n%\nExplanation: ...}\n" +
		"{CONCISENESS: 0/1\nConciseness Confidence: n%\nExplanation: ...}\n" +
		"{COMPLETENESS: 0/1\nCompleteness Confidence: n%\nExplanation: ...}\n\n" +
		"Translation:\n\"\"\"" + translation + "\"\"\""
}
