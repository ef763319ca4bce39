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

import "strings"

// LineTracker assigns absolute line spans to fragments processed in order.
type LineTracker struct {
	next int
}

// NewLineTracker returns a tracker whose first span starts at line 1.
func NewLineTracker() *LineTracker {
	return &LineTracker{next: 1}
}

// Advance returns the span of sql and moves the counter past it.
func (t *LineTracker) Advance(sql string) LineSpan {
	n := countLines(sql)
	span := LineSpan{Start: t.next, End: t.next + n - 1}
	t.next += n
	return span
}

// Next returns the line number the next fragment will start on.
func (t *LineTracker) Next() int {
	return t.next
}

// Spans computes every fragment's span up front. The result matches calling Advance
// on each fragment in order, so fragments can then be processed independently.
func Spans(sqls []string) []LineSpan {
	t := NewLineTracker()
	spans := make([]LineSpan, len(sqls))
	for i, sql := range sqls {
		spans[i] = t.Advance(sql)
	}
	return spans
}

// countLines counts line-break-delimited segments. Empty text is one line.
func countLines(s string) int {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.Count(s, "\n") + 1
}
