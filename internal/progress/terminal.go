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
package progress

import (
	"context"
	"io"
	"sync"

	"github.com/pterm/pterm"
)

// TerminalBar renders published progress as a terminal progress bar.
type TerminalBar struct {
	mu      sync.Mutex
	title   string
	writer  io.Writer
	bar     *pterm.ProgressbarPrinter
	current int
}

// NewTerminalBar creates a bar that starts on the first Publish. A nil writer uses pterm's default output.
func NewTerminalBar(title string, writer io.Writer) *TerminalBar {
	return &TerminalBar{title: title, writer: writer}
}

// Publish advances the bar to percent. Values below the current position are ignored.
func (b *TerminalBar) Publish(ctx context.Context, runID string, percent int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bar == nil {
		printer := pterm.DefaultProgressbar.WithTotal(100).WithTitle(b.title).WithRemoveWhenDone(false)
		if b.writer != nil {
			printer = printer.WithWriter(b.writer)
		}
		bar, err := printer.Start()
		if err != nil {
			return err
		}
		b.bar = bar
	}
	if percent > b.current {
		b.bar.Add(percent - b.current)
		b.current = percent
	}
	if b.current >= 100 && b.bar.IsActive {
		_, _ = b.bar.Stop()
	}
	return nil
}

// Current returns the last rendered percentage.
func (b *TerminalBar) Current() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}
