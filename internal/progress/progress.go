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
// Package progress provides places to publish and read back the completion
// percentage of pipeline runs.
package progress

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GoogleCloudPlatform/sql-doc-translator/internal/translator"
)

// DefaultTTL is how long a published value stays readable.
const DefaultTTL = time.Hour

type entry struct {
	percent int
	expires time.Time
}

// MemoryStore is an in-process key-value progress store keyed by run id.
type MemoryStore struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]entry
}

var (
	_ translator.ProgressSink    = (*MemoryStore)(nil)
	_ translator.ProgressQuerier = (*MemoryStore)(nil)
)

// NewMemoryStore creates a store whose values expire after ttl. A non-positive ttl
// means DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

// Publish stores percent for runID, replacing any previous value.
func (s *MemoryStore) Publish(ctx context.Context, runID string, percent int) error {
	if percent < 0 || percent > 100 {
		return fmt.Errorf("progress %d for run %s is outside [0,100]", percent, runID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[runID] = entry{percent: percent, expires: s.now().Add(s.ttl)}
	return nil
}

// Query returns the last published value for runID. ok is false if the run is
// unknown or its value expired.
func (s *MemoryStore) Query(ctx context.Context, runID string) (int, bool, error) {
	s.mu.RLock()
	e, found := s.entries[runID]
	s.mu.RUnlock()
	if !found {
		return 0, false, nil
	}
	if s.now().After(e.expires) {
		s.mu.Lock()
		delete(s.entries, runID)
		s.mu.Unlock()
		return 0, false, nil
	}
	return e.percent, true, nil
}

// Multi publishes to every sink, in order. Nil sinks are skipped.
type Multi []translator.ProgressSink

// Publish implements translator.ProgressSink. All sinks are attempted; their errors are joined.
func (m Multi) Publish(ctx context.Context, runID string, percent int) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Publish(ctx, runID, percent); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
