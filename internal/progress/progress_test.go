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
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorePublishQuery(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	assert.Equal(t, DefaultTTL, store.ttl)

	_, ok, err := store.Query(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Publish(ctx, "run-1", 33))
	require.NoError(t, store.Publish(ctx, "run-1", 66))
	require.NoError(t, store.Publish(ctx, "run-2", 100))

	got, ok, err := store.Query(ctx, "run-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 66, got)

	got, ok, err = store.Query(ctx, "run-2")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 100, got)
}

func TestMemoryStoreRejectsOutOfRange(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	assert.Error(t, store.Publish(context.Background(), "run", -1))
	assert.Error(t, store.Publish(context.Background(), "run", 101))
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewMemoryStore(time.Hour)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Publish(ctx, "run", 50))

	now = now.Add(59 * time.Minute)
	_, ok, _ := store.Query(ctx, "run")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok, _ = store.Query(ctx, "run")
	assert.False(t, ok)
	assert.Empty(t, store.entries)
}

type failingSink struct{ calls int }

func (f *failingSink) Publish(ctx context.Context, runID string, percent int) error {
	f.calls++
	return errors.New("unavailable")
}

func TestMultiPublishesToAll(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)
	failing := &failingSink{}
	multi := Multi{failing, nil, store}

	err := multi.Publish(ctx, "run", 40)
	assert.ErrorContains(t, err, "unavailable")
	assert.Equal(t, 1, failing.calls)

	got, ok, _ := store.Query(ctx, "run")
	assert.True(t, ok)
	assert.Equal(t, 40, got)
}

func TestTerminalBarMonotone(t *testing.T) {
	var buf bytes.Buffer
	bar := NewTerminalBar("Translating", &buf)
	ctx := context.Background()

	require.NoError(t, bar.Publish(ctx, "run", 50))
	require.NoError(t, bar.Publish(ctx, "run", 20))
	assert.Equal(t, 50, bar.Current())
	require.NoError(t, bar.Publish(ctx, "run", 100))
	require.NoError(t, bar.Publish(ctx, "run", 100))
	assert.Equal(t, 100, bar.Current())
}
