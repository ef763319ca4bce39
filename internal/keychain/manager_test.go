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
package keychain

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIKeyLifecycle(t *testing.T) {
	m := NewManagerWithRing(keyring.NewArrayKeyring(nil))

	_, err := m.APIKey("anthropic")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.SetAPIKey("anthropic", "sk-ant-1"))
	require.NoError(t, m.SetAPIKey("openai", "sk-oai"))
	require.NoError(t, m.SetAPIKey("anthropic", "sk-ant-2"))

	got, err := m.APIKey("anthropic")
	require.NoError(t, err)
	assert.Equal(t, "sk-ant-2", got)

	require.NoError(t, m.DeleteAPIKey("anthropic"))
	require.NoError(t, m.DeleteAPIKey("anthropic"))
	_, err = m.APIKey("anthropic")
	assert.ErrorIs(t, err, ErrNotFound)

	got, err = m.APIKey("openai")
	require.NoError(t, err)
	assert.Equal(t, "sk-oai", got)
}

func TestSetAPIKeyRejectsEmpty(t *testing.T) {
	m := NewManagerWithRing(keyring.NewArrayKeyring(nil))
	assert.Error(t, m.SetAPIKey("gemini", ""))
}
