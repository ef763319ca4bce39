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
// Package keychain stores provider API keys in the OS credential store.
package keychain

import (
	"errors"
	"fmt"
	"sync"

	"github.com/99designs/keyring"
)

// ServiceName identifies our keychain/credential store namespace.
const ServiceName = "sql-doc-translator"

// ErrNotFound is returned when no key is stored for a provider.
var ErrNotFound = errors.New("no API key stored")

// Manager provides thread-safe access to stored API keys.
type Manager struct {
	mu   sync.RWMutex
	ring keyring.Keyring
}

// NewManager opens the OS keyring using native backends only.
func NewManager() (*Manager, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: ServiceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.WinCredBackend,
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.PassBackend,
		},
		PassPrefix:    ServiceName,
		WinCredPrefix: ServiceName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open OS keyring: %w", err)
	}
	return NewManagerWithRing(ring), nil
}

// NewManagerWithRing wraps an already opened keyring.
func NewManagerWithRing(ring keyring.Keyring) *Manager {
	return &Manager{ring: ring}
}

func itemKey(provider string) string {
	return provider + "_api_key"
}

// SetAPIKey stores key for provider, replacing any previous value.
func (m *Manager) SetAPIKey(provider, key string) error {
	if key == "" {
		return fmt.Errorf("refusing to store an empty API key for %s", provider)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ring.Set(keyring.Item{
		Key:         itemKey(provider),
		Data:        []byte(key),
		Label:       fmt.Sprintf("%s API key (%s)", provider, ServiceName),
		Description: "API key used by " + ServiceName,
	})
}

// APIKey returns the stored key for provider, or ErrNotFound.
func (m *Manager) APIKey(provider string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	it, err := m.ring.Get(itemKey(provider))
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", fmt.Errorf("%w for %s", ErrNotFound, provider)
	}
	if err != nil {
		return "", err
	}
	return string(it.Data), nil
}

// DeleteAPIKey removes the stored key for provider. Removing a missing key is not an error.
func (m *Manager) DeleteAPIKey(provider string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ring.Remove(itemKey(provider)); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return err
	}
	return nil
}
