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
package genai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCompleterValidation(t *testing.T) {
	_, err := NewCompleter(context.Background(), ProviderConfig{Provider: ProviderOpenAI})
	assert.ErrorContains(t, err, "API key is missing")

	_, err = NewCompleter(context.Background(), ProviderConfig{Provider: "llama", APIKey: "k"})
	assert.ErrorContains(t, err, "unsupported model provider")

	c, err := NewCompleter(context.Background(), ProviderConfig{Provider: " Anthropic ", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, c.Provider())
	assert.NoError(t, c.Close())
}

func TestAnthropicCompleter(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_01",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-7-sonnet-20250219",
			"content": [{"type": "text", "text": "{Objective: Counts orders}"}],
			"stop_reason": "end_turn",
			"stop_sequence": null,
			"usage": {"input_tokens": 10, "output_tokens": 5}
		}`))
	}))
	defer srv.Close()

	c := newAnthropicCompleter(ProviderConfig{APIKey: "test-key", BaseURL: srv.URL})
	got, err := c.Complete(context.Background(), CompletionRequest{System: "sys", User: "usr", Temperature: 0.1, MaxTokens: 4096})
	require.NoError(t, err)
	assert.Equal(t, "{Objective: Counts orders}", got)

	assert.Equal(t, defaultAnthropicModel, body["model"])
	assert.EqualValues(t, 4096, body["max_tokens"])
	assert.EqualValues(t, 0.1, body["temperature"])
	system, ok := body["system"].([]any)
	require.True(t, ok)
	assert.Equal(t, "sys", system[0].(map[string]any)["text"])
}

func TestAnthropicCompleterNoText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_02","type":"message","role":"assistant","model":"m","content":[],"stop_reason":"max_tokens","usage":{"input_tokens":1,"output_tokens":0}}`))
	}))
	defer srv.Close()

	c := newAnthropicCompleter(ProviderConfig{APIKey: "k", Model: "m", BaseURL: srv.URL})
	_, err := c.Complete(context.Background(), CompletionRequest{User: "u", MaxTokens: 10})
	assert.ErrorContains(t, err, "max_tokens")
}

func TestOpenAICompleter(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4o",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "{ACCURACY: 1}"}, "finish_reason": "stop", "logprobs": null}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`))
	}))
	defer srv.Close()

	c := newOpenAICompleter(ProviderConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1/"})
	got, err := c.Complete(context.Background(), CompletionRequest{System: evaluatorSystemPrompt, User: "judge", MaxTokens: 512})
	require.NoError(t, err)
	assert.Equal(t, "{ACCURACY: 1}", got)

	assert.Equal(t, "gpt-4o", body["model"])
	assert.EqualValues(t, 512, body["max_tokens"])
	assert.EqualValues(t, 0, body["temperature"])
	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, "user", messages[1].(map[string]any)["role"])
}

func TestOpenAICompleterErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error": {"message": "boom", "type": "server_error"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"c","object":"chat.completion","created":1,"model":"gpt-4o","choices":[]}`))
	}))
	defer srv.Close()

	c := newOpenAICompleter(ProviderConfig{APIKey: "k", BaseURL: srv.URL + "/v1/"})
	_, err := c.Complete(context.Background(), CompletionRequest{User: "u"})
	assert.ErrorContains(t, err, "OpenAI API call failed")
	assert.Equal(t, 1, calls)

	_, err = c.Complete(context.Background(), CompletionRequest{User: "u"})
	assert.ErrorContains(t, err, "empty chat completion choices")
}
