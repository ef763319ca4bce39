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
package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSQLStatementsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.sql")
	content := "SELECT 1;\nSELECT a\nFROM t;\r\n\n;\nUPDATE t SET a = 1"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	got, err := ReadSQLStatementsFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"SELECT 1", "SELECT a\nFROM t", "UPDATE t SET a = 1"}, got)

	_, err = ReadSQLStatementsFromFile(filepath.Join(t.TempDir(), "missing.sql"))
	assert.Error(t, err)
}

func TestReadInstructionFile(t *testing.T) {
	got, err := ReadInstructionFile("")
	require.NoError(t, err)
	assert.Empty(t, got)

	path := filepath.Join(t.TempDir(), "prompt.txt")
	require.NoError(t, os.WriteFile(path, []byte("  Explain briefly.\n"), 0o600))
	got, err = ReadInstructionFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Explain briefly.", got)
}

func TestGetDefaultOutputFilePath(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "translation_results.xlsx"), GetDefaultOutputFilePath("out", "r1", "translation", "xlsx"))
	assert.Equal(t, filepath.Join("out", "analysis_results.csv"), GetDefaultOutputFilePath("out", "r1", "analysis", "csv"))
	assert.Equal(t, filepath.Join("out", "r1.zip"), GetDefaultOutputFilePath("out", "r1", "bundle", "xlsx"))
	assert.Equal(t, filepath.Join("out", "r1_code.txt"), GetDefaultOutputFilePath("out", "r1", "listing", "xlsx"))
}

func TestParseTemperatures(t *testing.T) {
	got, err := ParseTemperatures("0.1, 0.5,,1")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.5, 1}, got)

	for _, bad := range []string{"", " , ", "hot", "3"} {
		_, err := ParseTemperatures(bad)
		assert.Error(t, err, bad)
	}
}

func TestConfirmAction(t *testing.T) {
	tests := []struct {
		answer string
		want   bool
	}{
		{"yes\n", true},
		{"Y\n", true},
		{"no\n", false},
		{"", false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		assert.Equal(t, tt.want, ConfirmAction(strings.NewReader(tt.answer), &out, "delete run r1"), tt.answer)
		assert.Contains(t, out.String(), "delete run r1")
	}
}
