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
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

func ReadSQLStatementsFromFile(filePath string) ([]string, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	sqlStatements := strings.Split(strings.ReplaceAll(string(content), "\r\n", "\n"), ";\n")
	var trimmedStatements []string
	for _, stmt := range sqlStatements {
		trimmedStmt := strings.TrimSpace(stmt)
		if trimmedStmt != "" {
			trimmedStatements = append(trimmedStatements, trimmedStmt)
		}
	}
	return trimmedStatements, nil
}

// ReadInstructionFile returns the trimmed content of an instruction file. An empty path yields "".
func ReadInstructionFile(filePath string) (string, error) {
	if filePath == "" {
		return "", nil
	}
	content, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read instruction file '%s': %w", filePath, err)
	}
	return strings.TrimSpace(string(content)), nil
}

// GetDefaultOutputFilePath returns where a run's artifact of the given kind is written.
func GetDefaultOutputFilePath(outputDir, runID, kind, format string) string {
	switch kind {
	case "bundle":
		return filepath.Join(outputDir, fmt.Sprintf("%s.zip", runID))
	case "listing":
		return filepath.Join(outputDir, fmt.Sprintf("%s_code.txt", runID))
	default: // translation, analysis
		return filepath.Join(outputDir, fmt.Sprintf("%s_results.%s", kind, format))
	}
}

// ParseTemperatures parses a comma-separated temperature list such as "0.1,0.5".
func ParseTemperatures(flag string) ([]float64, error) {
	var temps []float64
	for _, part := range strings.Split(flag, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		t, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid temperature %q: %w", part, err)
		}
		if t < 0 || t > 2 {
			return nil, fmt.Errorf("temperature %v out of range [0,2]", t)
		}
		temps = append(temps, t)
	}
	if len(temps) == 0 {
		return nil, fmt.Errorf("no temperatures in %q", flag)
	}
	return temps, nil
}

// ConfirmAction asks on out and reads a yes/no answer from in.
func ConfirmAction(in io.Reader, out io.Writer, actionDescription string) bool {
	reader := bufio.NewReader(in)
	fmt.Fprintf(out, "\n-------------------------------------------------------------\n")
	fmt.Fprintf(out, "About to %s.\n", actionDescription)
	fmt.Fprint(out, "Do you want to continue? (yes/no): ")
	text, _ := reader.ReadString('\n')
	action := strings.TrimSpace(strings.ToLower(text))
	return action == "yes" || action == "y"
}
