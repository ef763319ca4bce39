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
// Package tabular reads pipeline inputs from spreadsheets and writes the
// translation and analysis tables.
package tabular

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/GoogleCloudPlatform/sql-doc-translator/internal/translator"
	"github.com/GoogleCloudPlatform/sql-doc-translator/internal/utils"
)

const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"

	SQLColumn    = "sql_code"
	PromptColumn = "prompt"
)

// Names of the tables inside a result bundle.
const (
	BundleTranslation = "translation.xlsx"
	BundleAnalysis    = "analysis.xlsx"
)

func formatOf(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

func readRows(path string) ([][]string, error) {
	switch formatOf(path) {
	case FormatXLSX:
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
		}
		defer f.Close()
		rows, err := f.GetRows(f.GetSheetName(0))
		if err != nil {
			return nil, fmt.Errorf("failed to read rows from %s: %w", path, err)
		}
		return rows, nil
	case FormatCSV:
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer file.Close()
		r := csv.NewReader(file)
		r.FieldsPerRecord = -1
		rows, err := r.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return rows, nil
	default:
		return nil, fmt.Errorf("unsupported input file %s (want .xlsx, .csv or .sql)", path)
	}
}

// ReadColumn returns the values of column from the first sheet of an .xlsx file or from
// a .csv file. The first row is the header; when no header matches column, the first
// column is used. A .sql file yields its statements split on ";\n".
func ReadColumn(path, column string) ([]string, error) {
	if formatOf(path) == "sql" {
		return utils.ReadSQLStatementsFromFile(path)
	}
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s has no header row", path)
	}

	idx := 0
	for i, h := range rows[0] {
		if strings.EqualFold(strings.TrimSpace(h), column) {
			idx = i
			break
		}
	}

	values := make([]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if idx < len(row) {
			values = append(values, row[idx])
		} else {
			values = append(values, "")
		}
	}
	return values, nil
}

// ReadInputs loads the fragments and their instructions. Without an instruction file
// every fragment gets defaultInstruction.
func ReadInputs(sqlPath, promptPath, defaultInstruction string) ([]string, []string, error) {
	sqls, err := ReadColumn(sqlPath, SQLColumn)
	if err != nil {
		return nil, nil, err
	}
	if promptPath == "" {
		instructions := make([]string, len(sqls))
		for i := range instructions {
			instructions[i] = defaultInstruction
		}
		return sqls, instructions, nil
	}
	instructions, err := ReadColumn(promptPath, PromptColumn)
	if err != nil {
		return nil, nil, err
	}
	return sqls, instructions, nil
}

func toCells(row []string) []interface{} {
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}
	return cells
}

func newWorkbook(headers []string, rows [][]string) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	all := append([][]string{headers}, rows...)
	for i, row := range all {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			f.Close()
			return nil, err
		}
		cells := toCells(row)
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	return f, nil
}

func writeXLSX(w io.Writer, headers []string, rows [][]string) error {
	f, err := newWorkbook(headers, rows)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

func writeCSV(w io.Writer, headers []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteTable writes headers and rows to path in the format given by its extension.
func WriteTable(path string, headers []string, rows [][]string) error {
	format := formatOf(path)
	if format != FormatXLSX && format != FormatCSV {
		return fmt.Errorf("unsupported output file %s (want .xlsx or .csv)", path)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if format == FormatXLSX {
		err = writeXLSX(file, headers, rows)
	} else {
		err = writeCSV(file, headers, rows)
	}
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// TranslationRows renders the translation table body.
func TranslationRows(res *translator.Result) [][]string {
	rows := make([][]string, len(res.Translations))
	for i, r := range res.Translations {
		rows[i] = r.Row()
	}
	return rows
}

// EvaluationRows renders the analysis table body.
func EvaluationRows(res *translator.Result) [][]string {
	rows := make([][]string, len(res.Evaluations))
	for i, r := range res.Evaluations {
		rows[i] = r.Row()
	}
	return rows
}

// Outputs are the files written by WriteResult.
type Outputs struct {
	Translation string
	Analysis    string
}

// WriteResult writes translation_results and analysis_results into dir.
func WriteResult(dir, format, runID string, res *translator.Result) (Outputs, error) {
	out := Outputs{
		Translation: utils.GetDefaultOutputFilePath(dir, runID, "translation", format),
		Analysis:    utils.GetDefaultOutputFilePath(dir, runID, "analysis", format),
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Outputs{}, fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	if err := WriteTable(out.Translation, translator.TranslationColumns, TranslationRows(res)); err != nil {
		return Outputs{}, err
	}
	if err := WriteTable(out.Analysis, translator.EvaluationColumns, EvaluationRows(res)); err != nil {
		return Outputs{}, err
	}
	return out, nil
}

// WriteBundle writes a zip archive holding both tables as workbooks.
func WriteBundle(w io.Writer, res *translator.Result) error {
	zw := zip.NewWriter(w)
	entries := []struct {
		name    string
		headers []string
		rows    [][]string
	}{
		{BundleTranslation, translator.TranslationColumns, TranslationRows(res)},
		{BundleAnalysis, translator.EvaluationColumns, EvaluationRows(res)},
	}
	for _, e := range entries {
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: e.name, Method: zip.Deflate})
		if err != nil {
			return fmt.Errorf("failed to add %s to bundle: %w", e.name, err)
		}
		if err := writeXLSX(fw, e.headers, e.rows); err != nil {
			return fmt.Errorf("failed to write %s to bundle: %w", e.name, err)
		}
	}
	return zw.Close()
}

// NumberedListing renders source with right-aligned line numbers, one line per row.
func NumberedListing(source string) string {
	lines := strings.Split(strings.TrimRight(strings.ReplaceAll(source, "\r\n", "\n"), " \t\r\n"), "\n")
	width := len(fmt.Sprint(len(lines)))
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%*d  %s", width, i+1, line)
	}
	return b.String()
}
