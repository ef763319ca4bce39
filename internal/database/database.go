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
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GoogleCloudPlatform/sql-doc-translator/internal/config"
	"github.com/GoogleCloudPlatform/sql-doc-translator/internal/translator"
)

// Store is the run store used by the CLI: a progress sink and querier that can also
// persist and remove the output tables of a run.
type Store interface {
	translator.ProgressSink
	translator.ProgressQuerier
	EnsureSchema(ctx context.Context) error
	SaveResult(ctx context.Context, runID string, result *translator.Result) error
	DeleteRun(ctx context.Context, runID string) (int64, error)
	Ping(ctx context.Context) error
	Close() error
	GetConfig() config.DatabaseConfig
}

var _ Store = (*DB)(nil)

// DB holds the database connection pool and dialect handler.
type DB struct {
	Pool    *sql.DB
	Handler DialectHandler
	Config  config.DatabaseConfig
}

// ColumnKind is the portable type of a run store column. Each dialect maps it to a native type.
type ColumnKind int

const (
	KindID ColumnKind = iota
	KindInt
	KindFloat
	KindText
	KindTimestamp
)

// DialectHandler isolates everything that differs between database engines.
type DialectHandler interface {
	CreateCloudSQLPool(cfg config.DatabaseConfig) (*sql.DB, error)
	CreateStandardPool(cfg config.DatabaseConfig) (*sql.DB, error)
	QuoteIdentifier(name string) string
	// Placeholder returns the bind parameter for the n-th (1-based) argument.
	Placeholder(n int) string
	ColumnType(kind ColumnKind) string
	// CreateTableSQL wraps a column definition list into an idempotent CREATE TABLE.
	CreateTableSQL(table string, definition string) string
	// UpsertProgressSQL inserts or replaces (run_id, percent, updated_at) in table.
	UpsertProgressSQL(table string) string
}

const (
	ProgressTable    = "run_progress"
	TranslationTable = "translation_records"
	EvaluationTable  = "evaluation_records"
)

type column struct {
	name     string
	kind     ColumnKind
	nullable bool
}

type tableDef struct {
	name       string
	columns    []column
	primaryKey []string
}

var recordColumns = []column{
	{"run_id", KindID, false},
	{"row_index", KindInt, false},
	{"sql_index", KindInt, false},
	{"temperature", KindFloat, false},
	{"prompt", KindText, false},
	{"section_type", KindText, false},
	{"content", KindText, false},
}

var criterionColumns = []column{
	{"accurate", KindText, true},
	{"accuracy_confidence", KindText, true},
	{"accuracy_explanation", KindText, true},
	{"concise", KindText, true},
	{"conciseness_confidence", KindText, true},
	{"conciseness_explanation", KindText, true},
	{"complete", KindText, true},
	{"completeness_confidence", KindText, true},
	{"completeness_explanation", KindText, true},
}

func schema() []tableDef {
	evaluation := append(append([]column{}, recordColumns...), criterionColumns...)
	return []tableDef{
		{
			name: ProgressTable,
			columns: []column{
				{"run_id", KindID, false},
				{"percent", KindInt, false},
				{"updated_at", KindTimestamp, false},
			},
			primaryKey: []string{"run_id"},
		},
		{name: TranslationTable, columns: recordColumns, primaryKey: []string{"run_id", "row_index"}},
		{name: EvaluationTable, columns: evaluation, primaryKey: []string{"run_id", "row_index"}},
	}
}

var (
	dialectHandlers = make(map[string]DialectHandler)
	mu              sync.RWMutex
)

func RegisterDialectHandler(dialect string, handler DialectHandler) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := dialectHandlers[dialect]; exists {
		zap.S().Warnf("Dialect handler for '%s' is being overwritten.", dialect)
	}
	dialectHandlers[dialect] = handler
}

func GetDialectHandler(dialect string) (DialectHandler, error) {
	mu.RLock()
	defer mu.RUnlock()
	handler, ok := dialectHandlers[dialect]
	if !ok {
		return nil, fmt.Errorf("unsupported database dialect: %s", dialect)
	}
	return handler, nil
}

func New(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	handler, err := GetDialectHandler(cfg.Dialect)
	if err != nil {
		return nil, err
	}

	var pool *sql.DB
	if strings.HasPrefix(cfg.Dialect, "cloudsql") {
		pool, err = handler.CreateCloudSQLPool(cfg)
	} else {
		pool, err = handler.CreateStandardPool(cfg)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create database pool for dialect %s: %w", cfg.Dialect, err)
	}

	if err := pool.PingContext(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database (ping failed) for dialect %s: %w", cfg.Dialect, err)
	}

	return &DB{
		Pool:    pool,
		Handler: handler,
		Config:  cfg,
	}, nil
}

func (db *DB) GetConfig() config.DatabaseConfig {
	return db.Config
}

func (db *DB) Ping(ctx context.Context) error {
	if db.Pool == nil {
		return fmt.Errorf("database connection pool is not initialized")
	}
	return db.Pool.PingContext(ctx)
}

func (db *DB) Close() error {
	if db.Pool != nil {
		return db.Pool.Close()
	}
	zap.S().Warn("Attempted to close a nil database connection pool.")
	return nil
}

func (db *DB) ready() error {
	if db.Pool == nil {
		return fmt.Errorf("database connection pool is not initialized")
	}
	if db.Handler == nil {
		return fmt.Errorf("dialect handler not initialized")
	}
	return nil
}

// CreateTableStatements returns the DDL for every run store table in the handler's dialect.
func CreateTableStatements(h DialectHandler) []string {
	var stmts []string
	for _, t := range schema() {
		parts := make([]string, 0, len(t.columns)+1)
		for _, c := range t.columns {
			def := h.QuoteIdentifier(c.name) + " " + h.ColumnType(c.kind)
			if !c.nullable {
				def += " NOT NULL"
			}
			parts = append(parts, def)
		}
		pk := make([]string, len(t.primaryKey))
		for i, name := range t.primaryKey {
			pk[i] = h.QuoteIdentifier(name)
		}
		parts = append(parts, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pk, ", ")))
		stmts = append(stmts, h.CreateTableSQL(t.name, strings.Join(parts, ", ")))
	}
	return stmts
}

// EnsureSchema creates the run store tables if they do not exist.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if err := db.ready(); err != nil {
		return err
	}
	return db.ExecuteSQLStatements(ctx, CreateTableStatements(db.Handler))
}

// Publish records the completion percentage of a run, replacing any previous value.
func (db *DB) Publish(ctx context.Context, runID string, percent int) error {
	if err := db.ready(); err != nil {
		return err
	}
	query := db.Handler.UpsertProgressSQL(ProgressTable)
	if _, err := db.Pool.ExecContext(ctx, query, runID, percent, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to publish progress for run %s: %w", runID, err)
	}
	return nil
}

// Query returns the stored percentage of a run. ok is false when the run is unknown.
func (db *DB) Query(ctx context.Context, runID string) (int, bool, error) {
	if err := db.ready(); err != nil {
		return 0, false, err
	}
	h := db.Handler
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s",
		h.QuoteIdentifier("percent"), h.QuoteIdentifier(ProgressTable), h.QuoteIdentifier("run_id"), h.Placeholder(1))

	var percent int
	err := db.Pool.QueryRowContext(ctx, query, runID).Scan(&percent)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to query progress for run %s: %w", runID, err)
	}
	return percent, true, nil
}

func (db *DB) insertSQL(table string, columns []column) string {
	h := db.Handler
	names := make([]string, len(columns))
	params := make([]string, len(columns))
	for i, c := range columns {
		names[i] = h.QuoteIdentifier(c.name)
		params[i] = h.Placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		h.QuoteIdentifier(table), strings.Join(names, ", "), strings.Join(params, ", "))
}

func (db *DB) deleteRunSQL(table string) string {
	h := db.Handler
	return fmt.Sprintf("DELETE FROM %s WHERE %s = %s", h.QuoteIdentifier(table), h.QuoteIdentifier("run_id"), h.Placeholder(1))
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func recordArgs(runID string, row int, rec translator.TranslationRecord) []any {
	return []any{runID, row, rec.SQLIndex, rec.Temperature, rec.Prompt, string(rec.Type), rec.Content}
}

// SaveResult replaces the stored output tables of a run with result in one transaction.
// Absent evaluation values are stored as NULL.
func (db *DB) SaveResult(ctx context.Context, runID string, result *translator.Result) error {
	if err := db.ready(); err != nil {
		return err
	}
	if result == nil {
		return fmt.Errorf("no result to save for run %s", runID)
	}

	tx, err := db.Pool.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{TranslationTable, EvaluationTable} {
		if _, err := tx.ExecContext(ctx, db.deleteRunSQL(table), runID); err != nil {
			return fmt.Errorf("failed clearing %s for run %s: %w", table, runID, err)
		}
	}

	insertTranslation := db.insertSQL(TranslationTable, recordColumns)
	for i, rec := range result.Translations {
		if _, err := tx.ExecContext(ctx, insertTranslation, recordArgs(runID, i, rec)...); err != nil {
			return fmt.Errorf("failed inserting translation row %d: %w", i, err)
		}
	}

	insertEvaluation := db.insertSQL(EvaluationTable, append(append([]column{}, recordColumns...), criterionColumns...))
	for i, rec := range result.Evaluations {
		args := recordArgs(runID, i, rec.TranslationRecord)
		for _, c := range translator.Criteria() {
			r := rec.Get(c)
			args = append(args, nullable(r.Verdict), nullable(r.Confidence), nullable(r.Explanation))
		}
		if _, err := tx.ExecContext(ctx, insertEvaluation, args...); err != nil {
			return fmt.Errorf("failed inserting evaluation row %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	zap.S().Infof("Saved %d translation and %d evaluation rows for run %s", len(result.Translations), len(result.Evaluations), runID)
	return nil
}

// DeleteRun removes the progress and output rows of a run and returns how many rows were deleted.
func (db *DB) DeleteRun(ctx context.Context, runID string) (int64, error) {
	if err := db.ready(); err != nil {
		return 0, err
	}
	tx, err := db.Pool.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var total int64
	for _, table := range []string{EvaluationTable, TranslationTable, ProgressTable} {
		res, err := tx.ExecContext(ctx, db.deleteRunSQL(table), runID)
		if err != nil {
			return 0, fmt.Errorf("failed deleting from %s for run %s: %w", table, runID, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			total += n
		}
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return total, nil
}

func (db *DB) ExecuteSQLStatements(ctx context.Context, sqlStatements []string) error {
	if db.Pool == nil {
		return fmt.Errorf("database connection pool is not initialized")
	}
	if len(sqlStatements) == 0 {
		zap.S().Info("No SQL statements provided to ExecuteSQLStatements.")
		return nil
	}

	tx, err := db.Pool.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i, stmt := range sqlStatements {
		trimmedStmt := strings.TrimSpace(stmt)
		if trimmedStmt == "" {
			continue
		}
		_, err = tx.ExecContext(ctx, trimmedStmt)
		if err != nil {
			zap.S().Errorf("Failed executing statement #%d: %s\nError: %v", i+1, trimmedStmt, err)
			return fmt.Errorf("failed executing statement #%d: %w", i+1, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
