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
package postgres

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoogleCloudPlatform/sql-doc-translator/internal/config"
	"github.com/GoogleCloudPlatform/sql-doc-translator/internal/database"
)

func newMockPostgresDB(t *testing.T) (*database.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDb, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { mockDb.Close() })
	return &database.DB{
		Pool:    mockDb,
		Handler: postgresHandler{},
		Config:  config.DatabaseConfig{Dialect: "postgres"},
	}, mock
}

func TestPostgresQuoteIdentifier(t *testing.T) {
	handler := postgresHandler{}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"Simple name", "mytable", `"mytable"`},
		{"Name with spaces", "my table", `"my table"`},
		{"Name with quotes", `my"table`, `"my""table"`},
		{"Empty name", "", `""`},
		{"Keyword", "user", `"user"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := handler.QuoteIdentifier(tt.in); got != tt.want {
				t.Errorf("QuoteIdentifier() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPostgresPlaceholders(t *testing.T) {
	handler := postgresHandler{}
	assert.Equal(t, "$1", handler.Placeholder(1))
	assert.Equal(t, "$12", handler.Placeholder(12))
}

func TestPostgresSchema(t *testing.T) {
	stmts := database.CreateTableStatements(postgresHandler{})
	require.Len(t, stmts, 3)
	assert.Equal(t,
		`CREATE TABLE IF NOT EXISTS "run_progress" ("run_id" VARCHAR(64) NOT NULL, "percent" INTEGER NOT NULL, "updated_at" TIMESTAMPTZ NOT NULL, PRIMARY KEY ("run_id"))`,
		stmts[0])
	assert.Contains(t, stmts[1], `"temperature" DOUBLE PRECISION NOT NULL`)
	assert.Contains(t, stmts[2], `"completeness_explanation" TEXT, PRIMARY KEY`)
}

func TestPostgresPublishUpsert(t *testing.T) {
	db, mock := newMockPostgresDB(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "run_progress" ("run_id", "percent", "updated_at") VALUES ($1, $2, $3) ON CONFLICT ("run_id") DO UPDATE SET "percent" = EXCLUDED."percent"`)).
		WithArgs("run-1", 50, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, db.Publish(context.Background(), "run-1", 50))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRegistered(t *testing.T) {
	for _, dialect := range []string{"postgres", "cloudsqlpostgres"} {
		handler, err := database.GetDialectHandler(dialect)
		require.NoError(t, err)
		assert.IsType(t, postgresHandler{}, handler)
	}
}

func TestPostgresCreateStandardPool(t *testing.T) {
	pool, err := postgresHandler{}.CreateStandardPool(config.DatabaseConfig{
		Host: "localhost", Port: 5432, User: "u", Password: "p", DBName: "d", SSLMode: "disable",
	})
	require.NoError(t, err)
	assert.NotNil(t, pool)
	pool.Close()
}
