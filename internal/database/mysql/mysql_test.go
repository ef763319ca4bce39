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
package mysql

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

func newMockMySQLDB(t *testing.T) (*database.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDb, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDb.Close() })
	return &database.DB{Pool: mockDb, Handler: mysqlHandler{}, Config: config.DatabaseConfig{Dialect: "mysql"}}, mock
}

func TestMySQLQuoteIdentifier(t *testing.T) {
	handler := mysqlHandler{}
	assert.Equal(t, "`orders`", handler.QuoteIdentifier("orders"))
	assert.Equal(t, "`my``table`", handler.QuoteIdentifier("my`table"))
	assert.Equal(t, "?", handler.Placeholder(3))
}

func TestMySQLSchema(t *testing.T) {
	stmts := database.CreateTableStatements(mysqlHandler{})
	require.Len(t, stmts, 3)
	assert.Equal(t,
		"CREATE TABLE IF NOT EXISTS `run_progress` (`run_id` VARCHAR(64) NOT NULL, `percent` INT NOT NULL, `updated_at` DATETIME(6) NOT NULL, PRIMARY KEY (`run_id`))",
		stmts[0])
	assert.Contains(t, stmts[1], "`content` LONGTEXT NOT NULL")
}

func TestMySQLPublishUpsert(t *testing.T) {
	db, mock := newMockMySQLDB(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `run_progress` (`run_id`, `percent`, `updated_at`) VALUES (?, ?, ?) ON DUPLICATE KEY UPDATE")).
		WithArgs("run-1", 100, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, db.Publish(context.Background(), "run-1", 100))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLQueryUsesQuestionMark(t *testing.T) {
	db, mock := newMockMySQLDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT `percent` FROM `run_progress` WHERE `run_id` = ?")).
		WithArgs("run-1").
		WillReturnRows(sqlmock.NewRows([]string{"percent"}).AddRow(25))

	got, ok, err := db.Query(context.Background(), "run-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 25, got)
}

func TestMySQLCloudSQLPoolRequiresParameters(t *testing.T) {
	_, err := mysqlHandler{}.CreateCloudSQLPool(config.DatabaseConfig{User: "u"})
	assert.ErrorContains(t, err, "missing required CloudSQL connection parameter")
}

func TestMySQLRegistered(t *testing.T) {
	for _, dialect := range []string{"mysql", "cloudsqlmysql"} {
		handler, err := database.GetDialectHandler(dialect)
		require.NoError(t, err)
		assert.IsType(t, mysqlHandler{}, handler)
	}
}
