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
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GoogleCloudPlatform/sql-doc-translator/internal/config"
	"github.com/GoogleCloudPlatform/sql-doc-translator/internal/database"
	_ "github.com/GoogleCloudPlatform/sql-doc-translator/internal/database/mysql"
	_ "github.com/GoogleCloudPlatform/sql-doc-translator/internal/database/postgres"
	_ "github.com/GoogleCloudPlatform/sql-doc-translator/internal/database/sqlserver"
	"github.com/GoogleCloudPlatform/sql-doc-translator/internal/genai"
	"github.com/GoogleCloudPlatform/sql-doc-translator/internal/keychain"
	"github.com/GoogleCloudPlatform/sql-doc-translator/internal/observability"
)

var (
	cfgFile     string
	v           = config.NewViper()
	flushLogger = func() {}

	supportedDialects = []string{"postgres", "cloudsqlpostgres", "mysql", "cloudsqlmysql", "sqlserver", "cloudsqlsqlserver"}

	// providerEnvVars are consulted when no API key was given by flag, config file or SQLDOC_ variable.
	providerEnvVars = map[string]string{
		genai.ProviderAnthropic: "ANTHROPIC_API_KEY",
		genai.ProviderOpenAI:    "OPENAI_API_KEY",
		genai.ProviderGemini:    "GEMINI_API_KEY",
	}

	// openKeyring is replaced in tests.
	openKeyring = func() (apiKeyLookup, error) { return keychain.NewManager() }
)

type apiKeyLookup interface {
	APIKey(provider string) (string, error)
}

var rootCmd = &cobra.Command{
	Use:   "sql_doc_translator",
	Short: "Translate SQL into business documentation and score the translations",
	Long: `sql_doc_translator turns SQL code into plain-English business documentation
(Objective, Business Rules, Execution Steps) with a generation model, then asks a
judge model to score every section as Accurate, Concise and Complete.`,
	PersistentPreRunE: initFlagsAndConfig,
	PersistentPostRun: func(cmd *cobra.Command, args []string) { flushLogger() },
	SilenceUsage:      true,
}

// initFlagsAndConfig loads configuration from defaults, the config file, SQLDOC_
// environment variables and flags, installs the logger and resolves API keys.
func initFlagsAndConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}

	flush, err := observability.Install(cfg.Logging.Level, cfg.Logging.JSON)
	if err != nil {
		return err
	}
	flushLogger = flush

	if cmd != nil && cmd.Name() != "set-key" {
		var ring apiKeyLookup
		lookup := func() apiKeyLookup {
			if ring == nil {
				r, err := openKeyring()
				if err != nil {
					zap.S().Debugf("OS keyring unavailable: %v", err)
					return nil
				}
				ring = r
			}
			return ring
		}
		cfg.Generation.APIKey = resolveAPIKey(cfg.Generation, lookup)
		cfg.Evaluation.APIKey = resolveAPIKey(cfg.Evaluation, lookup)
	}

	config.SetConfig(cfg)
	return nil
}

// resolveAPIKey returns the configured key, else the provider's environment variable,
// else the key stored in the OS keyring.
func resolveAPIKey(m config.ModelConfig, keyring func() apiKeyLookup) string {
	if m.APIKey != "" {
		return m.APIKey
	}
	provider := strings.ToLower(m.Provider)
	if key := os.Getenv(providerEnvVars[provider]); key != "" {
		return key
	}
	if ring := keyring(); ring != nil {
		key, err := ring.APIKey(provider)
		if err == nil {
			return key
		}
		if !errors.Is(err, keychain.ErrNotFound) {
			zap.S().Warnf("Could not read %s API key from keyring: %v", provider, err)
		}
	}
	return ""
}

func validateDialect(dialect string) error {
	for _, supportedDialect := range supportedDialects {
		if dialect == supportedDialect {
			return nil
		}
	}
	return fmt.Errorf("unsupported dialect: %q (only %s are supported)", dialect, strings.Join(supportedDialects, ", "))
}

// setupDatabase connects to the run store and creates its tables.
func setupDatabase(ctx context.Context) (*database.DB, error) {
	dbConfig := config.GetConfig().Database
	if err := validateDialect(dbConfig.Dialect); err != nil {
		return nil, err
	}
	db, err := database.New(ctx, dbConfig)
	if err != nil {
		zap.S().Errorf("Failed to connect to database: %v", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare run store tables: %w", err)
	}
	return db, nil
}

// Execute adds all child commands to the root command and runs it until completion or
// until the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func bindFlag(key, flag string) {
	if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", flag, err))
	}
}

func init() {
	d := config.Default()
	pf := rootCmd.PersistentFlags()

	pf.StringVar(&cfgFile, "config", "", "Path to a YAML/JSON/TOML config file")

	// Run store connection flags
	pf.String("dialect", "", fmt.Sprintf("Run store database dialect (%s). Empty disables the store", strings.Join(supportedDialects, ", ")))
	pf.String("host", d.Database.Host, "Database host")
	pf.Int("port", d.Database.Port, "Database port")
	pf.String("username", "", "Database username")
	pf.String("password", "", "Database password")
	pf.String("database", "", "Database name")
	pf.String("sslmode", d.Database.SSLMode, "PostgreSQL sslmode")
	pf.String("cloudsql-instance-connection-name", "", "Cloud SQL instance connection name (for Cloud SQL dialects)")
	pf.Bool("cloudsql-use-private-ip", false, "Use private IP for Cloud SQL connection (Cloud SQL)")

	// Model flags
	for _, role := range []struct {
		name string
		m    config.ModelConfig
	}{{"generation", d.Generation}, {"evaluation", d.Evaluation}} {
		pf.String(role.name+"-provider", role.m.Provider, fmt.Sprintf("Provider of the %s model (anthropic, openai, gemini)", role.name))
		pf.String(role.name+"-model", role.m.Model, fmt.Sprintf("Model used for %s", role.name))
		pf.String(role.name+"-api-key", "", fmt.Sprintf("API key for the %s provider (falls back to the provider's environment variable, then the OS keyring)", role.name))
		pf.String(role.name+"-base-url", "", fmt.Sprintf("Override the %s provider's API endpoint", role.name))
		bindFlag(role.name+".provider", role.name+"-provider")
		bindFlag(role.name+".model", role.name+"-model")
		bindFlag(role.name+".api_key", role.name+"-api-key")
		bindFlag(role.name+".base_url", role.name+"-base-url")
	}

	// Gateway flags
	pf.Duration("timeout", d.Gateway.Timeout, "Timeout of a single model call")
	pf.Duration("min-interval", d.Gateway.MinInterval, "Minimum spacing between model calls (0 disables pacing)")

	// Ambient flags
	pf.String("log-level", d.Logging.Level, "Log level (debug, info, warn, error)")
	pf.Bool("log-json", d.Logging.JSON, "Emit JSON logs")
	pf.String("metrics-addr", "", "Serve Prometheus metrics on this address during a run (e.g. :9090)")

	for key, flag := range map[string]string{
		"database.dialect":                           "dialect",
		"database.host":                              "host",
		"database.port":                              "port",
		"database.user":                              "username",
		"database.password":                          "password",
		"database.name":                              "database",
		"database.sslmode":                           "sslmode",
		"database.cloudsql_instance_connection_name": "cloudsql-instance-connection-name",
		"database.use_private_ip":                    "cloudsql-use-private-ip",
		"gateway.timeout":                            "timeout",
		"gateway.min_interval":                       "min-interval",
		"logging.level":                              "log-level",
		"logging.json":                               "log-json",
		"metrics_addr":                               "metrics-addr",
	} {
		bindFlag(key, flag)
	}

	// Add subcommands
	rootCmd.AddCommand(translateCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(deleteRunCmd)
	rootCmd.AddCommand(setKeyCmd)
}
