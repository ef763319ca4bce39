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
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load.
const EnvPrefix = "SQLDOC"

// Config holds all configuration for the application
type Config struct {
	Database    DatabaseConfig `mapstructure:"database"`
	Generation  ModelConfig    `mapstructure:"generation"`
	Evaluation  ModelConfig    `mapstructure:"evaluation"`
	Gateway     GatewayConfig  `mapstructure:"gateway"`
	Run         RunConfig      `mapstructure:"run"`
	Logging     LoggingConfig  `mapstructure:"logging"`
	Progress    ProgressConfig `mapstructure:"progress"`
	MetricsAddr string         `mapstructure:"metrics_addr"`
}

// DatabaseConfig holds database connection configuration for the run store.
// An empty Dialect disables the store.
type DatabaseConfig struct {
	Dialect                        string `mapstructure:"dialect"`
	Host                           string `mapstructure:"host"`
	Port                           int    `mapstructure:"port"`
	User                           string `mapstructure:"user"`
	Password                       string `mapstructure:"password"`
	DBName                         string `mapstructure:"name"`
	SSLMode                        string `mapstructure:"sslmode"`
	CloudSQLInstanceConnectionName string `mapstructure:"cloudsql_instance_connection_name"`
	UsePrivateIP                   bool   `mapstructure:"use_private_ip"`
}

// ModelConfig selects the provider and model for one role (generation or evaluation).
type ModelConfig struct {
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`
}

// GatewayConfig holds the per-call limits applied by the model gateway.
type GatewayConfig struct {
	Timeout               time.Duration `mapstructure:"timeout"`
	MinInterval           time.Duration `mapstructure:"min_interval"`
	GenerationMaxTokens   int64         `mapstructure:"generation_max_tokens"`
	EvaluationMaxTokens   int64         `mapstructure:"evaluation_max_tokens"`
	EvaluationTemperature float64       `mapstructure:"evaluation_temperature"`
}

// RunConfig holds the options of a single pipeline run.
type RunConfig struct {
	Temperatures []float64 `mapstructure:"temperatures"`
	Workers      int       `mapstructure:"workers"`
	Format       string    `mapstructure:"format"`
	OutputDir    string    `mapstructure:"output_dir"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

type ProgressConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

var globalConfig *Config

// GetConfig returns the configuration installed with SetConfig, or the defaults if none was.
func GetConfig() *Config {
	if globalConfig != nil {
		return globalConfig
	}
	return Default()
}

// SetConfig sets the global configuration.
func SetConfig(cfg *Config) {
	globalConfig = cfg
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			SSLMode: "disable",
		},
		Generation: ModelConfig{
			Provider: "anthropic",
			Model:    "claude-3-7-sonnet-20250219",
		},
		Evaluation: ModelConfig{
			Provider: "openai",
			Model:    "gpt-4o",
		},
		Gateway: GatewayConfig{
			Timeout:               120 * time.Second,
			MinInterval:           500 * time.Millisecond,
			GenerationMaxTokens:   4096,
			EvaluationMaxTokens:   512,
			EvaluationTemperature: 0,
		},
		Run: RunConfig{
			Temperatures: []float64{0.1},
			Workers:      1,
			Format:       "xlsx",
			OutputDir:    ".",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Progress: ProgressConfig{
			TTL: time.Hour,
		},
	}
}

// SetDefaults registers every default value on v so that environment variables and
// config file keys are recognised by Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("database.dialect", d.Database.Dialect)
	v.SetDefault("database.host", d.Database.Host)
	v.SetDefault("database.port", d.Database.Port)
	v.SetDefault("database.user", d.Database.User)
	v.SetDefault("database.password", d.Database.Password)
	v.SetDefault("database.name", d.Database.DBName)
	v.SetDefault("database.sslmode", d.Database.SSLMode)
	v.SetDefault("database.cloudsql_instance_connection_name", d.Database.CloudSQLInstanceConnectionName)
	v.SetDefault("database.use_private_ip", d.Database.UsePrivateIP)

	for role, m := range map[string]ModelConfig{"generation": d.Generation, "evaluation": d.Evaluation} {
		v.SetDefault(role+".provider", m.Provider)
		v.SetDefault(role+".model", m.Model)
		v.SetDefault(role+".api_key", m.APIKey)
		v.SetDefault(role+".base_url", m.BaseURL)
	}

	v.SetDefault("gateway.timeout", d.Gateway.Timeout)
	v.SetDefault("gateway.min_interval", d.Gateway.MinInterval)
	v.SetDefault("gateway.generation_max_tokens", d.Gateway.GenerationMaxTokens)
	v.SetDefault("gateway.evaluation_max_tokens", d.Gateway.EvaluationMaxTokens)
	v.SetDefault("gateway.evaluation_temperature", d.Gateway.EvaluationTemperature)

	v.SetDefault("run.temperatures", d.Run.Temperatures)
	v.SetDefault("run.workers", d.Run.Workers)
	v.SetDefault("run.format", d.Run.Format)
	v.SetDefault("run.output_dir", d.Run.OutputDir)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.json", d.Logging.JSON)
	v.SetDefault("progress.ttl", d.Progress.TTL)
	v.SetDefault("metrics_addr", d.MetricsAddr)
}

// NewViper returns a viper instance with defaults registered and SQLDOC_ environment
// variables bound, e.g. SQLDOC_GENERATION_MODEL for generation.model.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional config file and decodes v into a validated Config.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values the pipeline cannot run without.
func (c *Config) Validate() error {
	if len(c.Run.Temperatures) == 0 {
		return fmt.Errorf("at least one generation temperature is required")
	}
	if c.Run.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Run.Workers)
	}
	switch c.Run.Format {
	case "xlsx", "csv":
	default:
		return fmt.Errorf("unsupported output format %q (want xlsx or csv)", c.Run.Format)
	}
	for role, m := range map[string]ModelConfig{"generation": c.Generation, "evaluation": c.Evaluation} {
		switch m.Provider {
		case "anthropic", "openai", "gemini":
		default:
			return fmt.Errorf("unsupported %s provider %q", role, m.Provider)
		}
	}
	if c.Gateway.Timeout <= 0 {
		return fmt.Errorf("gateway timeout must be positive")
	}
	return nil
}
