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
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GoogleCloudPlatform/sql-doc-translator/internal/config"
	"github.com/GoogleCloudPlatform/sql-doc-translator/internal/genai"
	"github.com/GoogleCloudPlatform/sql-doc-translator/internal/observability"
	"github.com/GoogleCloudPlatform/sql-doc-translator/internal/progress"
	"github.com/GoogleCloudPlatform/sql-doc-translator/internal/tabular"
	"github.com/GoogleCloudPlatform/sql-doc-translator/internal/translator"
	"github.com/GoogleCloudPlatform/sql-doc-translator/internal/utils"
)

// translateCmd represents the translate command
var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate SQL fragments into business documentation and evaluate each translation",
	Long: `Reads SQL fragments (and optionally one instruction per fragment), asks the generation
model for an Objective / Business Rules / Execution Steps description of every fragment at
each temperature, asks the judge model to score every section, and writes the translation
and analysis tables.`,
	Example: `./sql_doc_translator translate --sql ./queries.xlsx --out-dir ./out --temperatures 0.1,0.5 --bundle`,
	RunE:    runTranslate,
}

func runTranslate(cmd *cobra.Command, args []string) error {
	cfg := config.GetConfig()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := applyRunFlags(cmd, cfg); err != nil {
		return err
	}

	sqlPath, _ := cmd.Flags().GetString("sql")
	promptPath, _ := cmd.Flags().GetString("prompts")
	instructionFile, _ := cmd.Flags().GetString("instruction-file")

	instruction, err := utils.ReadInstructionFile(instructionFile)
	if err != nil {
		return err
	}
	if instruction == "" {
		instruction = translator.DefaultInstruction
	}
	sqls, instructions, err := tabular.ReadInputs(sqlPath, promptPath, instruction)
	if err != nil {
		return fmt.Errorf("failed to read inputs: %w", err)
	}

	runID, _ := cmd.Flags().GetString("run-id")
	if runID == "" {
		runID = uuid.NewString()
	}
	zap.S().Infof("Starting translate run %s: %d fragment(s) from %s", runID, len(sqls), sqlPath)

	gw, err := setupGateway(ctx, cfg)
	if err != nil {
		return err
	}
	defer gw.Close()

	memory := progress.NewMemoryStore(cfg.Progress.TTL)
	sinks := progress.Multi{memory}
	if showBar, _ := cmd.Flags().GetBool("progress-bar"); showBar {
		sinks = append(sinks, progress.NewTerminalBar("Translating "+runID, nil))
	}

	var store interface {
		SaveResult(ctx context.Context, runID string, result *translator.Result) error
	}
	if cfg.Database.Dialect != "" {
		db, err := setupDatabase(ctx)
		if err != nil {
			return err
		}
		defer db.Close()
		sinks = append(sinks, db)
		store = db
	}

	if cfg.MetricsAddr != "" {
		metricsCtx, stopMetrics := context.WithCancel(context.Background())
		defer stopMetrics()
		observability.ServeMetrics(metricsCtx, cfg.MetricsAddr)
	}

	driver := translator.NewDriver(gw, sinks, translator.DriverConfig{
		Temperatures: cfg.Run.Temperatures,
		Workers:      cfg.Run.Workers,
	})
	result, runErr := driver.Run(ctx, runID, sqls, instructions)

	var precondition *translator.ErrPrecondition
	if errors.As(runErr, &precondition) {
		return runErr
	}
	if result == nil {
		return runErr
	}

	// Partial results of a cancelled run are still written.
	writeCtx := context.WithoutCancel(ctx)
	if err := writeOutputs(cmd, cfg, runID, sqls, result); err != nil {
		return err
	}
	if store != nil {
		if err := store.SaveResult(writeCtx, runID, result); err != nil {
			return fmt.Errorf("failed to save results to the run store: %w", err)
		}
	}

	if pct, ok, _ := memory.Query(writeCtx, runID); ok {
		zap.S().Infof("Run %s finished at %d%%", runID, pct)
	}
	if runErr != nil {
		return runErr
	}
	zap.S().Info("Translate operation completed.")
	return nil
}

// applyRunFlags overrides the run options with the flags given on the command line.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("temperatures") {
		raw, _ := cmd.Flags().GetString("temperatures")
		temps, err := utils.ParseTemperatures(raw)
		if err != nil {
			return err
		}
		cfg.Run.Temperatures = temps
	}
	if cmd.Flags().Changed("workers") {
		workers, _ := cmd.Flags().GetInt("workers")
		cfg.Run.Workers = workers
	}
	if cmd.Flags().Changed("format") {
		format, _ := cmd.Flags().GetString("format")
		cfg.Run.Format = strings.ToLower(format)
	}
	if cmd.Flags().Changed("out-dir") {
		cfg.Run.OutputDir, _ = cmd.Flags().GetString("out-dir")
	}
	return cfg.Validate()
}

func setupGateway(ctx context.Context, cfg *config.Config) (*genai.ModelGateway, error) {
	newCompleter := func(role string, m config.ModelConfig) (genai.Completer, error) {
		c, err := genai.NewCompleter(ctx, genai.ProviderConfig{
			Provider: m.Provider,
			APIKey:   m.APIKey,
			Model:    m.Model,
			BaseURL:  m.BaseURL,
			Timeout:  cfg.Gateway.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create %s model client: %w", role, err)
		}
		if kv, ok := c.(genai.KeyValidator); ok {
			if err := kv.IsAPIKeyValid(ctx); err != nil {
				c.Close()
				return nil, fmt.Errorf("%s API key is invalid: %w", role, err)
			}
		}
		return c, nil
	}

	generator, err := newCompleter("generation", cfg.Generation)
	if err != nil {
		return nil, err
	}
	judge, err := newCompleter("evaluation", cfg.Evaluation)
	if err != nil {
		generator.Close()
		return nil, err
	}

	return genai.NewGateway(generator, judge, genai.GatewayOptions{
		GenerationMaxTokens:   cfg.Gateway.GenerationMaxTokens,
		EvaluationMaxTokens:   cfg.Gateway.EvaluationMaxTokens,
		EvaluationTemperature: cfg.Gateway.EvaluationTemperature,
		Timeout:               cfg.Gateway.Timeout,
		MinInterval:           cfg.Gateway.MinInterval,
	}), nil
}

func writeOutputs(cmd *cobra.Command, cfg *config.Config, runID string, sqls []string, result *translator.Result) error {
	out, err := tabular.WriteResult(cfg.Run.OutputDir, cfg.Run.Format, runID, result)
	if err != nil {
		return err
	}
	zap.S().Infof("Translation table written to: %s", out.Translation)
	zap.S().Infof("Analysis table written to: %s", out.Analysis)

	if bundle, _ := cmd.Flags().GetBool("bundle"); bundle {
		path := utils.GetDefaultOutputFilePath(cfg.Run.OutputDir, runID, "bundle", cfg.Run.Format)
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create bundle: %w", err)
		}
		if err := tabular.WriteBundle(file, result); err != nil {
			file.Close()
			return err
		}
		if err := file.Close(); err != nil {
			return fmt.Errorf("failed to write bundle: %w", err)
		}
		zap.S().Infof("Result bundle written to: %s", path)
	}

	if listing, _ := cmd.Flags().GetBool("listing"); listing {
		path := utils.GetDefaultOutputFilePath(cfg.Run.OutputDir, runID, "listing", cfg.Run.Format)
		if err := os.WriteFile(path, []byte(tabular.NumberedListing(strings.Join(sqls, "\n"))+"\n"), 0o644); err != nil {
			return fmt.Errorf("failed to write code listing: %w", err)
		}
		zap.S().Infof("Numbered code listing written to: %s", path)
	}
	return nil
}

func init() {
	d := config.Default()
	translateCmd.Flags().String("sql", "", "Input with one SQL fragment per row (.xlsx or .csv with a sql_code column, or a .sql file) - MANDATORY")
	translateCmd.Flags().String("prompts", "", "Input with one instruction per fragment (.xlsx or .csv with a prompt column)")
	translateCmd.Flags().String("instruction-file", "", "Text file with the instruction used for every fragment when --prompts is not given")
	translateCmd.Flags().String("temperatures", "0.1", "Comma-separated generation temperatures")
	translateCmd.Flags().Int("workers", d.Run.Workers, "Number of fragments processed concurrently")
	translateCmd.Flags().String("format", d.Run.Format, "Output table format (xlsx or csv)")
	translateCmd.Flags().StringP("out-dir", "o", d.Run.OutputDir, "Directory for the output tables")
	translateCmd.Flags().String("run-id", "", "Identifier of this run (defaults to a random UUID)")
	translateCmd.Flags().Bool("bundle", false, "Also write <run-id>.zip with translation.xlsx and analysis.xlsx")
	translateCmd.Flags().Bool("listing", false, "Also write a line-numbered listing of the submitted SQL")
	translateCmd.Flags().Bool("progress-bar", true, "Show a progress bar in the terminal")
	_ = translateCmd.MarkFlagRequired("sql")
}
