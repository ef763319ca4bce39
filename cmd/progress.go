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
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var progressCmd = &cobra.Command{
	Use:     "progress",
	Short:   "Show the completion percentage of a run",
	Long:    `Reads the last published completion percentage of a run from the run store.`,
	Example: `./sql_doc_translator progress --run-id 3f2c... --dialect postgres --host localhost --username user --password pass --database docs`,
	RunE:    runProgress,
}

func runProgress(cmd *cobra.Command, args []string) error {
	runID, _ := cmd.Flags().GetString("run-id")
	zap.S().Debugf("Starting progress operation for run %s", runID)

	ctx := cmd.Context()
	db, err := setupDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	percent, ok, err := db.Query(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to read progress: %w", err)
	}
	if !ok {
		fmt.Fprintf(cmd.OutOrStdout(), "Run %s: unknown\n", runID)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Run %s: %d%%\n", runID, percent)
	return nil
}

func init() {
	progressCmd.Flags().String("run-id", "", "Run identifier - MANDATORY")
	_ = progressCmd.MarkFlagRequired("run-id")
}
