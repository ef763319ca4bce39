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

	"github.com/GoogleCloudPlatform/sql-doc-translator/internal/utils"
)

var deleteRunCmd = &cobra.Command{
	Use:     "delete-run",
	Short:   "Delete the stored progress and result tables of a run",
	Long:    `Removes every row the run store holds for a run: its progress entry, its translation rows and its evaluation rows.`,
	Example: `./sql_doc_translator delete-run --run-id 3f2c... --dialect cloudsqlpostgres --username user --password pass --database docs --cloudsql-instance-connection-name my-project:my-region:my-instance`,
	RunE:    runDeleteRun,
}

func runDeleteRun(cmd *cobra.Command, args []string) error {
	runID, _ := cmd.Flags().GetString("run-id")
	yes, _ := cmd.Flags().GetBool("yes")

	ctx := cmd.Context()
	db, err := setupDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if !yes && !utils.ConfirmAction(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("delete all stored rows of run %s", runID)) {
		zap.S().Info("Run deletion aborted by user.")
		return nil
	}

	n, err := db.DeleteRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to delete run %s: %w", runID, err)
	}
	zap.S().Infof("Deleted %d row(s) of run %s.", n, runID)
	return nil
}

func init() {
	deleteRunCmd.Flags().String("run-id", "", "Run identifier - MANDATORY")
	deleteRunCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
	_ = deleteRunCmd.MarkFlagRequired("run-id")
}
