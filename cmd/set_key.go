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
	"bufio"
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/GoogleCloudPlatform/sql-doc-translator/internal/genai"
	"github.com/GoogleCloudPlatform/sql-doc-translator/internal/keychain"
)

var setKeyCmd = &cobra.Command{
	Use:       "set-key <provider>",
	Short:     "Store a provider API key in the OS keyring",
	Long:      `Stores the API key of a model provider (anthropic, openai or gemini) in the OS keyring so it does not have to be passed on every run. The key is read from standard input.`,
	Example:   `echo "$ANTHROPIC_API_KEY" | ./sql_doc_translator set-key anthropic`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{genai.ProviderAnthropic, genai.ProviderOpenAI, genai.ProviderGemini},
	RunE:      runSetKey,
}

// keyStore is replaced in tests.
var keyStore = func() (apiKeyStore, error) { return keychain.NewManager() }

type apiKeyStore interface {
	SetAPIKey(provider, key string) error
	DeleteAPIKey(provider string) error
}

func runSetKey(cmd *cobra.Command, args []string) error {
	provider := strings.ToLower(strings.TrimSpace(args[0]))
	if _, ok := providerEnvVars[provider]; !ok {
		return fmt.Errorf("unsupported model provider: %q", provider)
	}

	store, err := keyStore()
	if err != nil {
		return err
	}

	if remove, _ := cmd.Flags().GetBool("delete"); remove {
		if err := store.DeleteAPIKey(provider); err != nil {
			return fmt.Errorf("failed to delete %s API key: %w", provider, err)
		}
		pterm.Success.Printfln("Removed the %s API key from the OS keyring.", provider)
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Enter the %s API key: ", provider)
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	key := strings.TrimSpace(line)
	if key == "" {
		return fmt.Errorf("no API key given")
	}
	if err := store.SetAPIKey(provider, key); err != nil {
		return fmt.Errorf("failed to store %s API key: %w", provider, err)
	}
	pterm.Success.Printfln("Stored the %s API key in the OS keyring.", provider)
	return nil
}

func init() {
	setKeyCmd.Flags().Bool("delete", false, "Remove the stored key instead of setting it")
}
