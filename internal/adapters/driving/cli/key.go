package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/harvest-cli/internal/vault"
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the credential encryption key",
}

var keyGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new master encryption key",
	Long: `Generates a random master key for encrypting collection credentials.
Store it in the HARVEST_ENCRYPTION_KEY environment variable or under
security.encryption_key in the config file. Losing the key makes all
stored credentials unrecoverable.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		key, err := vault.GenerateKey()
		if err != nil {
			return fmt.Errorf("generating key: %w", err)
		}
		cmd.Println(key)
		return nil
	},
}

func init() {
	keyCmd.AddCommand(keyGenerateCmd)
	rootCmd.AddCommand(keyCmd)
}
