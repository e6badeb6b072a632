package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	apiURL     string
)

var rootCmd = &cobra.Command{
	Use:   "pawtrail",
	Short: "PawTrail is a dog-walk tracker client",
	Long: `Command-line client for the PawTrail walk-tracker backend: sign in,
inspect the current session, and push locally buffered guest walks to an
account.`,
	SilenceUsage: true,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default ~/.pawtrail/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "backend base URL (overrides config)")
}
