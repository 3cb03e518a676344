package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/verba/internal/config"
	"github.com/abhisek/verba/internal/store"
)

var rootCmd = &cobra.Command{
	Use:           "verba",
	Short:         "AI English tutor backend",
	Long:          "Verba serves the onboarding chat and lesson API of an AI English tutor.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides VERBA_DB env var)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(conversationCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads --config and env overrides, then resolves the SQLite
// path using --db (highest priority), then VERBA_DB, then the XDG default.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if cfg.Database.Driver != "" && cfg.Database.Driver != "sqlite" {
		return cfg, nil
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.Database.DSN = p
		return cfg, store.EnsureDir(p)
	}
	if cfg.Database.DSN == "" {
		p, err := store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve database path: %w", err)
		}
		cfg.Database.DSN = p
	}
	return cfg, nil
}

// openStore loads the config and opens the database for one-shot commands.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	s, err := store.Open(cmd.Context(), cfg.Database, nil)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}
