package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete records older than the configured retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		st, err := openStore(cfg)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		deleted, err := st.Cleanup(cfg.Database.RetentionDays)
		if err != nil {
			return fmt.Errorf("cleanup: %w", err)
		}
		fmt.Printf("deleted %d records older than %d days\n", deleted, cfg.Database.RetentionDays)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}
