package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <job-id> <status> [notes...]",
	Short: "Update the application status of a processed job",
	Long:  "Set a processed job's application status (applied, rejected, withdrawn, ...). Extra arguments become notes.",
	Args:  cobra.MinimumNArgs(2),
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

		jobID, status := args[0], args[1]
		notes := strings.Join(args[2:], " ")

		if err := st.UpdateApplicationStatus(jobID, status, notes); err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		fmt.Printf("job %s marked %s\n", jobID, status)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
