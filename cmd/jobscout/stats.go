package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print database statistics",
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

		stats, err := st.Statistics(cfg.JobSearch.MatchThreshold)
		if err != nil {
			return fmt.Errorf("collect statistics: %w", err)
		}

		fmt.Printf("Total jobs:        %d\n", stats.TotalJobs)
		fmt.Printf("Processed jobs:    %d\n", stats.ProcessedJobs)
		fmt.Printf("Average score:     %.1f\n", stats.AvgMatchScore)
		fmt.Printf("Above threshold:   %d (threshold %.0f)\n", stats.MatchedAboveThreshold, cfg.JobSearch.MatchThreshold)

		fmt.Println("\nJobs by source:")
		for _, k := range sortedKeys(stats.JobsBySource) {
			fmt.Printf("  %-12s %d\n", k, stats.JobsBySource[k])
		}

		fmt.Println("\nApplication status:")
		for _, k := range sortedKeys(stats.StatusBreakdown) {
			fmt.Printf("  %-12s %d\n", k, stats.StatusBreakdown[k])
		}
		return nil
	},
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
