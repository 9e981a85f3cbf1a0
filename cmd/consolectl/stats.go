package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"operator-console/internal/repositories"
	"operator-console/internal/services"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Сводка по журналу обслуженных звонков (JSON)",
	RunE: func(cmd *cobra.Command, args []string) error {
		pool, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer pool.Close()

		journal := services.NewJournalService(repositories.NewServicedCallRepository(pool), logger)
		stats, err := journal.Stats(cmd.Context())
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	},
}
