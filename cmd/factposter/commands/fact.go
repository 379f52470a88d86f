package commands

import (
	"encoding/json"

	"factposter/internal/fetcher"

	"github.com/spf13/cobra"
)

var factCmd = &cobra.Command{
	Use:   "fact",
	Short: "Fetch one fact and print it as JSON without publishing.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		fact, err := fetcher.New(cfg.FactAPIURL, cfg.FetchTimeoutDuration()).FetchFact(cmd.Context())
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(fact)
	},
}

func init() {
	rootCmd.AddCommand(factCmd)
}
