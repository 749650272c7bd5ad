package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"
	"github.com/yeremiapane/table-reservations/services"
)

func newTickCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "tick",
		Short: "Run one table status pass and print its result",
		Long: "Runs the status scheduler once, e.g. from an external cron. " +
			"Tables whose next reservation starts within the lead window become reserved.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*configPath, false)
			if err != nil {
				return err
			}
			defer a.close()

			opts, cleanup, err := a.engineOptions(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer cleanup()

			engine, err := services.NewEngine(a.store, opts)
			if err != nil {
				return err
			}
			result, err := engine.Scheduler.RunPass(cmd.Context())
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
}
