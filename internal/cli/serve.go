package cli

import (
	"github.com/spf13/cobra"

	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/app"
	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/pkg/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API until SIGINT or SIGTERM",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadWith(cmd.Context(), envLookuper)
		if err != nil {
			return err
		}
		application, err := app.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		return application.Run()
	},
}
