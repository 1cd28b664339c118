package commands

import (
	"log/slog"

	"github.com/codegouvfr/sill-sync/internal/database"
	"github.com/codegouvfr/sill-sync/internal/shared"
	"github.com/spf13/cobra"
)

func NewMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := shared.DatabaseFactory()
			if err != nil {
				return err
			}

			slog.Info("running database migrations...")
			if err := database.RunMigrationsWithDB(db); err != nil {
				return err
			}
			slog.Info("migrations done")
			return nil
		},
	}
}
