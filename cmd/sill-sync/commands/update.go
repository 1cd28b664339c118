package commands

import (
	"log/slog"

	"github.com/codegouvfr/sill-sync/internal/core/externaldata"
	"github.com/codegouvfr/sill-sync/internal/database/repositories"
	"github.com/codegouvfr/sill-sync/internal/shared"
	"github.com/spf13/cobra"
)

func NewUpdateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Refresh external data for all stale softwares",
		Long:  "Fetches metadata from the external registries (Wikidata, HAL, CNLL, Comptoir du Libre, GitHub, GitLab) for every referenced software whose last fetch is older than the staleness threshold.",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := shared.DatabaseFactory()
			if err != nil {
				return err
			}

			updater := externaldata.NewUpdater(
				repositories.NewSoftwareRepository(db),
				buildOrchestrator(db),
			)

			count, err := updater.Run(cmd.Context())
			if err != nil {
				return err
			}
			slog.Info("update finished", "softwares", count)
			return nil
		},
	}
}
