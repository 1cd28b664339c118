package commands

import (
	"github.com/codegouvfr/sill-sync/internal/core/externaldata"
	"github.com/codegouvfr/sill-sync/internal/database/repositories"
	"github.com/codegouvfr/sill-sync/internal/shared"
	"github.com/spf13/cobra"
)

func NewImportIdentifiersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import-identifiers",
		Short: "Backfill source linkage from already-cached identifiers",
		Long:  "Reconciles the identifiers stored in software_external_datas against the source registry and inserts the missing (sourceSlug, externalId, softwareId) linkage rows. Performs no network calls.",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := shared.DatabaseFactory()
			if err != nil {
				return err
			}

			selfImport := externaldata.NewSelfImport(
				repositories.NewSourceRepository(db),
				repositories.NewSoftwareExternalDataRepository(db),
			)
			return selfImport.Run(cmd.Context())
		},
	}
}
