package commands

import (
	"github.com/codegouvfr/sill-sync/internal/core/catalog"
	"github.com/codegouvfr/sill-sync/internal/database/repositories"
	"github.com/codegouvfr/sill-sync/internal/shared"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
)

func NewAPICommand() *cobra.Command {
	var listenAddr string

	cmd := &cobra.Command{
		Use:   "api",
		Short: "Serve the read-only catalog API",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := shared.DatabaseFactory()
			if err != nil {
				return err
			}

			e := echo.New()
			e.Use(middleware.Logger())
			e.Use(middleware.Recover())
			e.Use(middleware.CORS())
			e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
				Generator: uuid.NewString,
			}))

			controller := catalog.NewController(
				repositories.NewSoftwareRepository(db),
				repositories.NewSourceRepository(db),
				repositories.NewSoftwareExternalDataRepository(db),
				repositories.NewOtherSoftwareExtraDataRepository(db),
			)
			controller.Register(e)

			return e.Start(listenAddr)
		},
	}

	cmd.Flags().StringVar(&listenAddr, "listen", ":8080", "address the API listens on")
	return cmd
}
