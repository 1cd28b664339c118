package main

import (
	"log/slog"
	"os"

	"github.com/codegouvfr/sill-sync/cmd/sill-sync/commands"
	"github.com/codegouvfr/sill-sync/internal/shared"
)

func Execute() {
	err := commands.GetRootCmd().Execute()
	if err != nil {
		slog.Error("Error executing command", "err", err)
		os.Exit(1)
	}
}

func init() {
	commands.GetRootCmd().AddCommand(commands.NewAPICommand())
	commands.GetRootCmd().AddCommand(commands.NewUpdateCommand())
	commands.GetRootCmd().AddCommand(commands.NewImportIdentifiersCommand())
	commands.GetRootCmd().AddCommand(commands.NewMigrateCommand())
}

func main() {
	shared.InitLogger()
	if err := shared.LoadConfig(); err != nil {
		slog.Debug("no .env file found", "err", err)
	}
	Execute()
}
