package commands

import (
	"os"

	"github.com/codegouvfr/sill-sync/internal/core/externaldata"
	"github.com/codegouvfr/sill-sync/internal/database/repositories"
	"github.com/codegouvfr/sill-sync/internal/shared"
)

// buildOrchestrator wires the gateway registry and repositories the way the
// cron entrypoints consume them.
func buildOrchestrator(db shared.DB) *externaldata.Orchestrator {
	comptoir := externaldata.NewComptoirClient()
	cnll := externaldata.NewCnllClient()
	github := externaldata.NewGithubGateway(os.Getenv("GITHUB_TOKEN"))

	registry := externaldata.NewRegistry(
		externaldata.NewWikidataGateway(),
		externaldata.NewHalGateway(externaldata.NewCrossRefClient()),
		externaldata.NewCnllGateway(cnll),
		externaldata.NewComptoirGateway(comptoir),
		github,
		externaldata.NewGitlabGateway(os.Getenv("GITLAB_TOKEN")),
	)

	return externaldata.NewOrchestrator(
		repositories.NewSoftwareRepository(db),
		repositories.NewSourceRepository(db),
		repositories.NewSoftwareExternalDataRepository(db),
		repositories.NewOtherSoftwareExtraDataRepository(db),
		registry,
		comptoir,
		cnll,
		github,
	)
}
