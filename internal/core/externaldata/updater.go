package externaldata

import (
	"context"
	"log/slog"
	"time"
)

// StalenessThreshold is the minimum age of lastExtraDataFetchAt before a
// software is eligible for re-enrichment.
const StalenessThreshold = 3 * time.Hour

// Updater drives one batch run: every referenced software overdue for a
// refresh is handed to the orchestrator, strictly sequentially to respect
// the unauthenticated third-party rate limits. A crash mid-run just leaves
// some softwares stale until the next scheduled run.
type Updater struct {
	softwares    softwareRepository
	orchestrator *Orchestrator
	staleness    time.Duration
}

func NewUpdater(softwares softwareRepository, orchestrator *Orchestrator) *Updater {
	return &Updater{
		softwares:    softwares,
		orchestrator: orchestrator,
		staleness:    StalenessThreshold,
	}
}

// Run returns the number of softwares processed, including the ones whose
// enrichment failed and was skipped.
func (u *Updater) Run(ctx context.Context) (int, error) {
	u.orchestrator.gateways.Clear()
	u.orchestrator.comptoir.Clear()
	u.orchestrator.cnll.Clear()

	softwares, err := u.softwares.GetAllStale(u.staleness)
	if err != nil {
		return 0, err
	}

	slog.Info("starting extra data update", "count", len(softwares))
	start := time.Now()

	for _, software := range softwares {
		if err := ctx.Err(); err != nil {
			return len(softwares), err
		}

		if err := u.orchestrator.FetchAndSaveSoftwareExtraData(ctx, software.ID); err != nil {
			// one bad actor degrades coverage, not availability of the batch
			slog.Error("could not update software extra data", "softwareId", software.ID, "name", software.Name, "err", err)
			continue
		}
	}

	slog.Info("extra data update done", "count", len(softwares), "duration", time.Since(start))
	return len(softwares), nil
}
