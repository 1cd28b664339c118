package externaldata

import (
	"context"
	"log/slog"
	"sync"

	"github.com/codegouvfr/sill-sync/internal/database/models"
	"golang.org/x/sync/errgroup"
)

// SelfImport reconciles identifiers already present in the external-data
// rows against the source registry and backfills missing
// (sourceSlug, externalId, softwareId) linkage rows. No network calls are
// involved, so it is safe to run as often as needed and is relied upon to
// catch up linkage a partial fetch run left incomplete.
type SelfImport struct {
	sources      sourceRepository
	externalData softwareExternalDataRepository
}

func NewSelfImport(sources sourceRepository, externalData softwareExternalDataRepository) *SelfImport {
	return &SelfImport{
		sources:      sources,
		externalData: externalData,
	}
}

type registeredPair struct {
	sourceSlug string
	externalID string
}

func (s *SelfImport) Run(ctx context.Context) error {
	sources, err := s.sources.GetAll()
	if err != nil {
		return err
	}

	slugByURL := make(map[string]string, len(sources))
	for _, source := range sources {
		slugByURL[source.URL] = source.Slug
	}

	rows, err := s.externalData.GetAll()
	if err != nil {
		return err
	}

	// merged identifiers per software, plus everything already registered
	identifiersBySoftware := map[int][]models.Identifier{}
	registered := map[int]map[registeredPair]struct{}{}
	for _, row := range rows {
		if row.SoftwareID == nil {
			continue
		}
		softwareID := *row.SoftwareID

		if registered[softwareID] == nil {
			registered[softwareID] = map[registeredPair]struct{}{}
		}
		registered[softwareID][registeredPair{sourceSlug: row.SourceSlug, externalID: row.ExternalID}] = struct{}{}

		if len(row.Identifiers) == 0 {
			continue
		}
		identifiersBySoftware[softwareID] = MergeDeduplicateIdentifiers(identifiersBySoftware[softwareID], row.Identifiers)
	}

	var mu sync.Mutex
	var toInsert []models.SoftwareExternalData

	// resolution is read-only per software until the final batched insert,
	// so softwares can be resolved concurrently; identifiers within one
	// software stay sequential to avoid queueing the same pair twice
	group, _ := errgroup.WithContext(ctx)
	for softwareID, identifiers := range identifiersBySoftware {
		group.Go(func() error {
			var pending []models.SoftwareExternalData
			for _, identifier := range identifiers {
				if identifier.SubjectOf == nil {
					continue
				}
				sourceSlug, ok := slugByURL[identifier.SubjectOf.URL]
				if !ok {
					// source unknown to the registry - an accepted terminal
					// state, not an error
					continue
				}
				pair := registeredPair{sourceSlug: sourceSlug, externalID: identifier.Value}
				if _, exists := registered[softwareID][pair]; exists {
					continue
				}
				pending = append(pending, models.SoftwareExternalData{
					SourceSlug: sourceSlug,
					ExternalID: identifier.Value,
					SoftwareID: &softwareID,
				})
			}

			if len(pending) == 0 {
				return nil
			}
			mu.Lock()
			toInsert = append(toInsert, pending...)
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	if len(toInsert) == 0 {
		slog.Info("self import: nothing to register")
		return nil
	}

	slog.Info("self import: registering external ids", "count", len(toInsert))
	return s.externalData.SaveIDs(toInsert)
}
