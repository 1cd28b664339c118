package externaldata

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/codegouvfr/sill-sync/internal/database/models"
	"github.com/codegouvfr/sill-sync/internal/database/repositories"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type softwareRepository interface {
	GetByIDWithLinkedSoftwareIDs(id int) (repositories.SoftwareWithLinkedIDs, error)
	GetAllStale(staleness time.Duration) ([]models.Software, error)
	UpdateLastExtraDataFetchAt(id int) error
}

type sourceRepository interface {
	GetAll() ([]models.Source, error)
	GetByKind(kind models.SourceKind) (models.Source, error)
	GetWikidataSource() (models.Source, error)
}

type softwareExternalDataRepository interface {
	Save(data *models.SoftwareExternalData) error
	GetAll() ([]models.SoftwareExternalData, error)
	SaveIDs(datas []models.SoftwareExternalData) error
}

type otherSoftwareExtraDataRepository interface {
	GetBySoftwareID(softwareID int) (*models.OtherSoftwareExtraData, error)
	Save(data *models.OtherSoftwareExtraData) error
}

// Orchestrator walks one software's external ids (its own, its parent's and
// the declared similar softwares'), fetches each through the gateway
// registry and persists every non-nil result. It then aggregates the
// secondary enrichment into OtherSoftwareExtraData.
type Orchestrator struct {
	softwares    softwareRepository
	sources      sourceRepository
	externalData softwareExternalDataRepository
	extraData    otherSoftwareExtraDataRepository
	gateways     *Registry
	comptoir     *ComptoirClient
	cnll         *CnllClient
	github       *GithubGateway
}

func NewOrchestrator(
	softwares softwareRepository,
	sources sourceRepository,
	externalData softwareExternalDataRepository,
	extraData otherSoftwareExtraDataRepository,
	gateways *Registry,
	comptoir *ComptoirClient,
	cnll *CnllClient,
	github *GithubGateway,
) *Orchestrator {
	return &Orchestrator{
		softwares:    softwares,
		sources:      sources,
		externalData: externalData,
		extraData:    extraData,
		gateways:     gateways,
		comptoir:     comptoir,
		cnll:         cnll,
		github:       github,
	}
}

// FetchAndSaveSoftwareExtraData refreshes everything external about one
// software. A software row deleted mid-run is a logged skip, not an error.
// Gateway failures abort the remaining steps for this software only; rows
// already saved stay, each save is independently idempotent.
func (o *Orchestrator) FetchAndSaveSoftwareExtraData(ctx context.Context, softwareID int) error {
	software, err := o.softwares.GetByIDWithLinkedSoftwareIDs(softwareID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			slog.Info("software deleted mid-run, skipping", "softwareId", softwareID)
			return nil
		}
		return err
	}

	source, err := o.sources.GetByKind(software.ExternalDataOrigin)
	if err != nil {
		return err
	}

	var ownData *models.SoftwareExternalData
	if software.ExternalID != nil {
		ownData, err = o.fetchAndSaveExternalData(ctx, *software.ExternalID, source, &softwareID)
		if err != nil {
			return err
		}
	}

	if software.ParentExternalID != nil {
		if _, err := o.fetchAndSaveExternalData(ctx, *software.ParentExternalID, source, nil); err != nil {
			return err
		}
	}

	for _, similarExternalID := range software.SimilarExternalIDs {
		if _, err := o.fetchAndSaveExternalData(ctx, similarExternalID, source, nil); err != nil {
			return err
		}
	}

	extraData := o.getOtherSoftwareExtraData(ctx, software, ownData)
	if !extraData.IsEmpty() {
		if err := o.extraData.Save(&extraData); err != nil {
			return err
		}
	}

	// staleness tracking advances even for softwares with no external presence
	return o.softwares.UpdateLastExtraDataFetchAt(softwareID)
}

func (o *Orchestrator) fetchAndSaveExternalData(ctx context.Context, externalID string, source models.Source, softwareID *int) (*models.SoftwareExternalData, error) {
	data, err := o.gateways.GetByID(ctx, externalID, source)
	if err != nil {
		return nil, err
	}
	if data == nil {
		slog.Info("no record at source", "source", source.Slug, "externalId", externalID)
		return nil, nil
	}

	if softwareID != nil {
		data.SoftwareID = softwareID
	}

	if err := o.externalData.Save(data); err != nil {
		return nil, err
	}
	return data, nil
}

// getOtherSoftwareExtraData recomputes the secondary enrichment. Service
// providers and the CNLL listing are only trustworthy when keyed by a
// wikidata id, so both stay empty for any other origin. Comptoir du Libre
// enrichment is keyed by comptoirDuLibreId independent of the origin.
// Individual upstream failures degrade coverage, never the run.
func (o *Orchestrator) getOtherSoftwareExtraData(ctx context.Context, software repositories.SoftwareWithLinkedIDs, ownData *models.SoftwareExternalData) models.OtherSoftwareExtraData {
	extraData := models.OtherSoftwareExtraData{
		SoftwareID: software.ID,
		UpdatedAt:  time.Now(),
	}

	previous, err := o.extraData.GetBySoftwareID(software.ID)
	if err != nil {
		slog.Error("could not load previous extra data", "softwareId", software.ID, "err", err)
		previous = nil
	}

	if software.ExternalDataOrigin == models.SourceKindWikidata {
		cnllProviders, err := o.cnll.GetServiceProviders(ctx, software.ID)
		if err != nil {
			slog.Error("could not fetch cnll service providers", "softwareId", software.ID, "err", err)
		} else {
			extraData.AnnuaireCnllServiceProviders = cnllProviders
			for _, provider := range cnllProviders {
				extraData.ServiceProviders = append(extraData.ServiceProviders, models.ServiceProvider{
					Name:    provider.Name,
					CnllURL: provider.URL,
					Siren:   provider.Siren,
				})
			}
		}
	}

	if software.ComptoirDuLibreID != nil {
		cdl := o.getComptoirSoftware(ctx, *software.ComptoirDuLibreID, previous)
		extraData.ComptoirDuLibreSoftware = datatypes.NewJSONType(cdl)
		if cdl != nil && software.ExternalDataOrigin == models.SourceKindWikidata {
			for _, provider := range cdl.Providers {
				extraData.ServiceProviders = append(extraData.ServiceProviders, models.ServiceProvider{
					Name:   provider.Name,
					CdlURL: provider.URL,
				})
			}
		}
	}

	if ownData != nil && ownData.SourceURL != nil {
		latestVersion, err := o.github.GetLatestRelease(ctx, *ownData.SourceURL)
		if err != nil {
			slog.Error("could not fetch latest release", "softwareId", software.ID, "err", err)
		} else if latestVersion != nil {
			extraData.LatestVersion = datatypes.NewJSONType(latestVersion)
		}
	}

	return extraData
}

// getComptoirSoftware merges the CDL export record with the scraped logo and
// keywords. When the CDL id is unchanged since the previous run, the cached
// logo and keywords are carried forward instead of re-scraping.
func (o *Orchestrator) getComptoirSoftware(ctx context.Context, comptoirID int, previous *models.OtherSoftwareExtraData) *models.ComptoirDuLibreSoftware {
	cdl, err := o.comptoir.GetSoftware(ctx, comptoirID)
	if err != nil {
		slog.Error("could not fetch comptoir du libre software", "comptoirId", comptoirID, "err", err)
		return nil
	}
	if cdl == nil {
		return nil
	}

	if previous != nil {
		if previousCdl := previous.ComptoirDuLibreSoftware.Data(); previousCdl != nil && previousCdl.ID == cdl.ID {
			cdl.LogoURL = previousCdl.LogoURL
			cdl.Keywords = previousCdl.Keywords
			return cdl
		}
	}

	logoURL, keywords, err := o.comptoir.GetLogoAndKeywords(ctx, cdl.URL)
	if err != nil {
		slog.Error("could not scrape comptoir du libre page", "comptoirId", comptoirID, "err", err)
		return cdl
	}
	cdl.LogoURL = logoURL
	cdl.Keywords = keywords
	return cdl
}
