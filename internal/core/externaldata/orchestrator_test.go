package externaldata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/codegouvfr/sill-sync/internal/database/models"
	"github.com/codegouvfr/sill-sync/internal/database/repositories"
	"github.com/codegouvfr/sill-sync/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeSoftwareRepo struct {
	mu        sync.Mutex
	softwares map[int]repositories.SoftwareWithLinkedIDs
	stale     []models.Software
	getErr    map[int]error
	fetchedAt []int
}

func (f *fakeSoftwareRepo) GetByIDWithLinkedSoftwareIDs(id int) (repositories.SoftwareWithLinkedIDs, error) {
	if err := f.getErr[id]; err != nil {
		return repositories.SoftwareWithLinkedIDs{}, err
	}
	software, ok := f.softwares[id]
	if !ok {
		return repositories.SoftwareWithLinkedIDs{}, gorm.ErrRecordNotFound
	}
	return software, nil
}

func (f *fakeSoftwareRepo) GetAllStale(staleness time.Duration) ([]models.Software, error) {
	return f.stale, nil
}

func (f *fakeSoftwareRepo) UpdateLastExtraDataFetchAt(id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchedAt = append(f.fetchedAt, id)
	return nil
}

type fakeSourceRepo struct {
	sources []models.Source
}

func (f *fakeSourceRepo) GetAll() ([]models.Source, error) {
	return f.sources, nil
}

func (f *fakeSourceRepo) GetByKind(kind models.SourceKind) (models.Source, error) {
	for _, source := range f.sources {
		if source.Kind == kind {
			return source, nil
		}
	}
	return models.Source{}, gorm.ErrRecordNotFound
}

func (f *fakeSourceRepo) GetWikidataSource() (models.Source, error) {
	return f.GetByKind(models.SourceKindWikidata)
}

type fakeExternalDataRepo struct {
	mu      sync.Mutex
	saved   map[string]models.SoftwareExternalData
	rows    []models.SoftwareExternalData
	idSaves [][]models.SoftwareExternalData
}

func (f *fakeExternalDataRepo) Save(data *models.SoftwareExternalData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saved == nil {
		f.saved = map[string]models.SoftwareExternalData{}
	}
	f.saved[data.SourceSlug+"|"+data.ExternalID] = *data
	return nil
}

func (f *fakeExternalDataRepo) GetAll() ([]models.SoftwareExternalData, error) {
	return f.rows, nil
}

func (f *fakeExternalDataRepo) SaveIDs(datas []models.SoftwareExternalData) error {
	f.idSaves = append(f.idSaves, datas)
	return nil
}

type fakeExtraDataRepo struct {
	byID map[int]*models.OtherSoftwareExtraData
}

func (f *fakeExtraDataRepo) GetBySoftwareID(softwareID int) (*models.OtherSoftwareExtraData, error) {
	return f.byID[softwareID], nil
}

func (f *fakeExtraDataRepo) Save(data *models.OtherSoftwareExtraData) error {
	if f.byID == nil {
		f.byID = map[int]*models.OtherSoftwareExtraData{}
	}
	f.byID[data.SoftwareID] = data
	return nil
}

// stubGateway answers from a fixed map. The orchestrator mutates the
// returned record, so every call hands out a fresh copy.
type stubGateway struct {
	kind models.SourceKind
	byID map[string]models.SoftwareExternalData
}

func (s *stubGateway) Kind() models.SourceKind {
	return s.kind
}

func (s *stubGateway) GetByID(ctx context.Context, externalID string, source models.Source) (*models.SoftwareExternalData, error) {
	data, ok := s.byID[externalID]
	if !ok {
		return nil, nil
	}
	data.SourceSlug = source.Slug
	data.ExternalID = externalID
	return &data, nil
}

type orchestratorFixture struct {
	softwares    *fakeSoftwareRepo
	sources      *fakeSourceRepo
	external     *fakeExternalDataRepo
	extra        *fakeExtraDataRepo
	orchestrator *Orchestrator
	pageHits     *atomic.Int32
}

func newOrchestratorFixture(t *testing.T) *orchestratorFixture {
	var pageHits atomic.Int32
	var serverURL string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/public/export/comptoir-du-libre_export_v1.json":
			fmt.Fprintf(w, `{"softwares":[{"id":7,"name":"Acme Editor","url":"%s/fr/softwares/7","created":"2020-01-01T00:00:00","modified":"2024-06-01T00:00:00","external_resources":{"website":"https://acme.example","repository":""},"providers":[{"id":11,"url":"https://comptoir-du-libre.org/fr/users/11","name":"Provider A"}],"users":[]}]}`, serverURL)
		case "/fr/softwares/7":
			pageHits.Add(1)
			fmt.Fprint(w, `<html><head><meta property="og:image" content="https://cdl.example/acme-logo.png"><meta name="keywords" content="editor, text processing"></head></html>`)
		case "/api/prestataires-sill.json":
			fmt.Fprint(w, `[{"sill_id":42,"nom":"Acme Editor","prestataires":[{"nom":"Acme SARL","siren":"123456789","url":"https://annuaire.cnll.fr/societes/123456789"}]}]`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	serverURL = server.URL

	previousComptoir, previousCnll := comptoirBaseURL, cnllBaseURL
	comptoirBaseURL, cnllBaseURL = server.URL, server.URL
	t.Cleanup(func() {
		comptoirBaseURL, cnllBaseURL = previousComptoir, previousCnll
		server.Close()
	})

	softwares := &fakeSoftwareRepo{softwares: map[int]repositories.SoftwareWithLinkedIDs{}}
	sources := &fakeSourceRepo{sources: []models.Source{
		{Slug: "wikidata", Kind: models.SourceKindWikidata, URL: "https://www.wikidata.org", Priority: 1},
		{Slug: "github", Kind: models.SourceKindGitHub, URL: "https://github.com", Priority: 5},
	}}
	external := &fakeExternalDataRepo{}
	extra := &fakeExtraDataRepo{}

	gateway := &stubGateway{kind: models.SourceKindWikidata, byID: map[string]models.SoftwareExternalData{
		"Q7": {Label: toJSONLocalized(localized("Acme Editor", ""))},
		"Q1": {Label: toJSONLocalized(localized("Acme Suite", ""))},
		"Q2": {Label: toJSONLocalized(localized("Other Editor", ""))},
	}}

	comptoir := NewComptoirClient()
	cnll := NewCnllClient()

	return &orchestratorFixture{
		softwares:    softwares,
		sources:      sources,
		external:     external,
		extra:        extra,
		pageHits:     &pageHits,
		orchestrator: NewOrchestrator(softwares, sources, external, extra, NewRegistry(gateway), comptoir, cnll, NewGithubGateway("")),
	}
}

func TestFetchAndSaveSoftwareExtraData(t *testing.T) {
	t.Run("should save own, parent and similar external data and aggregate extra data", func(t *testing.T) {
		fixture := newOrchestratorFixture(t)
		fixture.softwares.softwares[42] = repositories.SoftwareWithLinkedIDs{
			Software: models.Software{
				ID:                 42,
				Name:               "Acme Editor",
				ExternalDataOrigin: models.SourceKindWikidata,
				ExternalID:         utils.Ptr("Q7"),
				ComptoirDuLibreID:  utils.Ptr(7),
			},
			ParentExternalID:   utils.Ptr("Q1"),
			SimilarExternalIDs: []string{"Q2"},
		}

		err := fixture.orchestrator.FetchAndSaveSoftwareExtraData(context.Background(), 42)
		require.NoError(t, err)

		own, ok := fixture.external.saved["wikidata|Q7"]
		require.True(t, ok)
		require.NotNil(t, own.SoftwareID)
		assert.Equal(t, 42, *own.SoftwareID)

		parent, ok := fixture.external.saved["wikidata|Q1"]
		require.True(t, ok)
		assert.Nil(t, parent.SoftwareID)

		_, ok = fixture.external.saved["wikidata|Q2"]
		assert.True(t, ok)

		extra := fixture.extra.byID[42]
		require.NotNil(t, extra)

		require.Len(t, extra.AnnuaireCnllServiceProviders, 1)
		assert.Equal(t, "Acme SARL", extra.AnnuaireCnllServiceProviders[0].Name)
		assert.Equal(t, "123456789", extra.AnnuaireCnllServiceProviders[0].Siren)

		cdl := extra.ComptoirDuLibreSoftware.Data()
		require.NotNil(t, cdl)
		assert.Equal(t, 7, cdl.ID)
		require.NotNil(t, cdl.LogoURL)
		assert.Equal(t, "https://cdl.example/acme-logo.png", *cdl.LogoURL)
		assert.Equal(t, []string{"editor", "text processing"}, cdl.Keywords)

		// one provider from the cnll listing, one from the cdl record
		require.Len(t, extra.ServiceProviders, 2)
		assert.Equal(t, "Acme SARL", extra.ServiceProviders[0].Name)
		assert.Equal(t, "Provider A", extra.ServiceProviders[1].Name)

		assert.Equal(t, []int{42}, fixture.softwares.fetchedAt)
	})

	t.Run("should carry the scraped logo and keywords forward when the cdl id is unchanged", func(t *testing.T) {
		fixture := newOrchestratorFixture(t)
		fixture.softwares.softwares[42] = repositories.SoftwareWithLinkedIDs{
			Software: models.Software{
				ID:                 42,
				ExternalDataOrigin: models.SourceKindWikidata,
				ComptoirDuLibreID:  utils.Ptr(7),
			},
		}

		require.NoError(t, fixture.orchestrator.FetchAndSaveSoftwareExtraData(context.Background(), 42))
		require.NoError(t, fixture.orchestrator.FetchAndSaveSoftwareExtraData(context.Background(), 42))

		assert.Equal(t, int32(1), fixture.pageHits.Load())

		cdl := fixture.extra.byID[42].ComptoirDuLibreSoftware.Data()
		require.NotNil(t, cdl)
		require.NotNil(t, cdl.LogoURL)
		assert.Equal(t, "https://cdl.example/acme-logo.png", *cdl.LogoURL)
	})

	t.Run("should not attach service providers when the origin is not wikidata", func(t *testing.T) {
		fixture := newOrchestratorFixture(t)
		fixture.softwares.softwares[43] = repositories.SoftwareWithLinkedIDs{
			Software: models.Software{
				ID:                 43,
				ExternalDataOrigin: models.SourceKindGitHub,
				ComptoirDuLibreID:  utils.Ptr(7),
			},
		}

		require.NoError(t, fixture.orchestrator.FetchAndSaveSoftwareExtraData(context.Background(), 43))

		extra := fixture.extra.byID[43]
		require.NotNil(t, extra)
		assert.Empty(t, extra.ServiceProviders)
		assert.Empty(t, extra.AnnuaireCnllServiceProviders)
		assert.NotNil(t, extra.ComptoirDuLibreSoftware.Data())
	})

	t.Run("should skip a software deleted mid-run without error", func(t *testing.T) {
		fixture := newOrchestratorFixture(t)

		err := fixture.orchestrator.FetchAndSaveSoftwareExtraData(context.Background(), 999)

		assert.NoError(t, err)
		assert.Empty(t, fixture.softwares.fetchedAt)
		assert.Empty(t, fixture.external.saved)
	})

	t.Run("should advance the fetch timestamp even without any external presence", func(t *testing.T) {
		fixture := newOrchestratorFixture(t)
		fixture.softwares.softwares[44] = repositories.SoftwareWithLinkedIDs{
			Software: models.Software{ID: 44, ExternalDataOrigin: models.SourceKindGitHub},
		}

		require.NoError(t, fixture.orchestrator.FetchAndSaveSoftwareExtraData(context.Background(), 44))

		assert.Equal(t, []int{44}, fixture.softwares.fetchedAt)
		assert.Empty(t, fixture.external.saved)
		assert.Nil(t, fixture.extra.byID[44])
	})
}
