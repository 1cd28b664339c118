package externaldata

import (
	"context"
	"net/http"
	"strconv"
	"sync"

	"github.com/codegouvfr/sill-sync/internal/database/models"
	"golang.org/x/time/rate"
)

var cnllBaseURL = "https://annuaire.cnll.fr"

type cnllEntry struct {
	SillID       int                          `json:"sill_id"`
	Name         string                       `json:"nom"`
	Prestataires []models.CnllServiceProvider `json:"prestataires"`
}

// CnllClient downloads the CNLL prestataires feed once per run and answers
// lookups from memory. Clear drops the cached feed between runs.
type CnllClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter

	mu   sync.Mutex
	feed []cnllEntry
}

func NewCnllClient() *CnllClient {
	return &CnllClient{
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(rate.Limit(1), 1),
	}
}

func (c *CnllClient) getFeed(ctx context.Context) ([]cnllEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.feed != nil {
		return c.feed, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var feed []cnllEntry
	found, err := getJSON(ctx, c.httpClient, cnllBaseURL+"/api/prestataires-sill.json", &feed)
	if err != nil {
		return nil, err
	}
	if !found {
		feed = []cnllEntry{}
	}

	c.feed = feed
	return c.feed, nil
}

// GetServiceProviders returns the CNLL prestataires declared for a SILL
// software id, or nil when the software is not listed.
func (c *CnllClient) GetServiceProviders(ctx context.Context, sillID int) ([]models.CnllServiceProvider, error) {
	feed, err := c.getFeed(ctx)
	if err != nil {
		return nil, err
	}

	for _, entry := range feed {
		if entry.SillID == sillID {
			return entry.Prestataires, nil
		}
	}
	return nil, nil
}

func (c *CnllClient) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.feed = nil
}

// CnllGateway maps a CNLL feed entry into the canonical shape. The feed is
// keyed by SILL software id.
type CnllGateway struct {
	client *CnllClient
}

func NewCnllGateway(client *CnllClient) *CnllGateway {
	return &CnllGateway{client: client}
}

func (g *CnllGateway) Kind() models.SourceKind {
	return models.SourceKindCNLL
}

func (g *CnllGateway) GetByID(ctx context.Context, externalID string, source models.Source) (*models.SoftwareExternalData, error) {
	sillID, err := strconv.Atoi(externalID)
	if err != nil {
		// a non-numeric id cannot exist at this source
		return nil, nil
	}

	feed, err := g.client.getFeed(ctx)
	if err != nil {
		return nil, err
	}

	for _, entry := range feed {
		if entry.SillID != sillID {
			continue
		}

		data := &models.SoftwareExternalData{
			SourceSlug:      source.Slug,
			ExternalID:      externalID,
			Label:           toJSONLocalized(localized("", entry.Name)),
			IsLibreSoftware: true,
			Identifiers:     []models.Identifier{ownIdentifier(source, "cnll", externalID)},
		}
		return data, nil
	}

	return nil, nil
}
