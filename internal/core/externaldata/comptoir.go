package externaldata

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/codegouvfr/sill-sync/internal/database/models"
	"github.com/codegouvfr/sill-sync/internal/utils"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

var comptoirBaseURL = "https://comptoir-du-libre.org"

type comptoirSoftware struct {
	ID                int    `json:"id"`
	Name              string `json:"name"`
	URL               string `json:"url"`
	Created           string `json:"created"`
	Modified          string `json:"modified"`
	ExternalResources struct {
		Website    string `json:"website"`
		Repository string `json:"repository"`
	} `json:"external_resources"`
	Providers []models.ComptoirDuLibreProvider `json:"providers"`
	Users     []models.ComptoirDuLibreProvider `json:"users"`
}

type comptoirExport struct {
	Softwares []comptoirSoftware `json:"softwares"`
}

// ComptoirClient downloads the Comptoir du Libre export once per run and
// answers lookups from memory. Logo and keywords are not part of the export
// and require scraping the software page, which is why the orchestrator
// carries them forward when the CDL id is unchanged.
type ComptoirClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter

	mu     sync.Mutex
	export *comptoirExport
}

func NewComptoirClient() *ComptoirClient {
	return &ComptoirClient{
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(rate.Limit(1), 1),
	}
}

func (c *ComptoirClient) getExport(ctx context.Context) (*comptoirExport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.export != nil {
		return c.export, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var export comptoirExport
	found, err := getJSON(ctx, c.httpClient, comptoirBaseURL+"/public/export/comptoir-du-libre_export_v1.json", &export)
	if err != nil {
		return nil, err
	}
	if !found {
		export = comptoirExport{Softwares: []comptoirSoftware{}}
	}

	c.export = &export
	return c.export, nil
}

func (c *ComptoirClient) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.export = nil
}

// GetSoftware returns nil when the Comptoir du Libre export does not list
// the given id.
func (c *ComptoirClient) GetSoftware(ctx context.Context, comptoirID int) (*models.ComptoirDuLibreSoftware, error) {
	export, err := c.getExport(ctx)
	if err != nil {
		return nil, err
	}

	for _, software := range export.Softwares {
		if software.ID != comptoirID {
			continue
		}
		return &models.ComptoirDuLibreSoftware{
			ID:        software.ID,
			Name:      software.Name,
			URL:       software.URL,
			Created:   software.Created,
			Modified:  software.Modified,
			Providers: software.Providers,
			Users:     software.Users,
		}, nil
	}
	return nil, nil
}

var (
	ogImagePattern  = regexp.MustCompile(`<meta\s+property="og:image"\s+content="([^"]+)"`)
	keywordsPattern = regexp.MustCompile(`<meta\s+name="keywords"\s+content="([^"]+)"`)
)

// GetLogoAndKeywords scrapes the CDL software page. The export does not
// carry either field.
func (c *ComptoirClient) GetLogoAndKeywords(ctx context.Context, pageURL string) (*string, []string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, nil, errors.Wrap(err, "could not create request")
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "could not fetch %s", pageURL)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, nil, nil
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, nil, errors.Wrap(err, "could not read body")
	}

	var logoURL *string
	if match := ogImagePattern.FindSubmatch(body); match != nil {
		logoURL = utils.Ptr(string(match[1]))
	}

	var keywords []string
	if match := keywordsPattern.FindSubmatch(body); match != nil {
		for _, keyword := range strings.Split(string(match[1]), ",") {
			if trimmed := strings.TrimSpace(keyword); trimmed != "" {
				keywords = append(keywords, trimmed)
			}
		}
	}

	return logoURL, keywords, nil
}

type ComptoirGateway struct {
	client *ComptoirClient
}

func NewComptoirGateway(client *ComptoirClient) *ComptoirGateway {
	return &ComptoirGateway{client: client}
}

func (g *ComptoirGateway) Kind() models.SourceKind {
	return models.SourceKindComptoirDuLibre
}

func (g *ComptoirGateway) GetByID(ctx context.Context, externalID string, source models.Source) (*models.SoftwareExternalData, error) {
	comptoirID, err := strconv.Atoi(externalID)
	if err != nil {
		return nil, nil
	}

	export, err := g.client.getExport(ctx)
	if err != nil {
		return nil, err
	}

	for _, software := range export.Softwares {
		if software.ID != comptoirID {
			continue
		}

		data := &models.SoftwareExternalData{
			SourceSlug:      source.Slug,
			ExternalID:      externalID,
			Label:           toJSONLocalized(localized("", software.Name)),
			IsLibreSoftware: true,
			Identifiers:     []models.Identifier{ownIdentifier(source, "comptoir-du-libre", externalID)},
		}
		if software.ExternalResources.Website != "" {
			data.WebsiteURL = utils.Ptr(software.ExternalResources.Website)
		}
		if software.ExternalResources.Repository != "" {
			data.SourceURL = utils.Ptr(software.ExternalResources.Repository)
		}
		return data, nil
	}

	return nil, nil
}
