package externaldata

import (
	"context"
	"net/http"
	"net/url"

	"github.com/codegouvfr/sill-sync/internal/database/models"
	"golang.org/x/time/rate"
)

var crossRefBaseURL = "https://api.crossref.org"

type crossRefWorkResponse struct {
	Message struct {
		DOI   string   `json:"DOI"`
		Title []string `json:"title"`
		URL   string   `json:"URL"`
	} `json:"message"`
}

// CrossRefClient resolves DOIs into reference publications. CrossRef rate
// limits unauthenticated callers aggressively, hence the client-side pacing
// on top of the bounded 429 retry in getJSON.
type CrossRefClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewCrossRefClient() *CrossRefClient {
	return &CrossRefClient{
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(rate.Limit(2), 1),
	}
}

// GetWork returns nil when the DOI is unknown to CrossRef.
func (c *CrossRefClient) GetWork(ctx context.Context, doi string) (*models.ReferencePublication, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var resp crossRefWorkResponse
	found, err := getJSON(ctx, c.httpClient, crossRefBaseURL+"/works/"+url.PathEscape(doi), &resp)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	publication := &models.ReferencePublication{
		DOI: resp.Message.DOI,
		URL: resp.Message.URL,
	}
	if len(resp.Message.Title) > 0 {
		publication.Title = resp.Message.Title[0]
	}
	return publication, nil
}
