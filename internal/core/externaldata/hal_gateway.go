package externaldata

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/codegouvfr/sill-sync/internal/database/models"
	"github.com/codegouvfr/sill-sync/internal/utils"
	"golang.org/x/time/rate"
)

var halBaseURL = "https://api.archives-ouvertes.fr"

type halDocument struct {
	DocID                string   `json:"docid"`
	Title                []string `json:"title_s"`
	Abstract             []string `json:"abstract_s"`
	URI                  string   `json:"uri_s"`
	Keywords             []string `json:"keyword_s"`
	License              string   `json:"licence_s"`
	Domains              []string `json:"domainAllCodeLabel_fs"`
	ProgrammingLanguages []string `json:"softProgrammingLanguage_s"`
	CodeRepository       []string `json:"softCodeRepository_s"`
	RelatedPublications  []string `json:"relatedPublication_s"`
	AuthorFullNames      []string `json:"authFullName_s"`
}

type halSearchResponse struct {
	Response struct {
		NumFound int           `json:"numFound"`
		Docs     []halDocument `json:"docs"`
	} `json:"response"`
}

type HalGateway struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	crossRef   *CrossRefClient
}

func NewHalGateway(crossRef *CrossRefClient) *HalGateway {
	return &HalGateway{
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(rate.Limit(5), 1),
		crossRef:   crossRef,
	}
}

func (g *HalGateway) Kind() models.SourceKind {
	return models.SourceKindHAL
}

func (g *HalGateway) GetByID(ctx context.Context, externalID string, source models.Source) (*models.SoftwareExternalData, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	fields := "docid,title_s,abstract_s,uri_s,keyword_s,licence_s,domainAllCodeLabel_fs,softProgrammingLanguage_s,softCodeRepository_s,relatedPublication_s,authFullName_s"
	searchURL := fmt.Sprintf("%s/search/?q=docid:%s&wt=json&fl=%s", halBaseURL, url.QueryEscape(externalID), url.QueryEscape(fields))

	var resp halSearchResponse
	found, err := getJSON(ctx, g.httpClient, searchURL, &resp)
	if err != nil {
		return nil, err
	}
	if !found || resp.Response.NumFound == 0 {
		return nil, nil
	}

	doc := resp.Response.Docs[0]

	data := &models.SoftwareExternalData{
		SourceSlug:      source.Slug,
		ExternalID:      externalID,
		IsLibreSoftware: true,
		Keywords:        doc.Keywords,
		License:         utils.EmptyThenNil(doc.License),
	}

	if len(doc.Title) > 0 {
		data.Label = toJSONLocalized(localized(doc.Title[0], ""))
	}
	if len(doc.Abstract) > 0 {
		data.Description = toJSONLocalized(localized(doc.Abstract[0], ""))
	}
	if doc.URI != "" {
		data.WebsiteURL = utils.Ptr(doc.URI)
	}
	if len(doc.CodeRepository) > 0 {
		data.SourceURL = utils.Ptr(doc.CodeRepository[0])
	}

	data.ApplicationCategories = doc.Domains
	data.ProgrammingLanguages = doc.ProgrammingLanguages

	for _, name := range doc.AuthorFullNames {
		data.Developers = append(data.Developers, models.Developer{Name: name})
	}

	for _, doi := range doc.RelatedPublications {
		publication, err := g.crossRef.GetWork(ctx, doi)
		if err != nil {
			// a broken DOI degrades the record, not the fetch
			slog.Error("could not resolve reference publication", "doi", doi, "err", err)
			continue
		}
		if publication != nil {
			data.ReferencePublications = append(data.ReferencePublications, *publication)
		}
	}

	data.Identifiers = []models.Identifier{ownIdentifier(source, "hal", externalID)}

	return data, nil
}
