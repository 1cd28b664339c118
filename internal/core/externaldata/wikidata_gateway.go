package externaldata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/codegouvfr/sill-sync/internal/database/models"
	"github.com/codegouvfr/sill-sync/internal/utils"
	"github.com/pkg/errors"
)

var wikidataBaseURL = "https://www.wikidata.org"

// Wikidata properties the gateway maps into the canonical record.
const (
	wikidataPropLogo            = "P154"  // logo image
	wikidataPropWebsite         = "P856"  // official website
	wikidataPropSourceRepo      = "P1324" // source code repository URL
	wikidataPropLicense         = "P275"  // copyright license
	wikidataPropProgrammingLang = "P277"  // programmed in
	wikidataPropDeveloper       = "P178"  // developer
	wikidataPropSiren           = "P1616" // SIREN number
)

type wikidataText struct {
	Language string `json:"language"`
	Value    string `json:"value"`
}

type wikidataClaim struct {
	Mainsnak struct {
		Datatype  string `json:"datatype"`
		Datavalue struct {
			Type  string          `json:"type"`
			Value json.RawMessage `json:"value"`
		} `json:"datavalue"`
	} `json:"mainsnak"`
}

type wikidataEntity struct {
	ID           string                      `json:"id"`
	Labels       map[string]wikidataText     `json:"labels"`
	Descriptions map[string]wikidataText     `json:"descriptions"`
	Aliases      map[string][]wikidataText   `json:"aliases"`
	Claims       map[string][]wikidataClaim  `json:"claims"`
}

type wikidataEntityResponse struct {
	Entities map[string]wikidataEntity `json:"entities"`
}

type WikidataGateway struct {
	httpClient *http.Client
}

func NewWikidataGateway() *WikidataGateway {
	return &WikidataGateway{
		httpClient: &http.Client{},
	}
}

func (g *WikidataGateway) Kind() models.SourceKind {
	return models.SourceKindWikidata
}

func (g *WikidataGateway) GetByID(ctx context.Context, externalID string, source models.Source) (*models.SoftwareExternalData, error) {
	var resp wikidataEntityResponse
	entityURL := fmt.Sprintf("%s/wiki/Special:EntityData/%s.json", wikidataBaseURL, url.PathEscape(externalID))
	found, err := getJSON(ctx, g.httpClient, entityURL, &resp)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	entity, ok := resp.Entities[externalID]
	if !ok {
		// redirected entities come back under their canonical id
		for _, e := range resp.Entities {
			entity = e
			ok = true
			break
		}
		if !ok {
			return nil, nil
		}
	}

	labels, err := g.resolveItemLabels(ctx, entity)
	if err != nil {
		return nil, err
	}

	data := &models.SoftwareExternalData{
		SourceSlug:  source.Slug,
		ExternalID:  externalID,
		Label:       toJSONLocalized(localizedFromTexts(entity.Labels)),
		Description: toJSONLocalized(localizedFromTexts(entity.Descriptions)),
	}

	if logo := firstStringClaim(entity, wikidataPropLogo); logo != "" {
		data.LogoURL = utils.Ptr(commonsFileURL(logo))
	}
	if website := firstStringClaim(entity, wikidataPropWebsite); website != "" {
		data.WebsiteURL = utils.Ptr(website)
	}
	if repo := firstStringClaim(entity, wikidataPropSourceRepo); repo != "" {
		data.SourceURL = utils.Ptr(repo)
	}

	if licenseID := firstItemClaim(entity, wikidataPropLicense); licenseID != "" {
		data.License = utils.EmptyThenNil(labels[licenseID])
		data.IsLibreSoftware = true
	}

	for _, langID := range itemClaims(entity, wikidataPropProgrammingLang) {
		if label := labels[langID]; label != "" {
			data.ProgrammingLanguages = append(data.ProgrammingLanguages, label)
		}
	}

	for _, devID := range itemClaims(entity, wikidataPropDeveloper) {
		data.Developers = append(data.Developers, models.Developer{
			Name: utils.OrDefault(utils.EmptyThenNil(labels[devID]), devID),
			ID:   devID,
			URL:  wikidataBaseURL + "/wiki/" + devID,
		})
	}

	for _, alias := range entity.Aliases["en"] {
		data.Keywords = append(data.Keywords, alias.Value)
	}

	data.Identifiers = []models.Identifier{ownIdentifier(source, "wikidata", externalID)}
	if siren := firstStringClaim(entity, wikidataPropSiren); siren != "" {
		data.Identifiers = append(data.Identifiers, models.Identifier{
			Type:       "PropertyValue",
			PropertyID: "SIREN",
			Value:      siren,
		})
	}

	return data, nil
}

// resolveItemLabels collects all item ids referenced by the claims we map
// and resolves their english labels in a single wbgetentities call.
func (g *WikidataGateway) resolveItemLabels(ctx context.Context, entity wikidataEntity) (map[string]string, error) {
	ids := make([]string, 0)
	for _, prop := range []string{wikidataPropLicense, wikidataPropProgrammingLang, wikidataPropDeveloper} {
		ids = append(ids, itemClaims(entity, prop)...)
	}
	ids = utils.UniqBy(ids, func(s string) string { return s })
	sort.Strings(ids)

	labels := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return labels, nil
	}

	var resp wikidataEntityResponse
	labelsURL := fmt.Sprintf("%s/w/api.php?action=wbgetentities&props=labels&languages=en|fr&format=json&ids=%s",
		wikidataBaseURL, url.QueryEscape(strings.Join(ids, "|")))
	found, err := getJSON(ctx, g.httpClient, labelsURL, &resp)
	if err != nil {
		return nil, errors.Wrap(err, "could not resolve item labels")
	}
	if !found {
		return labels, nil
	}

	for id, e := range resp.Entities {
		labels[id] = localizedFromTexts(e.Labels).Get()
	}
	return labels, nil
}

func localizedFromTexts(texts map[string]wikidataText) models.LocalizedString {
	localized := models.LocalizedString{}
	for lang, text := range texts {
		if lang == "en" || lang == "fr" {
			localized[lang] = text.Value
		}
	}
	return localized
}

func firstStringClaim(entity wikidataEntity, property string) string {
	for _, claim := range entity.Claims[property] {
		var value string
		if err := json.Unmarshal(claim.Mainsnak.Datavalue.Value, &value); err == nil {
			return value
		}
	}
	return ""
}

func firstItemClaim(entity wikidataEntity, property string) string {
	items := itemClaims(entity, property)
	if len(items) == 0 {
		return ""
	}
	return items[0]
}

func itemClaims(entity wikidataEntity, property string) []string {
	var ids []string
	for _, claim := range entity.Claims[property] {
		var value struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(claim.Mainsnak.Datavalue.Value, &value); err == nil && value.ID != "" {
			ids = append(ids, value.ID)
		}
	}
	return ids
}

func commonsFileURL(filename string) string {
	return "https://commons.wikimedia.org/wiki/Special:FilePath/" + url.PathEscape(strings.ReplaceAll(filename, " ", "_"))
}
