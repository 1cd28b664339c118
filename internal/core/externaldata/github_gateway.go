package externaldata

import (
	"context"
	"net/http"
	"strings"

	"github.com/codegouvfr/sill-sync/internal/database/models"
	"github.com/codegouvfr/sill-sync/internal/utils"
	"github.com/google/go-github/v62/github"
	"github.com/pkg/errors"
)

// GithubGateway fetches repository metadata. externalID is the "owner/repo"
// path. An access token is optional but buys API rate-limit headroom.
type GithubGateway struct {
	client *github.Client
}

func NewGithubGateway(token string) *GithubGateway {
	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	return &GithubGateway{client: client}
}

func (g *GithubGateway) Kind() models.SourceKind {
	return models.SourceKindGitHub
}

func splitRepoPath(externalID string) (owner, name string, ok bool) {
	parts := strings.SplitN(strings.Trim(externalID, "/"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

func (g *GithubGateway) GetByID(ctx context.Context, externalID string, source models.Source) (*models.SoftwareExternalData, error) {
	owner, name, ok := splitRepoPath(externalID)
	if !ok {
		return nil, nil
	}

	repo, resp, err := g.client.Repositories.Get(ctx, owner, name)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "could not fetch github repository %s", externalID)
	}

	data := &models.SoftwareExternalData{
		SourceSlug:  source.Slug,
		ExternalID:  externalID,
		Label:       toJSONLocalized(localized(repo.GetName(), "")),
		Description: toJSONLocalized(localized(repo.GetDescription(), "")),
		SourceURL:   utils.Ptr(repo.GetHTMLURL()),
		WebsiteURL:  utils.EmptyThenNil(repo.GetHomepage()),
		Keywords:    repo.Topics,
		Identifiers: []models.Identifier{ownIdentifier(source, "github", externalID)},
	}

	if language := repo.GetLanguage(); language != "" {
		data.ProgrammingLanguages = []string{language}
	}

	if license := repo.GetLicense(); license != nil {
		data.License = utils.EmptyThenNil(license.GetSPDXID())
		data.IsLibreSoftware = license.GetSPDXID() != "" && license.GetSPDXID() != "NOASSERTION"
	}

	if repoOwner := repo.GetOwner(); repoOwner != nil {
		data.Developers = []models.Developer{{
			Name: repoOwner.GetLogin(),
			URL:  repoOwner.GetHTMLURL(),
		}}
	}

	return data, nil
}

// GetLatestRelease returns nil when the repository has no release.
func (g *GithubGateway) GetLatestRelease(ctx context.Context, repoURL string) (*models.LatestVersion, error) {
	path, isGithub := strings.CutPrefix(repoURL, "https://github.com/")
	if !isGithub {
		return nil, nil
	}
	path = strings.TrimSuffix(path, ".git")
	owner, name, ok := splitRepoPath(path)
	if !ok {
		return nil, nil
	}

	release, resp, err := g.client.Repositories.GetLatestRelease(ctx, owner, name)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "could not fetch latest release of %s", repoURL)
	}

	version := &models.LatestVersion{
		SemVer: strings.TrimPrefix(release.GetTagName(), "v"),
	}
	if publishedAt := release.GetPublishedAt(); !publishedAt.IsZero() {
		version.PublicationTime = publishedAt.Unix()
	}
	return version, nil
}
