package externaldata

import (
	"context"
	"net/http"
	"strings"

	"github.com/codegouvfr/sill-sync/internal/database/models"
	"github.com/codegouvfr/sill-sync/internal/utils"
	"github.com/pkg/errors"
	gitlab "gitlab.com/gitlab-org/api/client-go"
)

// GitlabGateway fetches project metadata from a gitlab instance. externalID
// is the project path ("group/project") or the numeric project id. The
// instance URL comes from the source row, so self-hosted forges work with
// their own registry entry.
type GitlabGateway struct {
	token string
}

func NewGitlabGateway(token string) *GitlabGateway {
	return &GitlabGateway{token: token}
}

func (g *GitlabGateway) Kind() models.SourceKind {
	return models.SourceKindGitLab
}

func (g *GitlabGateway) GetByID(ctx context.Context, externalID string, source models.Source) (*models.SoftwareExternalData, error) {
	client, err := gitlab.NewClient(g.token, gitlab.WithBaseURL(strings.TrimSuffix(source.URL, "/")+"/api/v4"))
	if err != nil {
		return nil, errors.Wrap(err, "could not create gitlab client")
	}

	project, resp, err := client.Projects.GetProject(externalID, &gitlab.GetProjectOptions{
		License: gitlab.Ptr(true),
	}, gitlab.WithContext(ctx))
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "could not fetch gitlab project %s", externalID)
	}

	data := &models.SoftwareExternalData{
		SourceSlug:  source.Slug,
		ExternalID:  externalID,
		Label:       toJSONLocalized(localized(project.Name, "")),
		Description: toJSONLocalized(localized(project.Description, "")),
		SourceURL:   utils.Ptr(project.WebURL),
		LogoURL:     utils.EmptyThenNil(project.AvatarURL),
		Keywords:    project.Topics,
		Identifiers: []models.Identifier{ownIdentifier(source, "gitlab", externalID)},
	}

	if project.License != nil {
		data.License = utils.EmptyThenNil(project.License.Name)
		data.IsLibreSoftware = project.License.Name != ""
	}

	if project.Namespace != nil {
		data.Developers = []models.Developer{{
			Name: project.Namespace.Name,
			URL:  project.Namespace.WebURL,
		}}
	}

	return data, nil
}
