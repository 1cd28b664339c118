package externaldata

import (
	"context"
	"testing"

	"github.com/codegouvfr/sill-sync/internal/database/models"
	"github.com/codegouvfr/sill-sync/internal/database/repositories"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUpdaterFixture(softwares *fakeSoftwareRepo) *Updater {
	sources := &fakeSourceRepo{sources: []models.Source{
		{Slug: "github", Kind: models.SourceKindGitHub, URL: "https://github.com", Priority: 5},
	}}
	orchestrator := NewOrchestrator(
		softwares,
		sources,
		&fakeExternalDataRepo{},
		&fakeExtraDataRepo{},
		NewRegistry(),
		NewComptoirClient(),
		NewCnllClient(),
		NewGithubGateway(""),
	)
	return NewUpdater(softwares, orchestrator)
}

func TestUpdaterRun(t *testing.T) {
	t.Run("should continue with the remaining softwares when one fails", func(t *testing.T) {
		softwares := &fakeSoftwareRepo{
			softwares: map[int]repositories.SoftwareWithLinkedIDs{
				1: {Software: models.Software{ID: 1, ExternalDataOrigin: models.SourceKindGitHub}},
				3: {Software: models.Software{ID: 3, ExternalDataOrigin: models.SourceKindGitHub}},
			},
			stale: []models.Software{{ID: 1}, {ID: 2}, {ID: 3}},
			getErr: map[int]error{
				2: errors.New("connection reset by peer"),
			},
		}

		processed, err := newUpdaterFixture(softwares).Run(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 3, processed)
		assert.Equal(t, []int{1, 3}, softwares.fetchedAt)
	})

	t.Run("should do nothing when no software is stale", func(t *testing.T) {
		softwares := &fakeSoftwareRepo{}

		processed, err := newUpdaterFixture(softwares).Run(context.Background())

		require.NoError(t, err)
		assert.Zero(t, processed)
		assert.Empty(t, softwares.fetchedAt)
	})

	t.Run("should stop when the context is cancelled", func(t *testing.T) {
		softwares := &fakeSoftwareRepo{
			softwares: map[int]repositories.SoftwareWithLinkedIDs{
				1: {Software: models.Software{ID: 1, ExternalDataOrigin: models.SourceKindGitHub}},
			},
			stale: []models.Software{{ID: 1}},
		}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := newUpdaterFixture(softwares).Run(ctx)

		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, softwares.fetchedAt)
	})
}
