package externaldata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/codegouvfr/sill-sync/internal/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHalGatewayGetByID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/search/"):
			query := r.URL.Query().Get("q")
			if query != "docid:1715545" {
				fmt.Fprint(w, `{"response":{"numFound":0,"docs":[]}}`)
				return
			}
			fmt.Fprint(w, `{"response":{"numFound":1,"docs":[{
				"docid":"1715545",
				"title_s":["Scikit-learn: Machine Learning in Python"],
				"abstract_s":["Machine learning library for Python"],
				"uri_s":"https://hal.science/hal-1715545",
				"keyword_s":["machine learning","python"],
				"licence_s":"BSD-3-Clause",
				"softProgrammingLanguage_s":["Python"],
				"softCodeRepository_s":["https://github.com/scikit-learn/scikit-learn"],
				"relatedPublication_s":["10.1000/broken","10.5555/12345678"],
				"authFullName_s":["Ada Lovelace","Grace Hopper"]
			}]}}`)
		case strings.HasPrefix(r.URL.Path, "/works/"):
			if strings.HasSuffix(r.URL.Path, "10.1000/broken") {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			fmt.Fprint(w, `{"message":{"DOI":"10.5555/12345678","title":["A Reference Paper"],"URL":"https://doi.org/10.5555/12345678"}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	previousHal, previousCrossRef := halBaseURL, crossRefBaseURL
	halBaseURL, crossRefBaseURL = server.URL, server.URL
	defer func() { halBaseURL, crossRefBaseURL = previousHal, previousCrossRef }()

	gateway := NewHalGateway(NewCrossRefClient())
	source := models.Source{Slug: "hal", Kind: models.SourceKindHAL, URL: "https://hal.science", Priority: 2}

	t.Run("should map a document and resolve reference publications", func(t *testing.T) {
		data, err := gateway.GetByID(context.Background(), "1715545", source)
		require.NoError(t, err)
		require.NotNil(t, data)

		assert.Equal(t, "hal", data.SourceSlug)
		assert.Equal(t, "Scikit-learn: Machine Learning in Python", data.Label.Data().Get())
		assert.Equal(t, "Machine learning library for Python", data.Description.Data().Get())
		require.NotNil(t, data.WebsiteURL)
		assert.Equal(t, "https://hal.science/hal-1715545", *data.WebsiteURL)
		require.NotNil(t, data.SourceURL)
		assert.Equal(t, "https://github.com/scikit-learn/scikit-learn", *data.SourceURL)
		require.NotNil(t, data.License)
		assert.Equal(t, "BSD-3-Clause", *data.License)
		assert.True(t, data.IsLibreSoftware)
		assert.Equal(t, []string{"machine learning", "python"}, []string(data.Keywords))
		assert.Equal(t, []string{"Python"}, []string(data.ProgrammingLanguages))

		require.Len(t, data.Developers, 2)
		assert.Equal(t, "Ada Lovelace", data.Developers[0].Name)

		// the unknown DOI is dropped, the resolvable one is kept
		require.Len(t, data.ReferencePublications, 1)
		assert.Equal(t, "10.5555/12345678", data.ReferencePublications[0].DOI)
		assert.Equal(t, "A Reference Paper", data.ReferencePublications[0].Title)

		require.Len(t, data.Identifiers, 1)
		assert.Equal(t, "hal", data.Identifiers[0].PropertyID)
		require.NotNil(t, data.Identifiers[0].SubjectOf)
		assert.Equal(t, source.URL, data.Identifiers[0].SubjectOf.URL)
	})

	t.Run("should return nil for an unknown docid", func(t *testing.T) {
		data, err := gateway.GetByID(context.Background(), "999999", source)
		require.NoError(t, err)
		assert.Nil(t, data)
	})
}
