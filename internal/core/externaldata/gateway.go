package externaldata

import (
	"context"
	"fmt"
	"time"

	"github.com/codegouvfr/sill-sync/internal/database/models"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// SourceGateway fetches the external representation of a software from one
// source kind and maps it into the canonical SoftwareExternalData shape.
// A gateway never mutates shared state: it is a pure fetch and map function.
//
// GetByID returns (nil, nil) when the source has no record for the id. It
// returns an error only for genuine transport or parse failures, so the
// caller can decide whether to abort or continue.
type SourceGateway interface {
	Kind() models.SourceKind
	GetByID(ctx context.Context, externalID string, source models.Source) (*models.SoftwareExternalData, error)
}

type cachedFetch struct {
	data *models.SoftwareExternalData
}

// Registry dispatches fetches to the gateway registered for a source kind
// and memoizes results (hits and misses, but never errors) for the duration
// of a batch run. Clear resets the cache between runs.
type Registry struct {
	gateways map[models.SourceKind]SourceGateway
	cache    *expirable.LRU[string, cachedFetch]
}

func NewRegistry(gateways ...SourceGateway) *Registry {
	byKind := make(map[models.SourceKind]SourceGateway, len(gateways))
	for _, gateway := range gateways {
		byKind[gateway.Kind()] = gateway
	}
	return &Registry{
		gateways: byKind,
		cache:    expirable.NewLRU[string, cachedFetch](1024, nil, time.Hour),
	}
}

func (r *Registry) GetByID(ctx context.Context, externalID string, source models.Source) (*models.SoftwareExternalData, error) {
	key := source.Slug + "|" + externalID
	if cached, ok := r.cache.Get(key); ok {
		return cached.data, nil
	}

	gateway, ok := r.gateways[source.Kind]
	if !ok {
		return nil, fmt.Errorf("no gateway registered for source kind %q", source.Kind)
	}

	data, err := gateway.GetByID(ctx, externalID, source)
	if err != nil {
		return nil, err
	}

	r.cache.Add(key, cachedFetch{data: data})
	return data, nil
}

func (r *Registry) Clear() {
	r.cache.Purge()
}

// ownIdentifier synthesizes the identifier entry encoding the source's own
// external id, so that self-import can later re-derive the linkage.
func ownIdentifier(source models.Source, propertyID, externalID string) models.Identifier {
	return models.Identifier{
		Type:       "PropertyValue",
		PropertyID: propertyID,
		Value:      externalID,
		SubjectOf:  &models.SubjectOf{URL: source.URL},
	}
}
