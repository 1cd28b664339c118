package externaldata

import (
	"github.com/codegouvfr/sill-sync/internal/database/models"
)

type identifierKey struct {
	propertyID string
	value      string
}

// MergeDeduplicateIdentifiers merges two identifier arrays into their union,
// deduplicated by (propertyID, value). When both arrays contain the same key,
// the existing entry wins - the first-seen source association is never
// overwritten by a later one.
func MergeDeduplicateIdentifiers(existing, incoming []models.Identifier) []models.Identifier {
	merged := make([]models.Identifier, 0, len(existing)+len(incoming))
	seen := make(map[identifierKey]struct{}, len(existing)+len(incoming))

	for _, identifier := range existing {
		key := identifierKey{propertyID: identifier.PropertyID, value: identifier.Value}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, identifier)
	}

	for _, identifier := range incoming {
		key := identifierKey{propertyID: identifier.PropertyID, value: identifier.Value}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, identifier)
	}

	return merged
}
