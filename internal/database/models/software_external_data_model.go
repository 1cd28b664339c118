package models

import (
	"time"

	"gorm.io/datatypes"
)

// LocalizedString maps a BCP 47 language tag to a translation.
type LocalizedString map[string]string

// Get returns the "en" translation, falling back to "fr", falling back to
// any translation present.
func (l LocalizedString) Get() string {
	if v, ok := l["en"]; ok {
		return v
	}
	if v, ok := l["fr"]; ok {
		return v
	}
	for _, v := range l {
		return v
	}
	return ""
}

type Developer struct {
	Name string `json:"name"`
	ID   string `json:"id,omitempty"`
	URL  string `json:"url,omitempty"`
}

// Identifier is a typed property-value pair attached to an external-data
// record. SubjectOf backlinks to the URL of the source the identifier
// originates from; self-import matches it against Source.URL to re-derive
// the (sourceSlug, externalId) linkage.
type Identifier struct {
	Type       string     `json:"@type"`
	PropertyID string     `json:"propertyID"`
	Value      string     `json:"value"`
	SubjectOf  *SubjectOf `json:"subjectOf,omitempty"`
}

type SubjectOf struct {
	URL string `json:"url"`
}

type ReferencePublication struct {
	Title string `json:"title"`
	DOI   string `json:"doi,omitempty"`
	URL   string `json:"url,omitempty"`
}

// SoftwareExternalData caches the last-fetched representation of a software
// from one source. At most one row per (sourceSlug, externalId); overwritten
// wholesale on each successful fetch.
type SoftwareExternalData struct {
	SourceSlug string `json:"sourceSlug" gorm:"primaryKey;type:text;"`
	ExternalID string `json:"externalId" gorm:"primaryKey;type:text;"`
	SoftwareID *int   `json:"softwareId"`

	Label       datatypes.JSONType[LocalizedString] `json:"label"`
	Description datatypes.JSONType[LocalizedString] `json:"description"`

	Developers      datatypes.JSONSlice[Developer] `json:"developers"`
	License         *string                        `json:"license" gorm:"type:text;"`
	IsLibreSoftware bool                           `json:"isLibreSoftware"`

	LogoURL          *string `json:"logoUrl" gorm:"type:text;"`
	WebsiteURL       *string `json:"websiteUrl" gorm:"type:text;"`
	SourceURL        *string `json:"sourceUrl" gorm:"type:text;"`
	DocumentationURL *string `json:"documentationUrl" gorm:"type:text;"`

	Keywords              datatypes.JSONSlice[string]               `json:"keywords"`
	ProgrammingLanguages  datatypes.JSONSlice[string]               `json:"programmingLanguages"`
	ApplicationCategories datatypes.JSONSlice[string]               `json:"applicationCategories"`
	ReferencePublications datatypes.JSONSlice[ReferencePublication] `json:"referencePublications"`
	Identifiers           datatypes.JSONSlice[Identifier]           `json:"identifiers"`

	UpdatedAt time.Time `json:"updatedAt"`
}

func (m SoftwareExternalData) TableName() string {
	return "software_external_datas"
}
