package models

import (
	"gorm.io/datatypes"
)

// SourceKind identifies the schema/protocol family of an external data origin.
type SourceKind string

const (
	SourceKindWikidata        SourceKind = "wikidata"
	SourceKindHAL             SourceKind = "HAL"
	SourceKindCNLL            SourceKind = "CNLL"
	SourceKindComptoirDuLibre SourceKind = "ComptoirDuLibre"
	SourceKindGitHub          SourceKind = "GitHub"
	SourceKindGitLab          SourceKind = "GitLab"
)

// Source is immutable reference data seeded at migration time. A new kind
// needs a registry row before any gateway can persist against it.
type Source struct {
	Slug string     `json:"slug" gorm:"primaryKey;type:text;"`
	Kind SourceKind `json:"kind" gorm:"type:text;not null;"`
	URL  string     `json:"url" gorm:"type:text;not null;"`
	// lower priority wins when multiple sources could supply the same software
	Priority    int                                  `json:"priority" gorm:"unique;not null;"`
	Description *datatypes.JSONType[LocalizedString] `json:"description"`
}

func (m Source) TableName() string {
	return "sources"
}
