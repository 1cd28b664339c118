package models

import (
	"time"

	"gorm.io/datatypes"
)

// SoftwareType describes how a software is consumed: a desktop/mobile
// application with OS flags, a cloud service or a library.
type SoftwareType struct {
	Type string          `json:"type"` // desktop/mobile | cloud | stack
	OS   map[string]bool `json:"os,omitempty"`
}

type Software struct {
	ID          int    `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"type:text;not null;"`
	Description string `json:"description" gorm:"type:text;"`
	License     string `json:"license" gorm:"type:text;"`
	VersionMin  string `json:"versionMin" gorm:"type:text;"`

	SoftwareType datatypes.JSONType[SoftwareType] `json:"softwareType"`

	IsFromFrenchPublicService  bool `json:"isFromFrenchPublicService"`
	IsPresentInSupportContract bool `json:"isPresentInSupportContract"`

	ParentSoftwareID  *int `json:"parentSoftwareId"`
	ComptoirDuLibreID *int `json:"comptoirDuLibreId"`

	// which external registry is authoritative for this entry
	ExternalDataOrigin SourceKind `json:"externalDataOrigin" gorm:"type:text;default:'wikidata'"`
	ExternalID         *string    `json:"externalId" gorm:"type:text;"`

	// a dereferenced software is withdrawn from the catalog but never hard-deleted
	DereferencingTime   *time.Time `json:"dereferencingTime"`
	DereferencingReason *string    `json:"dereferencingReason" gorm:"type:text;"`

	ReferencedSinceTime  time.Time  `json:"referencedSinceTime"`
	UpdateTime           time.Time  `json:"updateTime"`
	LastExtraDataFetchAt *time.Time `json:"lastExtraDataFetchAt"`
}

func (m Software) TableName() string {
	return "softwares"
}

func (m Software) IsReferenced() bool {
	return m.DereferencingTime == nil
}

// SimilarSoftwareExternalID links a software to the external id of a similar
// software, as declared during registration.
type SimilarSoftwareExternalID struct {
	SoftwareID        int    `json:"softwareId" gorm:"primaryKey"`
	SimilarExternalID string `json:"similarExternalId" gorm:"primaryKey;type:text;"`
}

func (m SimilarSoftwareExternalID) TableName() string {
	return "softwares__similar_software_external_datas"
}
