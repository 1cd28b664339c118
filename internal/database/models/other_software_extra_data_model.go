package models

import (
	"time"

	"gorm.io/datatypes"
)

type ServiceProvider struct {
	Name    string `json:"name"`
	Website string `json:"website,omitempty"`
	CdlURL  string `json:"cdlUrl,omitempty"`
	CnllURL string `json:"cnllUrl,omitempty"`
	Siren   string `json:"siren,omitempty"`
}

type ComptoirDuLibreProvider struct {
	ID      int    `json:"id"`
	URL     string `json:"url"`
	Name    string `json:"name"`
	Website string `json:"external_resources_website,omitempty"`
}

// ComptoirDuLibreSoftware is the merged Comptoir du Libre record plus the
// cached logo/keywords fetched from the CDL website.
type ComptoirDuLibreSoftware struct {
	ID             int                       `json:"id"`
	Name           string                    `json:"name"`
	URL            string                    `json:"url"`
	Created        string                    `json:"created"`
	Modified       string                    `json:"modified"`
	Providers      []ComptoirDuLibreProvider `json:"providers"`
	Users          []ComptoirDuLibreProvider `json:"users"`
	LogoURL        *string                   `json:"logoUrl,omitempty"`
	Keywords       []string                  `json:"keywords,omitempty"`
}

type CnllServiceProvider struct {
	Name  string `json:"nom"`
	Siren string `json:"siren"`
	URL   string `json:"url"`
}

type LatestVersion struct {
	SemVer          string `json:"semVer"`
	PublicationTime int64  `json:"publicationTime"`
}

// OtherSoftwareExtraData is secondary, non-authoritative enrichment.
// Recomputed on each batch run; a row is only stored when at least one of
// the four fields is non-empty.
type OtherSoftwareExtraData struct {
	SoftwareID int `json:"softwareId" gorm:"primaryKey"`

	ServiceProviders             datatypes.JSONSlice[ServiceProvider]          `json:"serviceProviders"`
	ComptoirDuLibreSoftware      datatypes.JSONType[*ComptoirDuLibreSoftware]  `json:"comptoirDuLibreSoftware"`
	AnnuaireCnllServiceProviders datatypes.JSONSlice[CnllServiceProvider]      `json:"annuaireCnllServiceProviders"`
	LatestVersion                datatypes.JSONType[*LatestVersion]            `json:"latestVersion"`

	UpdatedAt time.Time `json:"updatedAt"`
}

func (m OtherSoftwareExtraData) TableName() string {
	return "other_software_extra_datas"
}

func (m OtherSoftwareExtraData) IsEmpty() bool {
	return len(m.ServiceProviders) == 0 &&
		m.ComptoirDuLibreSoftware.Data() == nil &&
		len(m.AnnuaireCnllServiceProviders) == 0 &&
		m.LatestVersion.Data() == nil
}
