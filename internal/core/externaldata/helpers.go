package externaldata

import (
	"github.com/codegouvfr/sill-sync/internal/database/models"
	"gorm.io/datatypes"
)

func toJSONLocalized(l models.LocalizedString) datatypes.JSONType[models.LocalizedString] {
	return datatypes.NewJSONType(l)
}

func localized(en, fr string) models.LocalizedString {
	l := models.LocalizedString{}
	if en != "" {
		l["en"] = en
	}
	if fr != "" {
		l["fr"] = fr
	}
	return l
}
