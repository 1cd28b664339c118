package repositories

import (
	"errors"

	"github.com/codegouvfr/sill-sync/internal/database"
	"github.com/codegouvfr/sill-sync/internal/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type softwareExternalDataRepository struct {
	database.Repository[string, models.SoftwareExternalData, *gorm.DB]
	db *gorm.DB
}

func NewSoftwareExternalDataRepository(db *gorm.DB) *softwareExternalDataRepository {
	return &softwareExternalDataRepository{
		db:         db,
		Repository: database.NewGormRepository[string, models.SoftwareExternalData](db),
	}
}

// Save upserts the record keyed by (source_slug, external_id). The whole row
// is overwritten, there is no partial patch.
func (r *softwareExternalDataRepository) Save(data *models.SoftwareExternalData) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source_slug"}, {Name: "external_id"}},
		UpdateAll: true,
	}).Create(data).Error
}

func (r *softwareExternalDataRepository) Get(sourceSlug, externalID string) (*models.SoftwareExternalData, error) {
	var data models.SoftwareExternalData
	err := r.db.Where("source_slug = ? AND external_id = ?", sourceSlug, externalID).First(&data).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &data, nil
}

func (r *softwareExternalDataRepository) GetAll() ([]models.SoftwareExternalData, error) {
	var datas []models.SoftwareExternalData
	err := r.db.Find(&datas).Error
	return datas, err
}

func (r *softwareExternalDataRepository) GetBySoftwareID(softwareID int) ([]models.SoftwareExternalData, error) {
	var datas []models.SoftwareExternalData
	err := r.db.Where("software_id = ?", softwareID).Find(&datas).Error
	return datas, err
}

// SaveIDs inserts bare (sourceSlug, externalId, softwareId) linkage rows.
// Existing rows are left untouched so a later full fetch can flesh them out.
func (r *softwareExternalDataRepository) SaveIDs(datas []models.SoftwareExternalData) error {
	if len(datas) == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source_slug"}, {Name: "external_id"}},
		DoNothing: true,
	}).Create(&datas).Error
}
