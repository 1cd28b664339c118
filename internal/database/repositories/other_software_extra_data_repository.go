package repositories

import (
	"errors"

	"github.com/codegouvfr/sill-sync/internal/database"
	"github.com/codegouvfr/sill-sync/internal/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type otherSoftwareExtraDataRepository struct {
	database.Repository[int, models.OtherSoftwareExtraData, *gorm.DB]
	db *gorm.DB
}

func NewOtherSoftwareExtraDataRepository(db *gorm.DB) *otherSoftwareExtraDataRepository {
	return &otherSoftwareExtraDataRepository{
		db:         db,
		Repository: database.NewGormRepository[int, models.OtherSoftwareExtraData](db),
	}
}

func (r *otherSoftwareExtraDataRepository) GetBySoftwareID(softwareID int) (*models.OtherSoftwareExtraData, error) {
	var data models.OtherSoftwareExtraData
	err := r.db.Where("software_id = ?", softwareID).First(&data).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &data, nil
}

func (r *otherSoftwareExtraDataRepository) Save(data *models.OtherSoftwareExtraData) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "software_id"}},
		UpdateAll: true,
	}).Create(data).Error
}
