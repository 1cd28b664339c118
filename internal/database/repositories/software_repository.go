package repositories

import (
	"time"

	"github.com/codegouvfr/sill-sync/internal/database"
	"github.com/codegouvfr/sill-sync/internal/database/models"
	"gorm.io/gorm"
)

type softwareRepository struct {
	database.Repository[int, models.Software, *gorm.DB]
	db *gorm.DB
}

func NewSoftwareRepository(db *gorm.DB) *softwareRepository {
	return &softwareRepository{
		db:         db,
		Repository: database.NewGormRepository[int, models.Software](db),
	}
}

func (r *softwareRepository) GetByID(id int) (models.Software, error) {
	var software models.Software
	err := r.db.Where("id = ?", id).First(&software).Error
	return software, err
}

// SoftwareWithLinkedIDs carries a software together with the external ids of
// its parent and of the declared similar softwares.
type SoftwareWithLinkedIDs struct {
	models.Software
	ParentExternalID   *string
	SimilarExternalIDs []string
}

func (r *softwareRepository) GetByIDWithLinkedSoftwareIDs(id int) (SoftwareWithLinkedIDs, error) {
	var software models.Software
	if err := r.db.Where("id = ?", id).First(&software).Error; err != nil {
		return SoftwareWithLinkedIDs{}, err
	}

	result := SoftwareWithLinkedIDs{Software: software}

	if software.ParentSoftwareID != nil {
		var parent models.Software
		if err := r.db.Where("id = ?", *software.ParentSoftwareID).First(&parent).Error; err == nil {
			result.ParentExternalID = parent.ExternalID
		}
	}

	var similars []models.SimilarSoftwareExternalID
	if err := r.db.Where("software_id = ?", id).Find(&similars).Error; err != nil {
		return SoftwareWithLinkedIDs{}, err
	}
	for _, s := range similars {
		result.SimilarExternalIDs = append(result.SimilarExternalIDs, s.SimilarExternalID)
	}

	return result, nil
}

// GetAllStale returns all referenced (non-dereferenced) softwares whose last
// extra-data fetch is older than the staleness window, or never happened.
func (r *softwareRepository) GetAllStale(staleness time.Duration) ([]models.Software, error) {
	var softwares []models.Software
	cutoff := time.Now().Add(-staleness)
	err := r.db.
		Where("dereferencing_time IS NULL").
		Where("last_extra_data_fetch_at IS NULL OR last_extra_data_fetch_at < ?", cutoff).
		Order("id ASC").
		Find(&softwares).Error
	return softwares, err
}

func (r *softwareRepository) UpdateLastExtraDataFetchAt(id int) error {
	return r.db.Model(&models.Software{}).
		Where("id = ?", id).
		Update("last_extra_data_fetch_at", time.Now()).Error
}
