package repositories

import (
	"github.com/codegouvfr/sill-sync/internal/database"
	"github.com/codegouvfr/sill-sync/internal/database/models"
	"gorm.io/gorm"
)

type sourceRepository struct {
	database.Repository[string, models.Source, *gorm.DB]
	db *gorm.DB
}

func NewSourceRepository(db *gorm.DB) *sourceRepository {
	return &sourceRepository{
		db:         db,
		Repository: database.NewGormRepository[string, models.Source](db),
	}
}

func (r *sourceRepository) GetAll() ([]models.Source, error) {
	var sources []models.Source
	err := r.db.Order("priority ASC").Find(&sources).Error
	return sources, err
}

func (r *sourceRepository) GetBySlug(slug string) (models.Source, error) {
	var source models.Source
	err := r.db.Where("slug = ?", slug).First(&source).Error
	return source, err
}

func (r *sourceRepository) GetWikidataSource() (models.Source, error) {
	var source models.Source
	err := r.db.Where("kind = ?", models.SourceKindWikidata).Order("priority ASC").First(&source).Error
	return source, err
}

// GetByKind returns the highest-priority source of the given kind.
func (r *sourceRepository) GetByKind(kind models.SourceKind) (models.Source, error) {
	var source models.Source
	err := r.db.Where("kind = ?", kind).Order("priority ASC").First(&source).Error
	return source, err
}
