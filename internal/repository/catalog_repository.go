package repository

import (
	"errors"

	"github.com/kratovich/reviewdb/internal/models"
	"gorm.io/gorm"
)

// CategoryRepository and GenreRepository are structurally identical; the
// models stay separate tables because titles reference them differently
// (one category SET NULL, many genres through a join table).

type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) Create(category *models.Category) error {
	return r.db.Create(category).Error
}

func (r *CategoryRepository) GetBySlug(slug string) (*models.Category, error) {
	var category models.Category
	err := r.db.Where("slug = ?", slug).First(&category).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &category, nil
}

func (r *CategoryRepository) List(search string, offset, limit int) ([]models.Category, int64, error) {
	q := r.db.Model(&models.Category{})
	if search != "" {
		q = q.Where("name LIKE ?", "%"+search+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var categories []models.Category
	err := q.Order("name").Offset(offset).Limit(limit).Find(&categories).Error
	if err != nil {
		return nil, 0, err
	}

	return categories, total, nil
}

// Delete removes the category; titles referencing it keep existing with a
// null category (SET NULL constraint).
func (r *CategoryRepository) Delete(id uint) error {
	if err := r.db.Model(&models.Title{}).
		Where("category_id = ?", id).
		Update("category_id", nil).Error; err != nil {
		return err
	}
	return r.db.Delete(&models.Category{}, id).Error
}

type GenreRepository struct {
	db *gorm.DB
}

func NewGenreRepository(db *gorm.DB) *GenreRepository {
	return &GenreRepository{db: db}
}

func (r *GenreRepository) Create(genre *models.Genre) error {
	return r.db.Create(genre).Error
}

func (r *GenreRepository) GetBySlug(slug string) (*models.Genre, error) {
	var genre models.Genre
	err := r.db.Where("slug = ?", slug).First(&genre).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &genre, nil
}

func (r *GenreRepository) GetBySlugs(slugs []string) ([]models.Genre, error) {
	var genres []models.Genre
	err := r.db.Where("slug IN ?", slugs).Find(&genres).Error
	if err != nil {
		return nil, err
	}
	return genres, nil
}

func (r *GenreRepository) List(search string, offset, limit int) ([]models.Genre, int64, error) {
	q := r.db.Model(&models.Genre{})
	if search != "" {
		q = q.Where("name LIKE ?", "%"+search+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var genres []models.Genre
	err := q.Order("name").Offset(offset).Limit(limit).Find(&genres).Error
	if err != nil {
		return nil, 0, err
	}

	return genres, total, nil
}

func (r *GenreRepository) Delete(id uint) error {
	if err := r.db.Exec("DELETE FROM title_genres WHERE genre_id = ?", id).Error; err != nil {
		return err
	}
	return r.db.Delete(&models.Genre{}, id).Error
}
