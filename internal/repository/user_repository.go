package repository

import (
	"errors"

	"github.com/google/uuid"
	"github.com/kratovich/reviewdb/internal/models"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.Where("email = ?", email).First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

func (r *UserRepository) GetByUsername(username string) (*models.User, error) {
	var user models.User
	err := r.db.Where("username = ?", username).First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

func (r *UserRepository) GetByID(id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.Where("id = ?", id).First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

// List returns a page of users ordered by username, optionally filtered by a
// username substring search, plus the total count for pagination.
func (r *UserRepository) List(search string, offset, limit int) ([]models.User, int64, error) {
	q := r.db.Model(&models.User{})
	if search != "" {
		q = q.Where("username LIKE ?", "%"+search+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := q.Order("username").Offset(offset).Limit(limit).Find(&users).Error
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *UserRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

func (r *UserRepository) Delete(id uuid.UUID) error {
	return r.db.Delete(&models.User{}, "id = ?", id).Error
}

// SetConfirmationCodeHash stores the hash of a freshly issued code.
func (r *UserRepository) SetConfirmationCodeHash(id uuid.UUID, hash string) error {
	return r.db.Model(&models.User{}).
		Where("id = ?", id).
		Update("confirmation_code_hash", hash).Error
}

// ConsumeConfirmationCode resets the stored code hash to the sentinel, but
// only if it still equals observedHash. The single conditional update means
// two concurrent exchanges cannot both consume the same one-time code.
// Returns true when this call performed the reset.
func (r *UserRepository) ConsumeConfirmationCode(id uuid.UUID, observedHash string) (bool, error) {
	res := r.db.Model(&models.User{}).
		Where("id = ? AND confirmation_code_hash = ?", id, observedHash).
		Update("confirmation_code_hash", models.NoConfirmationCode)

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
