package repository

import (
	"context"
	"errors"

	"edms/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRepository defines the interface for data access of roster entries
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	ListByUnit(ctx context.Context, unitUIC string) ([]model.User, error)
	List(ctx context.Context, unitUIC string, page, limit int) ([]model.User, int64, error)
	Upsert(ctx context.Context, user *model.User) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new instance of UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ListByUnit returns the full roster of a unit, used for reviewer resolution.
func (r *userRepository) ListByUnit(ctx context.Context, unitUIC string) ([]model.User, error) {
	var users []model.User
	if err := GetDB(ctx, r.db).Where("unit_uic = ?", unitUIC).Order("name").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) List(ctx context.Context, unitUIC string, page, limit int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	db := GetDB(ctx, r.db)
	count := db.Model(&model.User{})
	fetch := db.Order("name")
	if unitUIC != "" {
		count = count.Where("unit_uic = ?", unitUIC)
		fetch = fetch.Where("unit_uic = ?", unitUIC)
	}

	// Count total records
	if err := count.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	// Fetch paginated data
	if err := fetch.Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// Upsert inserts a new roster entry or overwrites an existing one by id.
func (r *userRepository) Upsert(ctx context.Context, user *model.User) error {
	db := GetDB(ctx, r.db)
	if user.ID == uuid.Nil {
		return db.Create(user).Error
	}
	return db.Save(user).Error
}
