package repository

import (
	"context"

	"edms/internal/model"

	"gorm.io/gorm"
)

type AuditRepository interface {
	Log(ctx context.Context, entry *model.AuditLog) error
	List(ctx context.Context, unitUIC, entityID string, page, limit int) ([]model.AuditLog, int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Log(ctx context.Context, entry *model.AuditLog) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

// List returns a unit's audit entries newest first, optionally narrowed to one entity.
func (r *auditRepository) List(ctx context.Context, unitUIC, entityID string, page, limit int) ([]model.AuditLog, int64, error) {
	var logs []model.AuditLog
	var total int64

	db := GetDB(ctx, r.db)
	count := db.Model(&model.AuditLog{}).Where("unit_uic = ?", unitUIC)
	fetch := db.Preload("User").Where("unit_uic = ?", unitUIC)
	if entityID != "" {
		count = count.Where("entity_id = ?", entityID)
		fetch = fetch.Where("entity_id = ?", entityID)
	}
	if err := count.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := fetch.Order("created_at desc").Offset(offset).Limit(limit).Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}
