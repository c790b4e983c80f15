package repository

import (
	"context"
	"errors"
	"fmt"

	"edms/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RequestFilter narrows List. Zero values mean "any".
type RequestFilter struct {
	UnitUIC      string
	Stage        model.Stage
	UploadedByID uuid.UUID
	Filed        *bool
	Page         int
	Limit        int // <= 0 returns every match
}

// RequestRepository persists requests together with their activity log.
type RequestRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Request, error)
	List(ctx context.Context, filter RequestFilter) ([]model.Request, int64, error)
	Upsert(ctx context.Context, req *model.Request) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type requestRepository struct {
	db *gorm.DB
}

// NewRequestRepository returns a gorm-backed RequestRepository
func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func preloadActivity(db *gorm.DB) *gorm.DB {
	return db.Preload("Activity", func(db *gorm.DB) *gorm.DB {
		return db.Order("seq ASC")
	})
}

func (r *requestRepository) Get(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	var req model.Request
	if err := preloadActivity(GetDB(ctx, r.db)).First(&req, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) List(ctx context.Context, filter RequestFilter) ([]model.Request, int64, error) {
	var reqs []model.Request
	var total int64

	db := GetDB(ctx, r.db)
	scope := func(q *gorm.DB) *gorm.DB {
		if filter.UnitUIC != "" {
			q = q.Where("unit_uic = ?", filter.UnitUIC)
		}
		if filter.Stage != "" {
			q = q.Where("current_stage = ?", filter.Stage)
		}
		if filter.UploadedByID != uuid.Nil {
			q = q.Where("uploaded_by_id = ?", filter.UploadedByID)
		}
		if filter.Filed != nil {
			if *filter.Filed {
				q = q.Where("filed_at IS NOT NULL")
			} else {
				q = q.Where("filed_at IS NULL")
			}
		}
		return q
	}

	if err := db.Model(&model.Request{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	fetch := preloadActivity(db).Scopes(scope).Order("created_at DESC")
	if filter.Limit > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		fetch = fetch.Offset((page - 1) * filter.Limit).Limit(filter.Limit)
	}
	if err := fetch.Find(&reqs).Error; err != nil {
		return nil, 0, err
	}
	return reqs, total, nil
}

// Upsert inserts req, or updates it when req.Version matches the stored row.
// Only activity entries beyond the stored ones are written. On success
// req.Version holds the new version.
func (r *requestRepository) Upsert(ctx context.Context, req *model.Request) error {
	return inTx(ctx, r.db, func(tx *gorm.DB) error {
		var stored model.Request
		err := tx.Select("id", "version").First(&stored, "id = ?", req.ID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return r.create(tx, req)
		case err != nil:
			return err
		}

		if stored.Version != req.Version {
			return ErrVersionConflict
		}

		var count int64
		if err := tx.Model(&model.Activity{}).Where("request_id = ?", req.ID).Count(&count).Error; err != nil {
			return err
		}
		if int64(len(req.Activity)) < count {
			return ErrActivityRewritten
		}

		expected := req.Version
		req.Version = expected + 1
		res := tx.Model(req).
			Where("version = ?", expected).
			Select("*").
			Omit(clause.Associations, "id", "created_at").
			Updates(req)
		if res.Error != nil {
			req.Version = expected
			return res.Error
		}
		if res.RowsAffected == 0 {
			req.Version = expected
			return ErrVersionConflict
		}
		if err := insertActivity(tx, req, int(count)); err != nil {
			req.Version = expected
			return err
		}
		return nil
	})
}

func (r *requestRepository) create(tx *gorm.DB, req *model.Request) error {
	req.Version = 1
	if err := tx.Omit(clause.Associations).Create(req).Error; err != nil {
		req.Version = 0
		return err
	}
	if err := insertActivity(tx, req, 0); err != nil {
		req.Version = 0
		return err
	}
	return nil
}

func insertActivity(tx *gorm.DB, req *model.Request, from int) error {
	if from >= len(req.Activity) {
		return nil
	}
	for i := from; i < len(req.Activity); i++ {
		req.Activity[i].RequestID = req.ID
		req.Activity[i].Seq = i
	}
	fresh := req.Activity[from:]
	if err := tx.Create(&fresh).Error; err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	return nil
}

func (r *requestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return inTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Where("request_id = ?", id).Delete(&model.Activity{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Request{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
