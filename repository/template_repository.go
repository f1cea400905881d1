package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"venue-admin-backend/models"
)

type TemplateRepository interface {
	Find(ctx context.Context, product models.ProductType, kind models.TriggerKind) (*models.MessageTemplate, error)
	List(ctx context.Context) ([]models.MessageTemplate, error)
	UpdateContent(ctx context.Context, id uuid.UUID, content string) (*models.MessageTemplate, error)
	// CreateMissing inserts templates whose (product, kind) pair is not stored yet.
	CreateMissing(ctx context.Context, templates []models.MessageTemplate) (int64, error)
}

type templateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) Find(ctx context.Context, product models.ProductType, kind models.TriggerKind) (*models.MessageTemplate, error) {
	var tpl models.MessageTemplate
	err := r.db.WithContext(ctx).
		Where("product_type = ? AND schedule_type = ? AND is_active = ?", product, kind, true).
		First(&tpl).Error
	if err != nil {
		return nil, translate(err)
	}
	return &tpl, nil
}

func (r *templateRepository) List(ctx context.Context) ([]models.MessageTemplate, error) {
	var templates []models.MessageTemplate
	err := r.db.WithContext(ctx).
		Order("product_type ASC, schedule_type ASC").
		Find(&templates).Error
	return templates, err
}

func (r *templateRepository) UpdateContent(ctx context.Context, id uuid.UUID, content string) (*models.MessageTemplate, error) {
	res := r.db.WithContext(ctx).
		Model(&models.MessageTemplate{}).
		Where("id = ?", id).
		Update("message_content", content)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	var tpl models.MessageTemplate
	if err := r.db.WithContext(ctx).First(&tpl, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &tpl, nil
}

func (r *templateRepository) CreateMissing(ctx context.Context, templates []models.MessageTemplate) (int64, error) {
	if len(templates) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_type"}, {Name: "schedule_type"}},
			DoNothing: true,
		}).
		Create(&templates)
	return res.RowsAffected, res.Error
}
