package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MessageTemplate holds the body sent for one (product type, trigger kind) pair.
type MessageTemplate struct {
	ID             uuid.UUID   `gorm:"type:uuid;primary_key" json:"id"`
	ProductType    ProductType `gorm:"type:varchar(20);not null;uniqueIndex:idx_template_product_type" json:"product_type"`
	ScheduleType   TriggerKind `gorm:"type:varchar(20);not null;uniqueIndex:idx_template_product_type" json:"schedule_type"`
	MessageContent string      `gorm:"type:text;not null" json:"message_content"`
	IsActive       bool        `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (t *MessageTemplate) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return
}
