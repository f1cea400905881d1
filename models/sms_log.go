package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SmsLogStatus string

const (
	SmsLogSent    SmsLogStatus = "sent"
	SmsLogFailed  SmsLogStatus = "failed"
	SmsLogSkipped SmsLogStatus = "skipped"
)

// SmsLog is the append-only audit record of one dispatch attempt.
type SmsLog struct {
	ID            uuid.UUID    `gorm:"type:uuid;primary_key" json:"id"`
	ReservationID *uuid.UUID   `gorm:"type:uuid;index" json:"reservation_id"`
	ScheduleID    *uuid.UUID   `gorm:"type:uuid;index" json:"schedule_id"`
	ScheduleType  TriggerKind  `gorm:"type:varchar(20)" json:"schedule_type"`
	Phone         string       `gorm:"type:varchar(20)" json:"phone"`
	Message       string       `gorm:"type:text" json:"message"`
	Status        SmsLogStatus `gorm:"type:varchar(20);index;not null" json:"status"`
	ResponseData  string       `gorm:"type:text" json:"response_data"`
	CreatedAt     time.Time    `gorm:"index" json:"created_at"`
}

func (l *SmsLog) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return
}
