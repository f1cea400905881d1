package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TriggerKind string

const (
	TriggerDMinus1     TriggerKind = "d_minus_1"
	TriggerDDayMorning TriggerKind = "d_day_morning"
	TriggerBeforeMeal  TriggerKind = "before_meal"
	TriggerBeforeClose TriggerKind = "before_close"

	// TriggerDMinus7 only exists on rows written by older releases.
	TriggerDMinus7 TriggerKind = "d_minus_7"
)

// StandardTriggers are the kinds created for every new reservation.
var StandardTriggers = []TriggerKind{
	TriggerDMinus1,
	TriggerDDayMorning,
	TriggerBeforeMeal,
	TriggerBeforeClose,
}

func (k TriggerKind) Label() string {
	switch k {
	case TriggerDMinus1:
		return "D-1 안내"
	case TriggerDDayMorning:
		return "당일 아침 안내"
	case TriggerBeforeMeal:
		return "식사 전 안내"
	case TriggerBeforeClose:
		return "퇴실 안내"
	case TriggerDMinus7:
		return "D-7 안내"
	}
	return string(k)
}

type ScheduleStatus string

const (
	ScheduleStatusPending  ScheduleStatus = "pending"
	ScheduleStatusInFlight ScheduleStatus = "in_flight"
	ScheduleStatusSent     ScheduleStatus = "sent"
	ScheduleStatusFailed   ScheduleStatus = "failed"
	ScheduleStatusSkipped  ScheduleStatus = "skipped"
)

var ErrInvalidTransition = errors.New("invalid schedule status transition")

func (s ScheduleStatus) Valid() bool {
	switch s {
	case ScheduleStatusPending, ScheduleStatusInFlight, ScheduleStatusSent, ScheduleStatusFailed, ScheduleStatusSkipped:
		return true
	}
	return false
}

func (s ScheduleStatus) IsTerminal() bool {
	return s == ScheduleStatusSent || s == ScheduleStatusFailed || s == ScheduleStatusSkipped
}

// ValidateTransition allows pending -> in_flight and {pending, in_flight} -> terminal.
// Terminal states never change again.
func ValidateTransition(from, to ScheduleStatus) error {
	switch from {
	case ScheduleStatusPending:
		if to == ScheduleStatusInFlight || to.IsTerminal() {
			return nil
		}
	case ScheduleStatusInFlight:
		if to.IsTerminal() {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// SmsSchedule is one pending notification for a reservation milestone.
type SmsSchedule struct {
	ID            uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	ReservationID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_schedule_reservation_type" json:"reservation_id"`
	ScheduleType  TriggerKind    `gorm:"type:varchar(20);not null;uniqueIndex:idx_schedule_reservation_type" json:"schedule_type"`
	ScheduledAt   time.Time      `gorm:"not null;index:idx_schedule_status_time,priority:2" json:"scheduled_at"`
	Status        ScheduleStatus `gorm:"type:varchar(20);not null;default:'pending';index:idx_schedule_status_time,priority:1" json:"status"`
	SentAt        *time.Time     `json:"sent_at"`

	Reservation *Reservation `gorm:"foreignKey:ReservationID" json:"reservation,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *SmsSchedule) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Status == "" {
		s.Status = ScheduleStatusPending
	}
	return
}
