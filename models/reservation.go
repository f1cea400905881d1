package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductType string

const (
	ProductOvernight ProductType = "overnight"
	ProductDaytrip   ProductType = "daytrip"
	ProductTraining  ProductType = "training"
)

var ProductTypes = []ProductType{ProductOvernight, ProductDaytrip, ProductTraining}

func (p ProductType) Valid() bool {
	switch p {
	case ProductOvernight, ProductDaytrip, ProductTraining:
		return true
	}
	return false
}

// Label is the name shown to staff and in ops notifications.
func (p ProductType) Label() string {
	switch p {
	case ProductOvernight:
		return "1박2일 워크샵"
	case ProductDaytrip:
		return "당일 야유회"
	case ProductTraining:
		return "2박3일 수련회"
	}
	return string(p)
}

type PaymentStatus string

// PaymentCompleted is the only value that allows SMS dispatch.
// The stored value is "completed", never "paid".
const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPartial   PaymentStatus = "partial"
	PaymentCompleted PaymentStatus = "completed"
)

func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentPending, PaymentPartial, PaymentCompleted:
		return true
	}
	return false
}

type Reservation struct {
	ID            uuid.UUID     `gorm:"type:uuid;primary_key" json:"id"`
	UseDate       Date          `gorm:"type:date;index;not null" json:"use_date"`
	ProductType   ProductType   `gorm:"type:varchar(20);not null" json:"product_type"`
	PeopleCount   int           `gorm:"not null;default:0" json:"people_count"`
	CompanyName   string        `gorm:"type:varchar(200)" json:"company_name"`
	ManagerName   string        `gorm:"type:varchar(100);not null" json:"manager_name"`
	Phone         string        `gorm:"type:varchar(20);not null" json:"phone"`
	Email         string        `gorm:"type:varchar(200)" json:"email"`
	DepositAmount int64         `gorm:"not null;default:0" json:"deposit_amount"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"payment_status"`
	Notes         string        `gorm:"type:text" json:"notes"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (r *Reservation) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}

// DispatchAllowed reports whether notifications may be sent for this reservation.
func (r *Reservation) DispatchAllowed() bool {
	return r.PaymentStatus == PaymentCompleted
}
