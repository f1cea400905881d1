package services

import (
	"fmt"
	"time"

	"venue-admin-backend/models"
	"venue-admin-backend/utils"
)

type scheduleOffset struct {
	days  int
	clock string
}

// scheduleTable holds the day offset from the use date and the KST wall clock
// for every supported (product, trigger) pair.
var scheduleTable = map[models.ProductType]map[models.TriggerKind]scheduleOffset{
	models.ProductOvernight: {
		models.TriggerDMinus1:     {-1, "10:00"},
		models.TriggerDDayMorning: {0, "08:00"},
		models.TriggerBeforeMeal:  {0, "17:30"},
		models.TriggerBeforeClose: {1, "10:00"},
	},
	models.ProductDaytrip: {
		models.TriggerDMinus1:     {-1, "10:00"},
		models.TriggerDDayMorning: {0, "08:00"},
		models.TriggerBeforeMeal:  {0, "11:30"},
		models.TriggerBeforeClose: {0, "16:00"},
	},
	models.ProductTraining: {
		models.TriggerDMinus1:     {-1, "10:00"},
		models.TriggerDDayMorning: {0, "08:00"},
		models.TriggerBeforeMeal:  {0, "17:30"},
		models.TriggerBeforeClose: {2, "10:00"},
	},
}

// ComputeScheduledInstant returns the UTC instant at which a notification of the
// given kind is due for a reservation on useDate.
func ComputeScheduledInstant(useDate models.Date, product models.ProductType, kind models.TriggerKind) (time.Time, error) {
	offset, ok := scheduleTable[product][kind]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: product=%s trigger=%s", ErrInvalidScheduleConfig, product, kind)
	}
	return utils.KSTTime(useDate.AddDays(offset.days).String(), offset.clock)
}
