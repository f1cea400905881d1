package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"venue-admin-backend/models"
)

type TemplateSeeder interface {
	CreateMissing(ctx context.Context, templates []models.MessageTemplate) (int64, error)
}

var stayDetails = map[models.ProductType]string{
	models.ProductOvernight: "▶ 입실: 오후 3시 / 퇴실: 익일 오전 11시",
	models.ProductDaytrip:   "▶ 입실: 오전 10시 / 퇴실: 오후 5시",
	models.ProductTraining:  "▶ 입실: 오후 3시 / 퇴실: 3일차 오전 11시",
}

var mealDetails = map[models.ProductType]string{
	models.ProductOvernight: "⏰ 저녁 식사: 18:30 시작",
	models.ProductDaytrip:   "⏰ 점심 식사: 12:00 시작",
	models.ProductTraining:  "⏰ 저녁 식사: 18:30 시작",
}

// DefaultTemplates returns a starter body for every product and standard trigger.
func DefaultTemplates() []models.MessageTemplate {
	var templates []models.MessageTemplate
	for _, product := range models.ProductTypes {
		label := product.Label()
		bodies := map[models.TriggerKind]string{
			models.TriggerDMinus1: fmt.Sprintf("[안내] {company_name} 담당자님, 내일 %s 이용 예정입니다.\n\n"+
				"▶ 일시: {use_date}\n▶ 인원: {people_count}명\n%s", label, stayDetails[product]),
			models.TriggerDDayMorning: fmt.Sprintf("[안내] {company_name} 담당자님, 오늘 %s 일정입니다.\n\n%s\n\n"+
				"문의: {phone}", label, stayDetails[product]),
			models.TriggerBeforeMeal: fmt.Sprintf("[안내] {company_name} 담당자님, 식사 안내드립니다.\n\n%s\n\n"+
				"즐거운 식사 되세요!", mealDetails[product]),
			models.TriggerBeforeClose: "[안내] {company_name} 담당자님, 퇴실 안내드립니다.\n\n" +
				"퇴실 시간을 지켜주세요.\n이용해 주셔서 감사합니다!",
		}
		for _, kind := range models.StandardTriggers {
			templates = append(templates, models.MessageTemplate{
				ProductType:    product,
				ScheduleType:   kind,
				MessageContent: bodies[kind],
				IsActive:       true,
			})
		}
	}
	return templates
}

// SeedTemplates inserts defaults for missing pairs and never overwrites edited ones.
func SeedTemplates(ctx context.Context, store TemplateSeeder, logger *zap.Logger) error {
	inserted, err := store.CreateMissing(ctx, DefaultTemplates())
	if err != nil {
		return fmt.Errorf("seed message templates: %w", err)
	}
	logger.Info("message templates seeded", zap.Int64("inserted", inserted))
	return nil
}
