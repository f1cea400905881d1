package services

import (
	"strconv"
	"strings"

	"venue-admin-backend/models"
)

// TemplateFields are the values substituted into a message template.
type TemplateFields struct {
	CompanyName string
	ManagerName string
	Phone       string
	UseDate     string
	PeopleCount int
}

func FieldsFromReservation(r *models.Reservation) TemplateFields {
	return TemplateFields{
		CompanyName: r.CompanyName,
		ManagerName: r.ManagerName,
		Phone:       r.Phone,
		UseDate:     r.UseDate.String(),
		PeopleCount: r.PeopleCount,
	}
}

// Render replaces the five known placeholders. A missing company name falls back
// to the manager name; other missing values become empty. Unknown tokens are left alone.
func Render(body string, f TemplateFields) string {
	company := f.CompanyName
	if company == "" {
		company = f.ManagerName
	}
	people := ""
	if f.PeopleCount != 0 {
		people = strconv.Itoa(f.PeopleCount)
	}

	return strings.NewReplacer(
		"{company_name}", company,
		"{manager_name}", f.ManagerName,
		"{phone}", f.Phone,
		"{use_date}", f.UseDate,
		"{people_count}", people,
	).Replace(body)
}

// DisplayName is how a reservation is named in ops messages and dispatch results.
func DisplayName(r *models.Reservation) string {
	if r.CompanyName != "" {
		return r.CompanyName
	}
	return r.ManagerName
}
