package repository

import (
	"errors"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Page normalises pagination input to 1-based page and a bounded page size.
type Page struct {
	Page  int
	Limit int
}

func (p Page) normalise(defaultLimit, maxLimit int) Page {
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	if p.Page < 1 {
		p.Page = 1
	}
	return p
}

func (p Page) offset() int {
	return (p.Page - 1) * p.Limit
}
