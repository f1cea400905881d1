package services

import "errors"

var (
	ErrInvalidScheduleConfig = errors.New("invalid schedule config")
	ErrReservationNotFound   = errors.New("reservation not found")
	ErrTemplateNotFound      = errors.New("message template not found")
	ErrGatewayFailure        = errors.New("sms gateway failure")
	ErrDispatchInProgress    = errors.New("sms dispatch already in progress")
)
