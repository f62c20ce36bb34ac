package service

import "errors"

var (
	ErrMissingContactInfo = errors.New("user has no contact email")
	ErrIllegalTransition  = errors.New("illegal order status transition")
	ErrIllegalState       = errors.New("cannot cancel a shipped or delivered order")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrInvalidSignature   = errors.New("webhook signature verification failed")
	ErrInvalidSnapshot    = errors.New("pricing snapshot does not add up")
)
