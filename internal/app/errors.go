package service

import "errors"

// Service errors.
var (
	ErrNoStore   = errors.New("service has no store")
	ErrScheduler = errors.New("scheduler setup failed")
)
