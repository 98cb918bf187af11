package cron

import "errors"

var (
	ErrInvalidJob       = errors.New("cron: invalid job")
	ErrDuplicateJob     = errors.New("cron: duplicate job")
	ErrInvalidSchedule  = errors.New("cron: invalid schedule")
	ErrUnknownJob       = errors.New("cron: unknown job")
	ErrBadContribution  = errors.New("cron: contribution is not a Job or []Job")
	ErrSchedulerStopped = errors.New("cron: scheduler stopped")
)
