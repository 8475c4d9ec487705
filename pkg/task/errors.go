package task

import "errors"

// Task errors.
var (
	// ErrInvalidTime is returned for clock times not in "HH:MM" form.
	ErrInvalidTime = errors.New("task: invalid time, expected HH:MM")

	// ErrInvalidCron is returned for cron expressions that fail to parse.
	ErrInvalidCron = errors.New("task: invalid cron expression")

	// ErrInvalidSchedule is returned when a schedule predicate is out of range.
	ErrInvalidSchedule = errors.New("task: invalid schedule")
)
