package core

import "errors"

var (
	// ErrInvalidKinematics is returned when a robot's linear speed or
	// acceleration limit is not strictly positive.
	ErrInvalidKinematics = errors.New("invalid kinematics")

	// ErrUnreachable is returned in strict mode when a pick or place point
	// lies outside a robot's reach envelope.
	ErrUnreachable = errors.New("target outside reach envelope")

	// ErrEmptyFleet is returned when operations exist but no robot can take them.
	ErrEmptyFleet = errors.New("no robots in cell")

	// ErrSampleBudget is returned when a time grid over the schedules would
	// need more samples than allowed.
	ErrSampleBudget = errors.New("sample budget exceeded")

	// ErrEmptySchedule is returned when a schedule has no waypoints.
	ErrEmptySchedule = errors.New("empty schedule")
)
