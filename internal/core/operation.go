package core

// OperationID numbers operations by their input order, starting at 1.
type OperationID int

// Operation is a single pick-and-place job.
type Operation struct {
	ID    OperationID
	Pick  Point
	Place Point
	Dwell float64 // seconds spent at both the pick and the place
}
