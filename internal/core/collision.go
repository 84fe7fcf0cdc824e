package core

import "fmt"

// CollisionEvent records a sampled instant at which two tools are closer
// than the minimum safe distance. A precedes B in declared robot order.
type CollisionEvent struct {
	T        float64 `json:"t"` // seconds
	A        RobotID `json:"a"`
	B        RobotID `json:"b"`
	Distance float64 `json:"distance"`
}

func (e CollisionEvent) String() string {
	return fmt.Sprintf("t=%.3fs %s/%s d=%.3fm", e.T, e.A, e.B, e.Distance)
}
