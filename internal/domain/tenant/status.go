package tenant

// Status is the lifecycle state of a tenant. Transitions are initiated by
// platform operators; request handling only reads it.
type Status string

const (
	StatusTrial     Status = "trial"
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusCancelled Status = "cancelled"
)

var validTransitions = map[Status][]Status{
	StatusTrial:     {StatusActive, StatusSuspended, StatusCancelled},
	StatusActive:    {StatusSuspended, StatusCancelled},
	StatusSuspended: {StatusActive, StatusTrial, StatusCancelled},
	StatusCancelled: {StatusActive},
}

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	_, ok := validTransitions[s]
	return ok
}

func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}
