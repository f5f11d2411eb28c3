package membership

import "github.com/google/uuid"

// Reason explains why a join is not allowed.
type Reason string

const (
	ReasonAlreadyMember         Reason = "already_member"
	ReasonOneProjectPerSemester Reason = "one_project_per_semester"
	ReasonProjectClosed         Reason = "project_closed"
	ReasonProjectFull           Reason = "project_full"
)

// Decision is the outcome of CanJoin.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  Reason `json:"reason,omitempty"`

	// ConflictProjectID names the other project for ReasonOneProjectPerSemester.
	ConflictProjectID uuid.UUID `json:"conflict_project_id,omitempty"`
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason Reason) Decision {
	return Decision{Reason: reason}
}

// Err returns the domain error matching the decision, or nil when allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	switch d.Reason {
	case ReasonAlreadyMember:
		return ErrAlreadyMember
	case ReasonOneProjectPerSemester:
		return ErrOneProjectPerSemester
	case ReasonProjectClosed:
		return ErrProjectClosed
	default:
		return ErrProjectFull
	}
}

// Outcome returns a metrics label for the decision.
func (d Decision) Outcome() string {
	if d.Allowed {
		return "allowed"
	}
	return string(d.Reason)
}
