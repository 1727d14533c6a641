// Package lifecycle validates booking requests and guards every later change
// to a booking: status transitions, field edits and deletion. Nothing here
// performs I/O.
package lifecycle

import "github.com/BurakkYuce/rental-backend/internal/domain"

var transitions = map[domain.Status][]domain.Status{
	domain.StatusPending:   {domain.StatusConfirmed, domain.StatusCancelled},
	domain.StatusConfirmed: {domain.StatusActive, domain.StatusCancelled},
	domain.StatusActive:    {domain.StatusCompleted},
	domain.StatusCompleted: {},
	domain.StatusCancelled: {},
}

// CanTransition reports whether from -> to is an edge of the lifecycle graph.
// Staying in the same status is not an edge.
func CanTransition(from, to domain.Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func IsTerminal(s domain.Status) bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

// NextStatuses returns the statuses reachable from s in one step.
func NextStatuses(s domain.Status) []domain.Status {
	next := transitions[s]
	out := make([]domain.Status, len(next))
	copy(out, next)
	return out
}

// Change is a requested update. Nil fields are left untouched; a non-nil
// empty Drivers slice is a request to clear the drivers.
type Change struct {
	Status          *domain.Status
	Drivers         []domain.Driver
	PickupLocation  *string
	DropoffLocation *string
}

func (c Change) IsEmpty() bool {
	return c.Status == nil && !c.touchesLockedFields()
}

func (c Change) touchesLockedFields() bool {
	return c.Drivers != nil || c.PickupLocation != nil || c.DropoffLocation != nil
}

// Check decides a change against the current status alone and returns the
// status the booking ends up in.
func Check(current domain.Status, change Change) (domain.Status, error) {
	target := current
	if change.Status != nil {
		target = *change.Status
	}

	if change.touchesLockedFields() && current != domain.StatusPending {
		return current, &TransitionError{Err: ErrBookingImmutable, From: current, To: target}
	}
	if change.Status != nil && !CanTransition(current, target) {
		return current, &TransitionError{Err: ErrInvalidStatusTransition, From: current, To: target}
	}
	return target, nil
}

// Apply returns the booking with change applied, or the reason it is
// rejected. The input booking is never modified.
func Apply(current domain.Booking, change Change) (domain.Booking, error) {
	status, err := Check(current.Status, change)
	if err != nil {
		return current, err
	}

	next := current
	next.Status = status
	if change.Drivers != nil {
		next.Drivers = make([]domain.Driver, len(change.Drivers))
		copy(next.Drivers, change.Drivers)
	}
	if change.PickupLocation != nil {
		next.PickupLocation = *change.PickupLocation
	}
	if change.DropoffLocation != nil {
		next.DropoffLocation = *change.DropoffLocation
	}
	return next, nil
}

// CanDelete allows physical deletion only before the booking was confirmed.
func CanDelete(status domain.Status) error {
	if status == domain.StatusPending {
		return nil
	}
	return &TransitionError{Err: ErrCannotDeleteConfirmedBooking, From: status, To: status}
}
