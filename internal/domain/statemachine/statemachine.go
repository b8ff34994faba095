package statemachine

import (
	"errors"
	"fmt"

	"mojster_trust/internal/domain/entities"
)

// EntityType selects which transition table applies.

type EntityType string

const (
	EntityInquiry EntityType = "inquiry"
	EntityOffer   EntityType = "offer"
	EntityEscrow  EntityType = "escrow_transaction"
)

var ErrUnknownEntityType = errors.New("unknown entity type")

// TerminalStateError is returned when a transition is attempted out of a
// terminal status. It is distinct from InvalidTransitionError so callers and
// audit trails can tell "tried to resurrect a closed deal" apart from an
// out-of-order transition.

type TerminalStateError struct {
	EntityType EntityType
	EntityID   string
	Current    string
	Target     string
}

func (e *TerminalStateError) Error() string {
	return fmt.Sprintf("%s %s: status %q is terminal, cannot transition to %q", e.EntityType, e.EntityID, e.Current, e.Target)
}

// InvalidTransitionError is returned for a disallowed edge between two
// non-terminal statuses.

type InvalidTransitionError struct {
	EntityType EntityType
	EntityID   string
	Current    string
	Target     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s %s: invalid transition %q -> %q", e.EntityType, e.EntityID, e.Current, e.Target)
}

// Transition tables. A status absent from its table, or mapped to an empty
// set, is terminal.
var (
	inquiryTransitions = map[string][]string{
		string(entities.InquiryStatusPending):       {string(entities.InquiryStatusOfferReceived), string(entities.InquiryStatusClosed)},
		string(entities.InquiryStatusOfferReceived): {string(entities.InquiryStatusAccepted), string(entities.InquiryStatusPending)},
		string(entities.InquiryStatusAccepted):      {string(entities.InquiryStatusCompleted), string(entities.InquiryStatusClosed)},
		string(entities.InquiryStatusCompleted):     {},
		string(entities.InquiryStatusClosed):        {},
	}

	offerTransitions = map[string][]string{
		string(entities.OfferStatusPoslana):   {string(entities.OfferStatusSprejeta), string(entities.OfferStatusZavrnjena)},
		string(entities.OfferStatusSprejeta):  {},
		string(entities.OfferStatusZavrnjena): {},
	}

	escrowTransitions = map[string][]string{
		string(entities.EscrowStatusPending):  {string(entities.EscrowStatusPaid), string(entities.EscrowStatusFailed)},
		string(entities.EscrowStatusPaid):     {string(entities.EscrowStatusReleased), string(entities.EscrowStatusDisputed), string(entities.EscrowStatusRefunded)},
		string(entities.EscrowStatusDisputed): {string(entities.EscrowStatusRefunded), string(entities.EscrowStatusPaid)},
		string(entities.EscrowStatusReleased): {},
		string(entities.EscrowStatusRefunded): {},
		string(entities.EscrowStatusFailed):   {},
	}

	tables = map[EntityType]map[string][]string{
		EntityInquiry: inquiryTransitions,
		EntityOffer:   offerTransitions,
		EntityEscrow:  escrowTransitions,
	}
)

// AssertTransition checks whether the given entity may move from current to
// target. It performs no I/O; the caller fetches the current status and
// persists the new one.
func AssertTransition(et EntityType, entityID, current, target string) error {
	table, ok := tables[et]
	if !ok {
		return ErrUnknownEntityType
	}

	// Terminal check first: leaving a terminal state is its own failure kind.
	allowed, known := table[current]
	if !known || len(allowed) == 0 {
		return &TerminalStateError{EntityType: et, EntityID: entityID, Current: current, Target: target}
	}

	for _, s := range allowed {
		if s == target {
			return nil
		}
	}
	return &InvalidTransitionError{EntityType: et, EntityID: entityID, Current: current, Target: target}
}

// IsTerminal reports whether the status permits no further transitions for
// the given entity type. Unknown statuses are treated as terminal.
func IsTerminal(et EntityType, status string) bool {
	table, ok := tables[et]
	if !ok {
		return true
	}
	return len(table[status]) == 0
}

// Statuses returns every status known to the entity's transition table.
func Statuses(et EntityType) []string {
	table := tables[et]
	out := make([]string, 0, len(table))
	for s := range table {
		out = append(out, s)
	}
	return out
}
