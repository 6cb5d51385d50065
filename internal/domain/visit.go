// Package domain holds the visit lifecycle rules and the domain events that
// decouple durable writes from their side effects.
package domain

import "armonia.dev/intercom/internal/models"

// Transition names, used in error params and audit entries.
const (
	TransitionNotify        = "NOTIFY"
	TransitionApprove       = "APPROVE"
	TransitionReject        = "REJECT"
	TransitionRegisterEntry = "REGISTER_ENTRY"
	TransitionRegisterExit  = "REGISTER_EXIT"
	TransitionCancel        = "CANCEL"
)

// transitions is the legality table of the visit state machine:
//
//	PENDING → NOTIFIED → APPROVED | REJECTED → IN_PROGRESS → COMPLETED
//
// CANCELLED is reachable from any state before entry is recorded. Approval
// and rejection stay legal from PENDING so auto-approval can fire before any
// notification goes out, and re-application of the same decision is allowed
// (idempotent approve/approve, last-write-wins approve/reject).
var transitions = map[models.VisitStatus][]models.VisitStatus{
	models.VisitStatusPending: {
		models.VisitStatusNotified,
		models.VisitStatusApproved,
		models.VisitStatusRejected,
		models.VisitStatusCancelled,
	},
	models.VisitStatusNotified: {
		models.VisitStatusApproved,
		models.VisitStatusRejected,
		models.VisitStatusCancelled,
	},
	models.VisitStatusApproved: {
		models.VisitStatusApproved,
		models.VisitStatusRejected,
		models.VisitStatusInProgress,
		models.VisitStatusCancelled,
	},
	models.VisitStatusRejected: {
		models.VisitStatusApproved,
		models.VisitStatusRejected,
		models.VisitStatusCancelled,
	},
	models.VisitStatusInProgress: {
		models.VisitStatusCompleted,
	},
}

// CanTransition reports whether moving a visit from one status to another is
// legal under the state machine.
func CanTransition(from, to models.VisitStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a visit status admits no further transitions.
func IsTerminal(s models.VisitStatus) bool {
	return len(transitions[s]) == 0
}
