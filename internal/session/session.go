package session

import (
	"github.com/google/uuid"

	"github.com/amanullahtanweer/voice-interview/internal/api"
)

// Phase is the lifecycle state of the interview session. It gates which
// transitions are legal.
type Phase string

const (
	PhaseNotStarted     Phase = "not_started"
	PhaseStarting       Phase = "starting"
	PhaseAwaitingAnswer Phase = "awaiting_answer"
	PhaseSubmitting     Phase = "submitting"
	PhaseReviewing      Phase = "reviewing"
	PhaseAdvancing      Phase = "advancing"
	PhaseSummarizing    Phase = "summarizing"
	PhaseEnded          Phase = "ended"
)

// Session is one interview's full lived state from start to summary or
// abandonment. Exactly one is live per machine; Reset replaces it instead of
// mutating it in place.
type Session struct {
	// Key is the local identity. It changes on every Reset, which is how
	// results of requests left in flight across a Reset get discarded.
	Key uuid.UUID
	// ID is the opaque token issued by the service. Immutable once set.
	ID         string
	Role       string
	Question   string
	AudioFile  string
	Transcript string
	Evaluation *api.Evaluation
	Summary    *api.Summary
	// Exhausted is set when the service reports no further questions.
	Exhausted bool
}

func newSession() Session {
	return Session{Key: uuid.New()}
}

// Failure is the transient error overlay. It records which phase control
// returned to and the message surfaced to the user; it never advances state.
type Failure struct {
	Phase  Phase
	Reason string
}

// Snapshot is a consistent copy of the machine's user-visible state.
type Snapshot struct {
	Phase   Phase
	Session Session
	Failure *Failure
}
