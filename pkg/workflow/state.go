// Package workflow tracks how far a notes sheet has progressed through
// matching, preparing and sending.
package workflow

import "fmt"

// Stage is the persisted workflow_state value.
type Stage int

const (
	Unmatched Stage = 0
	Matched   Stage = 1
	Prepared  Stage = 2
)

func (s Stage) String() string {
	switch s {
	case Unmatched:
		return "unmatched"
	case Matched:
		return "matched"
	case Prepared:
		return "prepared"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Phase is the user-visible position in the workflow. It folds the sent flag
// into the stage.
type Phase string

const (
	PhaseUnmatched Phase = "unmatched"
	PhaseMatched   Phase = "matched"
	PhasePrepared  Phase = "prepared"
	PhaseSent      Phase = "sent"
)

// Snapshot is the full persisted workflow: the stage plus the notes sent flag.
type Snapshot struct {
	Stage Stage
	Sent  bool
}

func (s Snapshot) Phase() Phase {
	switch {
	case s.Sent && s.Stage >= Prepared:
		return PhaseSent
	case s.Stage >= Prepared:
		return PhasePrepared
	case s.Stage >= Matched:
		return PhaseMatched
	}
	return PhaseUnmatched
}

// Event is a completed menu command.
type Event int

const (
	EventMatched Event = iota
	EventPrepared
	EventSent
	EventReset
)

func (e Event) String() string {
	switch e {
	case EventMatched:
		return "matched"
	case EventPrepared:
		return "prepared"
	case EventSent:
		return "sent"
	case EventReset:
		return "reset"
	}
	return fmt.Sprintf("event(%d)", int(e))
}

// Gate identifies which precondition blocked a command.
type Gate int

const (
	GateMatchFirst Gate = iota + 1
	GatePrepareFirst
	GateAlreadySent
)

// GateError reports a command attempted before the workflow allows it.
// Nothing has been changed when it is returned.
type GateError struct {
	Gate  Gate
	Event Event
}

func (e *GateError) Error() string {
	switch e.Gate {
	case GateMatchFirst:
		return fmt.Sprintf("workflow: %s requires matched client names", e.Event)
	case GatePrepareFirst:
		return fmt.Sprintf("workflow: %s requires prepared notes", e.Event)
	case GateAlreadySent:
		return fmt.Sprintf("workflow: %s blocked, notes already sent", e.Event)
	}
	return fmt.Sprintf("workflow: %s blocked", e.Event)
}

// Message is the alert text shown to the user.
func (e *GateError) Message() string {
	switch e.Gate {
	case GateMatchFirst:
		return "Please match up your client names to internal first!"
	case GatePrepareFirst:
		return "Please check that your notes are prepped! (body, links and all that)"
	case GateAlreadySent:
		return "Notes have already been sent to Flow PTR. To send again, please reset workflow state first."
	}
	return "This step is not available yet."
}

// Check reports whether ev may run from s without computing the next state.
func Check(s Snapshot, ev Event) error {
	_, err := Transition(s, ev)
	return err
}

// Transition returns the snapshot that results from ev completing on s.
// Matched and Prepared overwrite the stage rather than advancing it, so
// re-running an earlier step moves the workflow back to that step.
func Transition(s Snapshot, ev Event) (Snapshot, error) {
	switch ev {
	case EventMatched:
		s.Stage = Matched
		return s, nil
	case EventPrepared:
		if s.Stage < Matched {
			return s, &GateError{Gate: GateMatchFirst, Event: ev}
		}
		s.Stage = Prepared
		return s, nil
	case EventSent:
		if s.Stage < Matched {
			return s, &GateError{Gate: GateMatchFirst, Event: ev}
		}
		if s.Stage < Prepared {
			return s, &GateError{Gate: GatePrepareFirst, Event: ev}
		}
		if s.Sent {
			return s, &GateError{Gate: GateAlreadySent, Event: ev}
		}
		s.Sent = true
		return s, nil
	case EventReset:
		return Snapshot{}, nil
	}
	return s, fmt.Errorf("workflow: unknown event %d", int(ev))
}
