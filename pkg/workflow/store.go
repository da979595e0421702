package workflow

import (
	"fmt"
	"strconv"
	"strings"

	"bakedtools/pkg/props"

	log "github.com/sirupsen/logrus"
)

const (
	KeyWorkflowState = "workflow_state"
	KeyNotesSent     = "notes_sent_state"
)

// Store persists a Snapshot as two decimal properties.
type Store struct {
	props props.Store
}

func NewStore(p props.Store) *Store {
	return &Store{props: p}
}

func (s *Store) Load() (Snapshot, error) {
	stage, err := s.readInt(KeyWorkflowState)
	if err != nil {
		return Snapshot{}, err
	}
	sent, err := s.readInt(KeyNotesSent)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Stage: Stage(stage), Sent: sent == 1}, nil
}

func (s *Store) Save(snap Snapshot) error {
	if err := s.props.Set(KeyWorkflowState, strconv.Itoa(int(snap.Stage))); err != nil {
		return fmt.Errorf("save %s: %w", KeyWorkflowState, err)
	}
	sent := "0"
	if snap.Sent {
		sent = "1"
	}
	if err := s.props.Set(KeyNotesSent, sent); err != nil {
		return fmt.Errorf("save %s: %w", KeyNotesSent, err)
	}
	return nil
}

// Apply validates ev against the stored snapshot, then persists the result.
func (s *Store) Apply(ev Event) (Snapshot, error) {
	cur, err := s.Load()
	if err != nil {
		return Snapshot{}, err
	}
	next, err := Transition(cur, ev)
	if err != nil {
		return cur, err
	}
	if err := s.Save(next); err != nil {
		return cur, err
	}
	log.WithFields(log.Fields{
		"event": ev.String(),
		"from":  cur.Phase(),
		"to":    next.Phase(),
	}).Debug("workflow advanced")
	return next, nil
}

// Reset writes the zero snapshot without reading the stored one, so it
// succeeds even when the old values cannot be read.
func (s *Store) Reset() (Snapshot, error) {
	next, _ := Transition(Snapshot{}, EventReset)
	if err := s.Save(next); err != nil {
		return Snapshot{}, err
	}
	log.WithField("event", EventReset.String()).Debug("workflow reset")
	return next, nil
}

// Absent or unparsable values read as 0.
func (s *Store) readInt(key string) (int, error) {
	raw, ok, err := s.props.Get(key)
	if err != nil {
		return 0, fmt.Errorf("load %s: %w", key, err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		log.Warnf("ignoring malformed %s value %q", key, raw)
		return 0, nil
	}
	return n, nil
}
