package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"bakedtools/pkg/flowptr"
	"bakedtools/pkg/notes"
	"bakedtools/pkg/sheets"
	"bakedtools/pkg/workflow"

	log "github.com/sirupsen/logrus"
)

// ErrSyncFailed marks errors from the Flow PTR call. The workflow is left
// as it was, so the send can simply be retried.
var ErrSyncFailed = errors.New("notes sync failed")

var nowFunc = time.Now

// Tools runs the menu commands against one workbook. Commands never
// overlap: each holds the lock for its whole run.
type Tools struct {
	mu       sync.Mutex
	workbook sheets.Workbook
	workflow *workflow.Store
	identity Identity
	syncer   Syncer
}

func NewTools(wb sheets.Workbook, wf *workflow.Store, id Identity, syncer Syncer) *Tools {
	return &Tools{
		workbook: wb,
		workflow: wf,
		identity: id,
		syncer:   syncer,
	}
}

// MatchClientNames realigns client versions and notes against the internal
// version codes. It has no precondition.
func (t *Tools) MatchClientNames(ctx context.Context) (Notice, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	sheet, err := t.workbook.ActiveSheet(ctx)
	if err != nil {
		return failed("Failed to match client names", err), err
	}
	summary, err := notes.MatchSheet(ctx, sheet)
	if err != nil {
		return failed("Failed to match client names", err), err
	}
	snap, err := t.workflow.Apply(workflow.EventMatched)
	if err != nil {
		return failed("Failed to save workflow state", err), err
	}

	log.WithFields(log.Fields{
		"sheet":     sheet.Name(),
		"rows":      summary.Rows,
		"matched":   summary.Matched,
		"unmatched": summary.Unmatched,
	}).Info("matched client names")

	return Notice{
		Level:   LevelSuccess,
		Title:   "Success",
		Message: "Client names matched to internal versions successfully.",
		Phase:   snap.Phase(),
	}, nil
}

func (t *Tools) PrepareNotes(ctx context.Context) (Notice, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap, err := t.gate(workflow.EventPrepared)
	if err != nil {
		return refused(snap, err), err
	}

	sheet, err := t.workbook.ActiveSheet(ctx)
	if err != nil {
		return failed("Failed to prepare notes", err), err
	}
	summary, err := notes.PrepareSheet(ctx, sheet)
	if err != nil {
		return failed("Failed to prepare notes", err), err
	}
	snap, err = t.workflow.Apply(workflow.EventPrepared)
	if err != nil {
		return failed("Failed to save workflow state", err), err
	}

	log.WithFields(log.Fields{
		"sheet":   sheet.Name(),
		"filled":  summary.Filled,
		"cleared": summary.Cleared,
	}).Info("prepared notes")

	return Notice{
		Level:   LevelSuccess,
		Title:   "Success",
		Message: "Notes prepared successfully.",
		Phase:   snap.Phase(),
	}, nil
}

// SendNotes asks Flow PTR to pull the notes sheet. It is allowed once per
// prepared workflow; a failed attempt leaves the workflow untouched.
func (t *Tools) SendNotes(ctx context.Context) (Notice, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap, err := t.gate(workflow.EventSent)
	if err != nil {
		return refused(snap, err), err
	}

	email, err := t.identity.UserEmail(ctx)
	if err == nil && strings.TrimSpace(email) == "" {
		err = ErrNoIdentity
	}
	if err != nil {
		return failed("Failed to sync notes", err), err
	}
	req := flowptr.NewSyncRequest(t.workbook.ID(), email, nowFunc())

	if _, sendErr := t.syncer.Send(ctx, req); sendErr != nil {
		err := fmt.Errorf("%w: %w", ErrSyncFailed, sendErr)
		var remote *flowptr.RemoteError
		if errors.As(sendErr, &remote) {
			log.WithField("status", remote.Response.Status).Warnf("flow ptr rejected sync: %s", remote.Reason())
			return Notice{
				Level:   LevelError,
				Title:   "Error",
				Message: "Error: " + remote.Reason(),
				Phase:   snap.Phase(),
			}, err
		}
		log.Errorf("Error: %v", err)
		return Notice{
			Level:   LevelError,
			Title:   "Error",
			Message: fmt.Sprintf("Failed to sync notes: %v", sendErr),
			Phase:   snap.Phase(),
		}, err
	}

	snap, err = t.workflow.Apply(workflow.EventSent)
	if err != nil {
		return failed("Notes were sent but the workflow state could not be saved", err), err
	}
	log.WithFields(log.Fields{
		"spreadsheet": req.SpreadsheetID,
		"user":        req.UserEmail,
	}).Info("notes sent to flow ptr")

	return Notice{
		Level:   LevelSuccess,
		Title:   "Success",
		Message: "Notes sent to Flow PTR.",
		Phase:   snap.Phase(),
	}, nil
}

// ResetWorkflow always clears the workflow, then removes sync highlights
// from the notes sheet if it exists.
func (t *Tools) ResetWorkflow(ctx context.Context) (Notice, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap, err := t.workflow.Reset()
	if err != nil {
		return failed("Failed to reset workflow state", err), err
	}

	sheet, ok, err := t.workbook.SheetByName(ctx, flowptr.NotesSheet)
	if err != nil {
		return failed("Workflow state has been reset, but highlights were not cleared", err), err
	}
	if ok {
		n, err := notes.ClearHighlights(ctx, sheet)
		if err != nil {
			return failed("Workflow state has been reset, but highlights were not cleared", err), err
		}
		log.Debugf("cleared highlights on %d rows of %s", n, sheet.Name())
	} else {
		log.Debugf("no %q sheet, skipping highlight cleanup", flowptr.NotesSheet)
	}

	log.Info("workflow reset")
	return Notice{
		Level:   LevelSuccess,
		Title:   "Workflow Reset",
		Message: "Workflow state has been reset.",
		Phase:   snap.Phase(),
	}, nil
}

func (t *Tools) Status(ctx context.Context) (Status, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap, err := t.workflow.Load()
	if err != nil {
		return Status{}, err
	}
	return Status{
		SpreadsheetID: t.workbook.ID(),
		Phase:         snap.Phase(),
		Stage:         int(snap.Stage),
		Sent:          snap.Sent,
	}, nil
}

// gate checks ev against the stored workflow before anything is touched.
func (t *Tools) gate(ev workflow.Event) (workflow.Snapshot, error) {
	snap, err := t.workflow.Load()
	if err != nil {
		return snap, err
	}
	return snap, workflow.Check(snap, ev)
}

func refused(snap workflow.Snapshot, err error) Notice {
	var gate *workflow.GateError
	if errors.As(err, &gate) {
		return Notice{
			Level:   LevelAlert,
			Title:   MenuTitle,
			Message: gate.Message(),
			Phase:   snap.Phase(),
		}
	}
	return failed("Failed to load workflow state", err)
}

func failed(msg string, err error) Notice {
	log.Errorf("%s: %v", msg, err)
	return Notice{
		Level:   LevelError,
		Title:   "Error",
		Message: fmt.Sprintf("%s: %v", msg, err),
	}
}
