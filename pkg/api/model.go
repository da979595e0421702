package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"bakedtools/pkg/flowptr"
	"bakedtools/pkg/workflow"
)

const MenuTitle = "Baked Tools"

type MenuItem struct {
	Command string `json:"command"`
	Label   string `json:"label"`
}

// Menu lists the commands in the order they appear in the spreadsheet menu.
var Menu = []MenuItem{
	{Command: "match", Label: "Match Client Names to Internal"},
	{Command: "prepare", Label: "Prepare Notes"},
	{Command: "send", Label: "Send Notes to Flow PTR"},
	{Command: "reset", Label: "Reset Workflow"},
}

type Level string

const (
	LevelSuccess Level = "success"
	// LevelAlert is a blocking message: the command was refused and nothing changed.
	LevelAlert Level = "alert"
	LevelError Level = "error"
)

// Notice is what the user is told after a command.
type Notice struct {
	Level   Level          `json:"level"`
	Title   string         `json:"title"`
	Message string         `json:"message"`
	Phase   workflow.Phase `json:"phase"`
}

type Status struct {
	SpreadsheetID string         `json:"spreadsheetId"`
	Phase         workflow.Phase `json:"phase"`
	Stage         int            `json:"workflowState"`
	Sent          bool           `json:"notesSent"`
}

// Syncer delivers a sync request to Flow PTR.
type Syncer interface {
	Send(ctx context.Context, req flowptr.SyncRequest) (*flowptr.SyncResponse, error)
}

// Identity reports who is running the commands.
type Identity interface {
	UserEmail(ctx context.Context) (string, error)
}

// ErrNoIdentity means there is no user to report as the note author.
var ErrNoIdentity = errors.New("no user email configured: set BAKED_USER_EMAIL or Google.UserEmail")

type StaticIdentity string

func (s StaticIdentity) UserEmail(context.Context) (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", ErrNoIdentity
	}
	return string(s), nil
}

// ResolveIdentity prefers the configured email and falls back to the
// client_email of the service account key.
func ResolveIdentity(userEmail, credentialsFile string) (StaticIdentity, error) {
	if strings.TrimSpace(userEmail) != "" {
		return StaticIdentity(userEmail), nil
	}
	return IdentityFromCredentials(credentialsFile)
}

// IdentityFromCredentials uses the client_email of a service account key.
func IdentityFromCredentials(path string) (StaticIdentity, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var key struct {
		ClientEmail string `json:"client_email"`
	}
	if err := json.Unmarshal(b, &key); err != nil {
		return "", fmt.Errorf("parse credentials %s: %w", path, err)
	}
	if key.ClientEmail == "" {
		return "", fmt.Errorf("credentials %s have no client_email: %w", path, ErrNoIdentity)
	}
	return StaticIdentity(key.ClientEmail), nil
}
