package api

import (
	"context"
	"fmt"
	"net/http"

	"bakedtools/pkg/config"
	"bakedtools/pkg/flowptr"
	"bakedtools/pkg/props"
	"bakedtools/pkg/sheets"
	"bakedtools/pkg/workflow"

	log "github.com/sirupsen/logrus"
)

// NewToolsFromConfig wires the Google workbook, property file and Flow PTR
// client described by cfg.
func NewToolsFromConfig(ctx context.Context, cfg *config.Config) (*Tools, error) {
	g := cfg.Google()
	if g.SpreadsheetID == "" {
		return nil, fmt.Errorf("no spreadsheet configured, set SPREADSHEET_ID or Google.SpreadsheetID in %s", cfg.Filename)
	}
	if g.CredentialsFile == "" {
		return nil, fmt.Errorf("no credentials configured, set GOOGLE_APPLICATION_CREDENTIALS or Google.CredentialsFile in %s", cfg.Filename)
	}

	// Notes land in ShotGrid under this user, refuse to start without one.
	id, err := ResolveIdentity(g.UserEmail, g.CredentialsFile)
	if err != nil {
		return nil, err
	}

	wb, err := sheets.NewGoogleWorkbook(ctx, g.CredentialsFile, g.SpreadsheetID, g.ActiveSheet)
	if err != nil {
		return nil, err
	}

	client := flowptr.NewClient(cfg.Flow().SyncURL, &http.Client{Timeout: cfg.SyncTimeout()})
	store := workflow.NewStore(props.NewFileStore(cfg.PropertiesFile()))

	log.WithFields(log.Fields{
		"spreadsheet": g.SpreadsheetID,
		"sheet":       g.ActiveSheet,
		"properties":  cfg.PropertiesFile(),
	}).Debug("tools configured")

	return NewTools(wb, store, id, client), nil
}
