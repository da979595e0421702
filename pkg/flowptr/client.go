// Package flowptr talks to the Flow PTR sync endpoint that pulls prepared
// notes out of the spreadsheet.
package flowptr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	ActionSyncNotes = "sync_notes"
	NotesSheet      = "Notes Back"
	StatusSuccess   = "success"

	// Same shape as JavaScript's Date.toISOString.
	timestampLayout = "2006-01-02T15:04:05.000Z"
)

// SyncRequest is the JSON body posted to the endpoint.
type SyncRequest struct {
	Action        string `json:"action"`
	SpreadsheetID string `json:"spreadsheetId"`
	UserEmail     string `json:"userEmail"`
	SheetName     string `json:"sheetName"`
	Timestamp     string `json:"timestamp"`
}

func NewSyncRequest(spreadsheetID, userEmail string, now time.Time) SyncRequest {
	return SyncRequest{
		Action:        ActionSyncNotes,
		SpreadsheetID: spreadsheetID,
		UserEmail:     userEmail,
		SheetName:     NotesSheet,
		Timestamp:     now.UTC().Format(timestampLayout),
	}
}

// SyncResponse is the endpoint's reply. Error is set instead of Message on
// the endpoint's validation failures.
type SyncResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
	Details json.RawMessage `json:"details,omitempty"`
}

// RemoteError is a well formed reply that did not report success.
type RemoteError struct {
	StatusCode int
	Response   SyncResponse
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("flow ptr sync failed (http %d): %s", e.StatusCode, e.Reason())
}

// Reason is the best message the endpoint gave.
func (e *RemoteError) Reason() string {
	if e.Response.Message != "" {
		return e.Response.Message
	}
	if e.Response.Error != "" {
		return e.Response.Error
	}
	return "Unknown error"
}

type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient posts to url. A nil httpClient uses one without a timeout, so
// the transport's own limits apply.
func NewClient(url string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{url: strings.TrimSpace(url), httpClient: httpClient}
}

// Send makes exactly one attempt. A nil error means the endpoint reported
// success; a *RemoteError means it answered with anything else.
func (c *Client) Send(ctx context.Context, req SyncRequest) (*SyncResponse, error) {
	if c.url == "" {
		return nil, fmt.Errorf("flow ptr sync url is not configured")
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	log.WithFields(log.Fields{
		"spreadsheet": req.SpreadsheetID,
		"sheet":       req.SheetName,
		"user":        req.UserEmail,
	}).Debug("posting notes sync request")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("post sync request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read sync response: %w", err)
	}
	var out SyncResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode sync response (http %d): %w", resp.StatusCode, err)
	}
	if out.Status != StatusSuccess {
		return &out, &RemoteError{StatusCode: resp.StatusCode, Response: out}
	}
	return &out, nil
}
