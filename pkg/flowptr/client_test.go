package flowptr

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSyncRequest(t *testing.T) {
	now := time.Date(2025, 3, 4, 5, 6, 7, 890_000_000, time.FixedZone("AEST", 10*3600))
	req := NewSyncRequest("ss-1", "artist@example.com", now)

	assert.Equal(t, SyncRequest{
		Action:        "sync_notes",
		SpreadsheetID: "ss-1",
		UserEmail:     "artist@example.com",
		SheetName:     "Notes Back",
		Timestamp:     "2025-03-03T19:06:07.890Z",
	}, req)
}

func TestSendSuccess(t *testing.T) {
	var got map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","message":"Notes synced to ShotGrid successfully","details":{"success_count":3}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client())
	resp, err := client.Send(context.Background(), NewSyncRequest("ss-1", "a@b.c", time.Now()))
	require.NoError(t, err)
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "sync_notes", got["action"])
	assert.Equal(t, "ss-1", got["spreadsheetId"])
	assert.Equal(t, "a@b.c", got["userEmail"])
	assert.Equal(t, "Notes Back", got["sheetName"])
	assert.NotEmpty(t, got["timestamp"])
}

func TestSendRemoteFailure(t *testing.T) {
	tests := []struct {
		name   string
		code   int
		body   string
		reason string
	}{
		{"status error with message", http.StatusInternalServerError, `{"status":"error","message":"No valid note data found"}`, "No valid note data found"},
		{"error field only", http.StatusBadRequest, `{"error":"Missing required parameter: spreadsheetId"}`, "Missing required parameter: spreadsheetId"},
		{"no message at all", http.StatusOK, `{"status":"pending"}`, "Unknown error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewClient(server.URL, server.Client()).Send(context.Background(), NewSyncRequest("ss", "u", time.Now()))
			var remote *RemoteError
			require.True(t, errors.As(err, &remote), "expected RemoteError, got %v", err)
			assert.Equal(t, tt.code, remote.StatusCode)
			assert.Equal(t, tt.reason, remote.Reason())
		})
	}
}

func TestSendMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, server.Client()).Send(context.Background(), NewSyncRequest("ss", "u", time.Now()))
	require.Error(t, err)
	var remote *RemoteError
	assert.False(t, errors.As(err, &remote))
}

func TestSendMakesOneAttempt(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"error","message":"busy"}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, server.Client()).Send(context.Background(), NewSyncRequest("ss", "u", time.Now()))
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSendWithoutURL(t *testing.T) {
	_, err := NewClient(" ", nil).Send(context.Background(), NewSyncRequest("ss", "u", time.Now()))
	assert.Error(t, err)
}
