package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"bakedtools/pkg/workflow"

	log "github.com/sirupsen/logrus"
)

type handler struct {
	tools *Tools
}

type menuResponse struct {
	Title string     `json:"title"`
	Items []MenuItem `json:"items"`
}

func (h *handler) getStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.tools.Status(r.Context())
	if err != nil {
		log.Errorf("load status: %v", err)
		sendJSON(w, http.StatusInternalServerError, Notice{
			Level:   LevelError,
			Title:   "Error",
			Message: err.Error(),
		})
		return
	}
	sendJSON(w, http.StatusOK, status)
}

func (h *handler) getMenu(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, menuResponse{Title: MenuTitle, Items: Menu})
}

func (h *handler) command(run func(*Tools, context.Context) (Notice, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		notice, err := run(h.tools, r.Context())
		sendJSON(w, statusFor(err), notice)
	}
}

func statusFor(err error) int {
	var gate *workflow.GateError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &gate):
		return http.StatusConflict
	case errors.Is(err, ErrSyncFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func sendJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Errorf("encode response: %v", err)
		sendResponse(w, http.StatusInternalServerError, []byte(`{"level":"error","message":"internal error"}`))
		return
	}
	sendResponse(w, status, body)
}

func sendResponse(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
