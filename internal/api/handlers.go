package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-diag/internal/device"
	"github.com/nerrad567/gray-logic-diag/internal/diagnosis"
)

// maxDiagnoseBody bounds the diagnose request body size.
const maxDiagnoseBody = 64 * 1024

// healthResponse is the /health payload.
type healthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Devices   int    `json:"devices"`
	Timestamp string `json:"timestamp"`
}

// handleHealth reports liveness and catalogue size.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Version:   s.version,
		Devices:   s.registry.Count(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// diagnoseRequest is the POST /api/v1/diagnose payload. Either a raw
// query text or explicit device names must be given.
type diagnoseRequest struct {
	Query       string   `json:"query,omitempty"`
	Intent      string   `json:"intent,omitempty"`
	DeviceNames []string `json:"device_names,omitempty"`
}

// handleDiagnose runs a diagnostic workflow and returns the report.
// Not-found and ambiguous resolutions are reports, not HTTP errors; only
// an empty query or an internal contract violation maps to an error
// status.
func (s *Server) handleDiagnose(w http.ResponseWriter, r *http.Request) {
	var req diagnoseRequest
	body := http.MaxBytesReader(w, r.Body, maxDiagnoseBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	report, err := s.workflow.Execute(r.Context(), diagnosis.Query{
		Text:        req.Query,
		Intent:      req.Intent,
		DeviceNames: req.DeviceNames,
	})
	if err != nil {
		if errors.Is(err, diagnosis.ErrEmptyQuery) {
			writeBadRequest(w, "query or device_names is required")
			return
		}
		s.logger.Error("diagnostic run failed", "error", err)
		writeInternalError(w, "diagnostic run failed")
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// handleListDevices returns the device catalogue, optionally filtered by
// room or capability query parameters.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	var records []device.DeviceRecord
	switch {
	case r.URL.Query().Get("room") != "":
		records = s.registry.ByRoom(r.URL.Query().Get("room"))
	case r.URL.Query().Get("capability") != "":
		records = s.registry.ByCapability(device.Capability(r.URL.Query().Get("capability")))
	default:
		records = s.registry.List()
	}
	if records == nil {
		records = []device.DeviceRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// handleGetDevice returns one device by ID.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := s.registry.Get(id)
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "device lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
