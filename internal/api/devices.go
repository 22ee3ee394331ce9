package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/leonardpitzu/it600d/internal/it600"
)

// commandTimeout bounds a single command round trip to the gateway.
const commandTimeout = 10 * time.Second

// deviceSummary is the wire representation of a device in list and
// detail responses.
type deviceSummary struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Family          it600.Family `json:"family"`
	Model           string       `json:"model,omitempty"`
	Manufacturer    string       `json:"manufacturer,omitempty"`
	FirmwareVersion string       `json:"firmware_version,omitempty"`
	Available       bool         `json:"available"`
	State           it600.State  `json:"state,omitempty"`
}

func summarize(d *it600.Device) deviceSummary {
	return deviceSummary{
		ID:              d.ID,
		Name:            d.Name,
		Family:          d.Family,
		Model:           d.Model,
		Manufacturer:    d.Manufacturer,
		FirmwareVersion: d.FirmwareVersion,
		Available:       d.Available,
		State:           it600.DecodeState(d),
	}
}

// deviceStateBody is the payload broadcast on the device state channel
// and returned from the state endpoint.
func deviceStateBody(d *it600.Device) map[string]any {
	return map[string]any{
		"device_id": d.ID,
		"name":      d.Name,
		"family":    d.Family,
		"available": d.Available,
		"state":     it600.DecodeState(d),
	}
}

// handleListDevices returns all registered devices, optionally filtered
// by ?family=thermostat etc.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	family := r.URL.Query().Get("family")

	devices := s.devices.List()
	out := make([]deviceSummary, 0, len(devices))
	for i := range devices {
		d := &devices[i]
		if family != "" && string(d.Family) != family {
			continue
		}
		out = append(out, summarize(d))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"devices": out,
		"count":   len(out),
	})
}

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	d, err := s.devices.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeNotFound(w, "device not found")
		return
	}
	writeJSON(w, http.StatusOK, summarize(d))
}

func (s *Server) handleGetDeviceState(w http.ResponseWriter, r *http.Request) {
	d, err := s.devices.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeNotFound(w, "device not found")
		return
	}
	writeJSON(w, http.StatusOK, deviceStateBody(d))
}

// commandRequest is the body of POST /devices/{id}/command.
type commandRequest struct {
	Command    string         `json:"command"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

func (s *Server) handleSendCommand(w http.ResponseWriter, r *http.Request) {
	if s.sender == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "command dispatch not available")
		return
	}

	id := chi.URLParam(r, "id")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeBadRequest(w, "cannot read request body")
		return
	}

	var req commandRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Command == "" {
		writeBadRequest(w, "command is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), commandTimeout)
	defer cancel()

	cmd := it600.Command{Name: req.Command, Params: req.Parameters}
	if err := s.sender.Send(ctx, id, cmd); err != nil {
		s.writeCommandError(w, id, req.Command, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"device_id": id,
		"command":   req.Command,
	})
}

// writeCommandError maps dispatch failures onto HTTP statuses.
func (s *Server) writeCommandError(w http.ResponseWriter, id, command string, err error) {
	switch {
	case errors.Is(err, it600.ErrDeviceNotFound):
		writeNotFound(w, "device not found")
	case errors.Is(err, it600.ErrUnsupportedCommand):
		writeError(w, http.StatusBadRequest, "unsupported_command", err.Error())
	case errors.Is(err, it600.ErrInvalidSetpointOrder),
		errors.Is(err, it600.ErrInvalidPosition):
		writeError(w, http.StatusUnprocessableEntity, "invalid_parameters", err.Error())
	case errors.Is(err, it600.ErrGatewayUnreachable),
		errors.Is(err, it600.ErrConnectionFailed),
		errors.Is(err, it600.ErrCommandRejected):
		writeError(w, http.StatusBadGateway, "gateway_error", err.Error())
	default:
		s.logger.Error("command dispatch failed",
			"device_id", id,
			"command", command,
			"error", err,
		)
		writeInternalError(w)
	}
}
