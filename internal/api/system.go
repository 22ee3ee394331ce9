package api

import (
	"net/http"
	"time"
)

// handleHealth reports overall daemon health. The status degrades when
// the gateway poll loop is failing; the endpoint itself answering means
// the daemon process is alive.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	gateway := map[string]any{"connected": false}

	if gw := s.devices.Gateway(); gw != nil {
		gateway["mac"] = gw.MAC
		gateway["model"] = gw.Model
		gateway["firmware_version"] = gw.FirmwareVersion
	}

	if s.poller != nil {
		stats := s.poller.Stats()
		gateway["connected"] = stats.Connected
		if !stats.Connected {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":         status,
		"version":        s.version,
		"uptime_seconds": int64(time.Since(s.startTime).Seconds()),
		"gateway":        gateway,
		"devices":        len(s.devices.List()),
	})
}

// handleMetrics exposes poll loop and WebSocket counters as JSON.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"version":        s.version,
		"uptime_seconds": int64(time.Since(s.startTime).Seconds()),
		"devices":        len(s.devices.List()),
	}

	if s.poller != nil {
		stats := s.poller.Stats()
		poll := map[string]any{
			"cycles":               stats.Cycles,
			"failures":             stats.Failures,
			"consecutive_failures": stats.Consecutive,
			"connected":            stats.Connected,
		}
		if !stats.LastSuccess.IsZero() {
			poll["last_success"] = stats.LastSuccess.UTC().Format(time.RFC3339)
		}
		if stats.LastError != "" {
			poll["last_error"] = stats.LastError
		}
		body["poll"] = poll
	}

	if s.hub != nil {
		body["websocket_clients"] = s.hub.ClientCount()
	}

	writeJSON(w, http.StatusOK, body)
}
