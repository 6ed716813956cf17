package api

import (
	"net/http"
	"time"

	"github.com/snarg/stt-serve/internal/engine"
	"github.com/snarg/stt-serve/internal/stt"
)

type HealthResponse struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Checks        map[string]string `json:"checks"`
	Sessions      SessionsStatus    `json:"sessions"`
}

type SessionsStatus struct {
	Active   int `json:"active"`
	Capacity int `json:"capacity"`
}

type HealthHandler struct {
	model     engine.Model
	gate      *stt.Gate
	version   string
	startTime time.Time
}

func NewHealthHandler(model engine.Model, gate *stt.Gate, version string, startTime time.Time) *HealthHandler {
	return &HealthHandler{
		model:     model,
		gate:      gate,
		version:   version,
		startTime: startTime,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)

	if engine.NativeAvailable() {
		checks["decoder"] = "native"
	} else {
		checks["decoder"] = "stub"
	}

	resp := HealthResponse{
		Status:        "healthy",
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Checks:        checks,
		Sessions: SessionsStatus{
			Active:   h.gate.InUse(),
			Capacity: h.gate.Capacity(),
		},
	}

	WriteJSON(w, http.StatusOK, resp)
}
