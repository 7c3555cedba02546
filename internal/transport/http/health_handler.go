package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"
)

// Progress describes how far the current batch has come
type Progress struct {
	Files  int `json:"files"`
	Done   int `json:"done"`
	Failed int `json:"failed"`
	Rows   int `json:"rows"`
}

// ProgressSource reports batch progress
type ProgressSource interface {
	Progress() Progress
}

// HealthResponse is the /healthz body
type HealthResponse struct {
	Status  string    `json:"status"`
	Version string    `json:"version"`
	Uptime  string    `json:"uptime"`
	Time    time.Time `json:"time"`
	Batch   *Progress `json:"batch,omitempty"`
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	version  string
	started  time.Time
	progress ProgressSource
	logger   *slog.Logger
	now      func() time.Time
}

// NewHealthHandler creates a new health handler. progress may be nil.
func NewHealthHandler(version string, progress ProgressSource, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{
		version:  version,
		started:  time.Now(),
		progress: progress,
		logger:   logger.With(slog.String("handler", "health")),
		now:      time.Now,
	}
}

// HealthCheck handles GET /healthz
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	resp := HealthResponse{
		Status:  "ok",
		Version: h.version,
		Uptime:  now.Sub(h.started).Truncate(time.Second).String(),
		Time:    now.UTC(),
	}
	if h.progress != nil {
		p := h.progress.Progress()
		resp.Batch = &p
	}
	render.JSON(w, r, resp)
}
