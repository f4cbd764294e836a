package handler

import (
	"fmt"
	"net/http"

	"github.com/carhunt/carhunt/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns counters in Prometheus exposition format.
//
// GET /metrics
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "carhunt_users_registered_total %d\n", snap.UsersRegistered)
	writeMetric(w, "carhunt_logins_total{status=\"success\"} %d\n", snap.LoginsSucceeded)
	writeMetric(w, "carhunt_logins_total{status=\"failed\"} %d\n", snap.LoginsFailed)

	writeMetric(w, "carhunt_hunts_created_total %d\n", snap.HuntsCreated)
	writeMetric(w, "carhunt_hunts_updated_total %d\n", snap.HuntsUpdated)
	writeMetric(w, "carhunt_hunts_deleted_total %d\n", snap.HuntsDeleted)

	writeMetric(w, "carhunt_uploads_stored_total %d\n", snap.UploadsStored)
	writeMetric(w, "carhunt_uploads_failed_total %d\n", snap.UploadsFailed)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
