package handlers

import (
	"net/http"

	"github.com/designneighbor/union-yoga-sanity/internal"
)

// MetricsHandler mounts a Prometheus exposition handler at /metrics.
type MetricsHandler struct {
	h http.Handler
}

func NewMetricsHandler(h http.Handler) *MetricsHandler {
	return &MetricsHandler{h: h}
}

func (m *MetricsHandler) Routes(r internal.Router) {
	r.Mount("/metrics", m.h)
}
