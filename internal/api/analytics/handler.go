// Package analytics provides the web analytics dashboard endpoints.
package analytics

import (
	"log"
	"net/http"
	"strconv"

	"github.com/pulseworks/pulseboard/internal/analytics"
	"github.com/pulseworks/pulseboard/internal/api/respond"
)

// Handler exposes the analytics service over HTTP. The dashboard must
// render even when the reporting API is down, so query failures degrade
// to empty payloads instead of error responses.
type Handler struct {
	service *analytics.Service
}

// NewHandler creates a new analytics handler.
func NewHandler(service *analytics.Service) *Handler {
	return &Handler{service: service}
}

// daysParam reads the ?days query parameter, clamped to 1..365.
func daysParam(r *http.Request, def int) int {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	if n > 365 {
		return 365
	}
	return n
}

// limitParam reads the ?limit query parameter, clamped to 1..100.
func limitParam(r *http.Request, def int64) int64 {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 1 {
		return def
	}
	if n > 100 {
		return 100
	}
	return n
}

// Overview returns the headline metric cards.
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	cards, err := h.service.Overview(r.Context(), daysParam(r, 7))
	if err != nil {
		log.Printf("analytics overview error: %v", err)
		respond.OK(w, []analytics.MetricCard{})
		return
	}
	respond.OK(w, cards)
}

// Timeseries returns daily active users and sessions.
func (h *Handler) Timeseries(w http.ResponseWriter, r *http.Request) {
	points, err := h.service.Timeseries(r.Context(), daysParam(r, 30))
	if err != nil {
		log.Printf("analytics timeseries error: %v", err)
		respond.OK(w, []analytics.TimeseriesPoint{})
		return
	}
	respond.OK(w, points)
}

// Devices returns users by device category.
func (h *Handler) Devices(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.Devices(r.Context())
	if err != nil {
		log.Printf("analytics devices error: %v", err)
		respond.OK(w, []analytics.LabelValue{})
		return
	}
	respond.OK(w, rows)
}

// Countries returns users by country.
func (h *Handler) Countries(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.Countries(r.Context(), limitParam(r, 10))
	if err != nil {
		log.Printf("analytics countries error: %v", err)
		respond.OK(w, []analytics.LabelValue{})
		return
	}
	respond.OK(w, rows)
}

// Sources returns traffic by session source.
func (h *Handler) Sources(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.Sources(r.Context(), limitParam(r, 10))
	if err != nil {
		log.Printf("analytics sources error: %v", err)
		respond.OK(w, []analytics.SourceRow{})
		return
	}
	respond.OK(w, rows)
}

// Pages returns the most viewed pages.
func (h *Handler) Pages(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.TopPages(r.Context(), limitParam(r, 10))
	if err != nil {
		log.Printf("analytics pages error: %v", err)
		respond.OK(w, []analytics.PageRow{})
		return
	}
	respond.OK(w, rows)
}

// RealtimeResponse carries the current active user count.
type RealtimeResponse struct {
	ActiveUsers int64 `json:"active_users"`
}

// Realtime returns the number of users active right now.
func (h *Handler) Realtime(w http.ResponseWriter, r *http.Request) {
	active, err := h.service.RealtimeActive(r.Context())
	if err != nil {
		log.Printf("analytics realtime error: %v", err)
		respond.OK(w, &RealtimeResponse{ActiveUsers: 0})
		return
	}
	respond.OK(w, &RealtimeResponse{ActiveUsers: active})
}
