// Package analytics aggregates Google Analytics 4 report data for the
// dashboard. A Reporter runs raw reports; the Service shapes them into
// display-ready values and absorbs per-query failures so pages degrade
// instead of erroring out.
package analytics

import (
	"context"
	"fmt"
)

// ReportRequest describes one Data API report: a date range, dimension
// and metric names, and optional ordering/limit.
type ReportRequest struct {
	Dimensions    []string
	Metrics       []string
	StartDate     string // e.g. "7daysAgo"
	EndDate       string // e.g. "today"
	Limit         int64  // 0 means API default
	OrderByMetric string // sort descending by this metric when set
}

// Row is one report row of dimension and metric values, both returned by
// the API as strings.
type Row struct {
	Dimensions []string
	Metrics    []string
}

// Report is a report result.
type Report struct {
	Rows []Row
}

// Reporter runs reports against a reporting backend. It is injected into
// the Service so tests can substitute a fake and the client lifecycle is
// owned by application startup, not a lazy global.
type Reporter interface {
	RunReport(ctx context.Context, req ReportRequest) (*Report, error)
	RunRealtimeReport(ctx context.Context, metrics []string) (*Report, error)
}

// APIError is a reporting API rejection: the request reached the service
// and was refused (bad metric, permissions, quota) or timed out.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("analytics api: %d %s", e.StatusCode, e.Message)
}
