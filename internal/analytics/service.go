package analytics

import (
	"context"
	"fmt"
	"sort"

	"github.com/pulseworks/pulseboard/internal/metrics"
)

// MetricCard is an ephemeral display value for one overview metric.
type MetricCard struct {
	Key    string  `json:"key"`
	Value  float64 `json:"value"`
	Pretty string  `json:"pretty"`
}

// TimeseriesPoint is one calendar day of sessions and active users.
type TimeseriesPoint struct {
	Date        string `json:"date"` // YYYY-MM-DD
	Sessions    int64  `json:"sessions"`
	ActiveUsers int64  `json:"active_users"`
}

// LabelValue is a breakdown row: one dimension value and its metric.
type LabelValue struct {
	Label string `json:"label"`
	Value int64  `json:"value"`
}

// SourceRow is one traffic source/medium with sessions and conversions.
type SourceRow struct {
	Source      string `json:"source"`
	Medium      string `json:"medium"`
	Sessions    int64  `json:"sessions"`
	Conversions int64  `json:"conversions"`
}

// PageRow is one page with its view count.
type PageRow struct {
	Title string `json:"title"`
	Path  string `json:"path"`
	Views int64  `json:"views"`
}

// overviewSets is the ordered fallback chain for the overview query,
// richest first. The loop advances only on an API error: a set that the
// API accepts ends the chain even if every value is zero.
var overviewSets = [][]string{
	{
		"activeUsers", "newUsers", "sessions", "screenPageViews",
		"eventCount", "conversions", "totalRevenue",
		"userEngagementDuration", "averageSessionDuration",
		"sessionsPerUser", "engagementRate", "bounceRate",
	},
	{
		"activeUsers", "newUsers", "sessions", "screenPageViews", "eventCount",
		"averageSessionDuration", "engagementRate",
	},
	{"activeUsers", "sessions", "screenPageViews"},
}

// Service shapes raw reports into dashboard values. The Reporter is
// injected; construct one at startup and pass it in.
type Service struct {
	reporter Reporter
}

// NewService creates an analytics service over the given reporter.
func NewService(r Reporter) *Service {
	return &Service{reporter: r}
}

// Overview fetches the overview metric cards for the trailing window.
// It walks the fallback chain until a set succeeds, keeps only strictly
// positive values, and sorts descending. If every set fails it returns an
// empty list along with the last API error so callers can tell "no data"
// from "API down".
func (s *Service) Overview(ctx context.Context, days int) ([]MetricCard, error) {
	if days <= 0 {
		days = 7
	}
	start := fmt.Sprintf("%ddaysAgo", days)

	var lastErr error
	for _, set := range overviewSets {
		report, err := s.reporter.RunReport(ctx, ReportRequest{
			Metrics:   set,
			StartDate: start,
			EndDate:   "today",
		})
		if err != nil {
			metrics.AnalyticsQueryErrors.WithLabelValues("overview").Inc()
			lastErr = err
			continue
		}
		metrics.AnalyticsQueriesTotal.WithLabelValues("overview").Inc()

		if len(report.Rows) == 0 {
			// Accepted but empty: no data in the window. The richer set
			// already succeeded, so don't downgrade.
			return []MetricCard{}, nil
		}

		row := report.Rows[0] // single-row aggregation
		cards := make([]MetricCard, 0, len(set))
		for i, key := range set {
			if i >= len(row.Metrics) {
				break
			}
			value, pretty := shape(key, row.Metrics[i])
			if value > 0 {
				cards = append(cards, MetricCard{Key: key, Value: value, Pretty: pretty})
			}
		}
		sort.SliceStable(cards, func(i, j int) bool {
			return cards[i].Value > cards[j].Value
		})
		return cards, nil
	}

	return []MetricCard{}, lastErr
}

// Timeseries returns sessions and active users per calendar day for the
// trailing window.
func (s *Service) Timeseries(ctx context.Context, days int) ([]TimeseriesPoint, error) {
	if days <= 0 {
		days = 30
	}
	report, err := s.reporter.RunReport(ctx, ReportRequest{
		Dimensions: []string{"date"},
		Metrics:    []string{"sessions", "activeUsers"},
		StartDate:  fmt.Sprintf("%ddaysAgo", days),
		EndDate:    "today",
	})
	if err != nil {
		metrics.AnalyticsQueryErrors.WithLabelValues("timeseries").Inc()
		return nil, err
	}
	metrics.AnalyticsQueriesTotal.WithLabelValues("timeseries").Inc()

	points := make([]TimeseriesPoint, 0, len(report.Rows))
	for _, r := range report.Rows {
		if len(r.Dimensions) < 1 || len(r.Metrics) < 2 {
			continue
		}
		points = append(points, TimeseriesPoint{
			Date:        normalizeDate(r.Dimensions[0]),
			Sessions:    toInt(r.Metrics[0]),
			ActiveUsers: toInt(r.Metrics[1]),
		})
	}
	return points, nil
}

// Devices returns sessions by device category over a 28-day window.
func (s *Service) Devices(ctx context.Context) ([]LabelValue, error) {
	return s.breakdown(ctx, "devices", ReportRequest{
		Dimensions: []string{"deviceCategory"},
		Metrics:    []string{"sessions"},
		StartDate:  "28daysAgo",
		EndDate:    "today",
	})
}

// Countries returns the top countries by sessions over a 7-day window.
func (s *Service) Countries(ctx context.Context, limit int64) ([]LabelValue, error) {
	return s.breakdown(ctx, "countries", ReportRequest{
		Dimensions:    []string{"country"},
		Metrics:       []string{"sessions"},
		StartDate:     "7daysAgo",
		EndDate:       "today",
		Limit:         limit,
		OrderByMetric: "sessions",
	})
}

func (s *Service) breakdown(ctx context.Context, name string, req ReportRequest) ([]LabelValue, error) {
	report, err := s.reporter.RunReport(ctx, req)
	if err != nil {
		metrics.AnalyticsQueryErrors.WithLabelValues(name).Inc()
		return nil, err
	}
	metrics.AnalyticsQueriesTotal.WithLabelValues(name).Inc()

	out := make([]LabelValue, 0, len(report.Rows))
	for _, r := range report.Rows {
		if len(r.Dimensions) < 1 || len(r.Metrics) < 1 {
			continue
		}
		out = append(out, LabelValue{Label: r.Dimensions[0], Value: toInt(r.Metrics[0])})
	}
	return out, nil
}

// Sources returns top source/medium pairs with sessions and conversions
// over a 7-day window.
func (s *Service) Sources(ctx context.Context, limit int64) ([]SourceRow, error) {
	report, err := s.reporter.RunReport(ctx, ReportRequest{
		Dimensions:    []string{"sessionSource", "sessionMedium"},
		Metrics:       []string{"sessions", "conversions"},
		StartDate:     "7daysAgo",
		EndDate:       "today",
		Limit:         limit,
		OrderByMetric: "sessions",
	})
	if err != nil {
		metrics.AnalyticsQueryErrors.WithLabelValues("sources").Inc()
		return nil, err
	}
	metrics.AnalyticsQueriesTotal.WithLabelValues("sources").Inc()

	out := make([]SourceRow, 0, len(report.Rows))
	for _, r := range report.Rows {
		if len(r.Dimensions) < 2 || len(r.Metrics) < 2 {
			continue
		}
		out = append(out, SourceRow{
			Source:      r.Dimensions[0],
			Medium:      r.Dimensions[1],
			Sessions:    toInt(r.Metrics[0]),
			Conversions: toInt(r.Metrics[1]),
		})
	}
	return out, nil
}

// TopPages returns the most viewed pages over a 7-day window.
func (s *Service) TopPages(ctx context.Context, limit int64) ([]PageRow, error) {
	report, err := s.reporter.RunReport(ctx, ReportRequest{
		Dimensions:    []string{"pageTitle", "pagePathPlusQueryString"},
		Metrics:       []string{"screenPageViews"},
		StartDate:     "7daysAgo",
		EndDate:       "today",
		Limit:         limit,
		OrderByMetric: "screenPageViews",
	})
	if err != nil {
		metrics.AnalyticsQueryErrors.WithLabelValues("pages").Inc()
		return nil, err
	}
	metrics.AnalyticsQueriesTotal.WithLabelValues("pages").Inc()

	out := make([]PageRow, 0, len(report.Rows))
	for _, r := range report.Rows {
		if len(r.Dimensions) < 2 || len(r.Metrics) < 1 {
			continue
		}
		title := r.Dimensions[0]
		if title == "" {
			title = "(untitled)"
		}
		path := r.Dimensions[1]
		if path == "" {
			path = "/"
		}
		out = append(out, PageRow{Title: title, Path: path, Views: toInt(r.Metrics[0])})
	}
	return out, nil
}

// RealtimeActive returns the number of active users in the last 30
// minutes, or an error when the realtime report fails.
func (s *Service) RealtimeActive(ctx context.Context) (int64, error) {
	report, err := s.reporter.RunRealtimeReport(ctx, []string{"activeUsers"})
	if err != nil {
		metrics.AnalyticsQueryErrors.WithLabelValues("realtime").Inc()
		return 0, err
	}
	metrics.AnalyticsQueriesTotal.WithLabelValues("realtime").Inc()

	if len(report.Rows) == 0 || len(report.Rows[0].Metrics) == 0 {
		return 0, nil
	}
	return toInt(report.Rows[0].Metrics[0]), nil
}
