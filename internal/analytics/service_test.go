package analytics

import (
	"context"
	"errors"
	"testing"
)

// fakeReporter scripts RunReport responses per call, in order.
type fakeReporter struct {
	responses []fakeResponse
	requests  []ReportRequest

	realtimeReport *Report
	realtimeErr    error
}

type fakeResponse struct {
	report *Report
	err    error
}

func (f *fakeReporter) RunReport(ctx context.Context, req ReportRequest) (*Report, error) {
	f.requests = append(f.requests, req)
	if len(f.responses) == 0 {
		return &Report{}, nil
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp.report, resp.err
}

func (f *fakeReporter) RunRealtimeReport(ctx context.Context, metrics []string) (*Report, error) {
	return f.realtimeReport, f.realtimeErr
}

func singleRow(values ...string) *Report {
	return &Report{Rows: []Row{{Metrics: values}}}
}

func TestOverview_FallsBackOnAPIError(t *testing.T) {
	reporter := &fakeReporter{
		responses: []fakeResponse{
			{err: &APIError{StatusCode: 400, Message: "unknown metric: totalRevenue"}},
			{report: singleRow("10", "5", "20", "100", "400", "120.5", "0.5")},
		},
	}
	svc := NewService(reporter)

	cards, err := svc.Overview(context.Background(), 7)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if len(reporter.requests) != 2 {
		t.Fatalf("requests = %d, want 2 (one fallback)", len(reporter.requests))
	}
	if got := len(reporter.requests[1].Metrics); got != len(overviewSets[1]) {
		t.Errorf("second request metric count = %d, want %d", got, len(overviewSets[1]))
	}
	if len(cards) == 0 {
		t.Fatal("no cards from fallback set")
	}
	// Sorted descending by value.
	for i := 1; i < len(cards); i++ {
		if cards[i].Value > cards[i-1].Value {
			t.Errorf("cards out of order at %d: %v after %v", i, cards[i].Value, cards[i-1].Value)
		}
	}
}

func TestOverview_EmptyResultDoesNotFallBack(t *testing.T) {
	reporter := &fakeReporter{
		responses: []fakeResponse{
			{report: &Report{}}, // accepted, no rows
		},
	}
	svc := NewService(reporter)

	cards, err := svc.Overview(context.Background(), 7)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if len(cards) != 0 {
		t.Errorf("cards = %+v, want empty", cards)
	}
	if len(reporter.requests) != 1 {
		t.Errorf("requests = %d, want 1 (no downgrade on empty data)", len(reporter.requests))
	}
}

func TestOverview_DropsZeroValuesButKeepsSet(t *testing.T) {
	// First set accepted with sessions reported as zero. Zero cards are
	// hidden, not treated as a reason to try a smaller set.
	row := make([]string, len(overviewSets[0]))
	for i := range row {
		row[i] = "0"
	}
	row[0] = "42" // activeUsers

	reporter := &fakeReporter{
		responses: []fakeResponse{{report: singleRow(row...)}},
	}
	svc := NewService(reporter)

	cards, err := svc.Overview(context.Background(), 7)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if len(reporter.requests) != 1 {
		t.Errorf("requests = %d, want 1", len(reporter.requests))
	}
	if len(cards) != 1 || cards[0].Key != "activeUsers" || cards[0].Value != 42 {
		t.Errorf("cards = %+v, want single activeUsers card", cards)
	}
}

func TestOverview_AllSetsFailReturnsLastError(t *testing.T) {
	apiErr := &APIError{StatusCode: 403, Message: "permission denied"}
	reporter := &fakeReporter{
		responses: []fakeResponse{{err: apiErr}, {err: apiErr}, {err: apiErr}},
	}
	svc := NewService(reporter)

	cards, err := svc.Overview(context.Background(), 7)
	if err == nil {
		t.Fatal("expected error when every set fails")
	}
	var got *APIError
	if !errors.As(err, &got) || got.StatusCode != 403 {
		t.Errorf("err = %v, want the API error", err)
	}
	if cards == nil || len(cards) != 0 {
		t.Errorf("cards = %v, want empty non-nil slice", cards)
	}
	if len(reporter.requests) != len(overviewSets) {
		t.Errorf("requests = %d, want %d", len(reporter.requests), len(overviewSets))
	}
}

func TestOverview_FormatsPrettyValues(t *testing.T) {
	reporter := &fakeReporter{
		responses: []fakeResponse{
			{report: singleRow("1500", "0", "0", "0", "0", "0", "0.25")},
		},
	}
	// Force the second set shape by erroring the first.
	reporter.responses = append([]fakeResponse{
		{err: &APIError{StatusCode: 400, Message: "bad metric"}},
	}, reporter.responses...)

	svc := NewService(reporter)
	cards, err := svc.Overview(context.Background(), 28)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}

	byKey := map[string]MetricCard{}
	for _, c := range cards {
		byKey[c.Key] = c
	}
	if got := byKey["activeUsers"].Pretty; got != "1,500" {
		t.Errorf("activeUsers pretty = %q, want 1,500", got)
	}
	if got := byKey["engagementRate"].Pretty; got != "25.0%" {
		t.Errorf("engagementRate pretty = %q, want 25.0%%", got)
	}
}

func TestTimeseries_NormalizesDates(t *testing.T) {
	reporter := &fakeReporter{
		responses: []fakeResponse{
			{report: &Report{Rows: []Row{
				{Dimensions: []string{"20240114"}, Metrics: []string{"10", "8"}},
				{Dimensions: []string{"20240115"}, Metrics: []string{"12", "9"}},
			}}},
		},
	}
	svc := NewService(reporter)

	points, err := svc.Timeseries(context.Background(), 7)
	if err != nil {
		t.Fatalf("timeseries: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("points = %d, want 2", len(points))
	}
	if points[0].Date != "2024-01-14" || points[0].Sessions != 10 || points[0].ActiveUsers != 8 {
		t.Errorf("point = %+v", points[0])
	}
}

func TestTopPages_FillsBlankTitleAndPath(t *testing.T) {
	reporter := &fakeReporter{
		responses: []fakeResponse{
			{report: &Report{Rows: []Row{
				{Dimensions: []string{"", ""}, Metrics: []string{"7"}},
			}}},
		},
	}
	svc := NewService(reporter)

	pages, err := svc.TopPages(context.Background(), 10)
	if err != nil {
		t.Fatalf("top pages: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("pages = %d, want 1", len(pages))
	}
	if pages[0].Title != "(untitled)" || pages[0].Path != "/" {
		t.Errorf("page = %+v, want placeholder title and root path", pages[0])
	}
}

func TestRealtimeActive(t *testing.T) {
	svc := NewService(&fakeReporter{realtimeReport: singleRow("17")})
	active, err := svc.RealtimeActive(context.Background())
	if err != nil {
		t.Fatalf("realtime: %v", err)
	}
	if active != 17 {
		t.Errorf("active = %d, want 17", active)
	}

	svc = NewService(&fakeReporter{realtimeReport: &Report{}})
	active, err = svc.RealtimeActive(context.Background())
	if err != nil || active != 0 {
		t.Errorf("empty realtime = %d, %v; want 0, nil", active, err)
	}

	svc = NewService(&fakeReporter{realtimeErr: errors.New("down")})
	if _, err := svc.RealtimeActive(context.Background()); err == nil {
		t.Error("expected error when realtime report fails")
	}
}
