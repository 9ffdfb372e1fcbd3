package analytics

import (
	"fmt"
	"math"
	"strconv"

	"github.com/dustin/go-humanize"
)

// metricClass determines how a raw metric value is numerically
// transformed and pretty-printed.
type metricClass int

const (
	classCount metricClass = iota
	classRate
	classDuration
	classRatio
	classCurrency
)

// classify maps GA4 metric names to their formatting class. Anything not
// listed is a plain count.
func classify(metric string) metricClass {
	switch metric {
	case "engagementRate", "bounceRate":
		return classRate
	case "averageSessionDuration", "userEngagementDuration":
		return classDuration
	case "sessionsPerUser":
		return classRatio
	case "totalRevenue":
		return classCurrency
	default:
		return classCount
	}
}

// toFloat parses an API metric string, treating garbage as zero the way
// the dashboard always has.
func toFloat(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// toInt rounds an API metric string to the nearest integer.
func toInt(s string) int64 {
	return int64(math.Round(toFloat(s)))
}

// formatSeconds renders a duration in seconds as H:MM:SS.
func formatSeconds(sec float64) string {
	if sec < 0 || math.IsNaN(sec) || math.IsInf(sec, 0) {
		return "0:00:00"
	}
	total := int(math.Round(sec))
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

// shape converts a raw metric string into its numeric value and display
// string per the metric's class.
func shape(metric, raw string) (float64, string) {
	switch classify(metric) {
	case classRate:
		num := toFloat(raw) * 100.0
		return num, fmt.Sprintf("%.1f%%", num)
	case classDuration:
		num := toFloat(raw)
		return num, formatSeconds(num)
	case classRatio:
		num := toFloat(raw)
		return num, fmt.Sprintf("%.2f", num)
	case classCurrency:
		num := toFloat(raw)
		return num, humanize.FormatFloat("#,###.##", num)
	default:
		num := toFloat(raw)
		return num, humanize.Comma(int64(math.Round(num)))
	}
}

// normalizeDate converts the API's compact YYYYMMDD date dimension to an
// ISO YYYY-MM-DD string. Values of unexpected shape pass through as-is.
func normalizeDate(compact string) string {
	if len(compact) != 8 {
		return compact
	}
	return compact[0:4] + "-" + compact[4:6] + "-" + compact[6:8]
}
