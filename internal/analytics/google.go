package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/time/rate"
)

const (
	dataAPIBase    = "https://analyticsdata.googleapis.com/v1beta"
	analyticsScope = "https://www.googleapis.com/auth/analytics.readonly"
)

// GoogleClient is a GA4 Data API client. It authenticates with a service
// account key via the OAuth JWT bearer grant and caches the access token
// until shortly before expiry. All requests share an explicit HTTP
// timeout and a client-side rate limit against API quotas.
type GoogleClient struct {
	propertyID string
	key        *ServiceAccountKey
	httpClient *http.Client
	limiter    *rate.Limiter

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// GoogleClientConfig configures the GA4 client.
type GoogleClientConfig struct {
	PropertyID     string
	Key            *ServiceAccountKey
	RequestTimeout time.Duration // default 10s
	RequestsPerSec float64       // default 5
}

// NewGoogleClient creates a GA4 Data API client. The key's private key is
// parsed eagerly so credential misconfiguration fails at startup.
func NewGoogleClient(cfg GoogleClientConfig) (*GoogleClient, error) {
	if cfg.PropertyID == "" {
		return nil, fmt.Errorf("analytics property id is required")
	}
	if cfg.Key == nil {
		return nil, fmt.Errorf("service account key is required")
	}
	if _, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(cfg.Key.PrivateKey)); err != nil {
		return nil, fmt.Errorf("parse service account private key: %w", err)
	}
	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	rps := cfg.RequestsPerSec
	if rps == 0 {
		rps = 5
	}
	return &GoogleClient{
		propertyID: cfg.PropertyID,
		key:        cfg.Key,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), int(rps)),
	}, nil
}

// token returns a valid access token, minting a new one when the cached
// token is within a minute of expiry.
func (c *GoogleClient) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry.Add(-time.Minute)) {
		return c.accessToken, nil
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"iss":   c.key.ClientEmail,
		"scope": analyticsScope,
		"aud":   c.key.TokenURI,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(c.key.PrivateKey))
	if err != nil {
		return "", fmt.Errorf("parse private key: %w", err)
	}
	assertion, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(privateKey)
	if err != nil {
		return "", fmt.Errorf("sign token assertion: %w", err)
	}

	form := url.Values{
		"grant_type": {"urn:ietf:params:oauth:grant-type:jwt-bearer"},
		"assertion":  {assertion},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.key.TokenURI,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token exchange: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return "", fmt.Errorf("token exchange: status %d: %s", res.StatusCode, body)
	}

	var tr struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(res.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("token exchange returned empty token")
	}

	c.accessToken = tr.AccessToken
	c.tokenExpiry = now.Add(time.Duration(tr.ExpiresIn) * time.Second)
	return c.accessToken, nil
}

// Wire types for the v1beta JSON surface.

type apiDateRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type apiName struct {
	Name string `json:"name"`
}

type apiOrderBy struct {
	Desc   bool `json:"desc"`
	Metric struct {
		MetricName string `json:"metricName"`
	} `json:"metric"`
}

type apiReportRequest struct {
	DateRanges []apiDateRange `json:"dateRanges,omitempty"`
	Dimensions []apiName      `json:"dimensions,omitempty"`
	Metrics    []apiName      `json:"metrics"`
	Limit      int64          `json:"limit,omitempty,string"`
	OrderBys   []apiOrderBy   `json:"orderBys,omitempty"`
}

type apiValue struct {
	Value string `json:"value"`
}

type apiRow struct {
	DimensionValues []apiValue `json:"dimensionValues"`
	MetricValues    []apiValue `json:"metricValues"`
}

type apiReportResponse struct {
	Rows []apiRow `json:"rows"`
}

// RunReport executes a standard report.
func (c *GoogleClient) RunReport(ctx context.Context, req ReportRequest) (*Report, error) {
	body := apiReportRequest{
		DateRanges: []apiDateRange{{StartDate: req.StartDate, EndDate: req.EndDate}},
		Limit:      req.Limit,
	}
	for _, d := range req.Dimensions {
		body.Dimensions = append(body.Dimensions, apiName{Name: d})
	}
	for _, m := range req.Metrics {
		body.Metrics = append(body.Metrics, apiName{Name: m})
	}
	if req.OrderByMetric != "" {
		ob := apiOrderBy{Desc: true}
		ob.Metric.MetricName = req.OrderByMetric
		body.OrderBys = append(body.OrderBys, ob)
	}
	return c.post(ctx, fmt.Sprintf("%s/properties/%s:runReport", dataAPIBase, c.propertyID), body)
}

// RunRealtimeReport executes a realtime report (last 30 minutes).
func (c *GoogleClient) RunRealtimeReport(ctx context.Context, metrics []string) (*Report, error) {
	body := apiReportRequest{}
	for _, m := range metrics {
		body.Metrics = append(body.Metrics, apiName{Name: m})
	}
	return c.post(ctx, fmt.Sprintf("%s/properties/%s:runRealtimeReport", dataAPIBase, c.propertyID), body)
}

func (c *GoogleClient) post(ctx context.Context, endpoint string, body any) (*Report, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal report request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build report request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := c.httpClient.Do(req)
	if err != nil {
		// Timeouts and transport failures count as API errors so the
		// overview fallback chain treats them like rejections.
		return nil, &APIError{StatusCode: 0, Message: err.Error()}
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		msg := string(raw)
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}
		return nil, &APIError{StatusCode: res.StatusCode, Message: msg}
	}

	var parsed apiReportResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode report response: %w", err)
	}

	report := &Report{}
	for _, r := range parsed.Rows {
		row := Row{}
		for _, v := range r.DimensionValues {
			row.Dimensions = append(row.Dimensions, v.Value)
		}
		for _, v := range r.MetricValues {
			row.Metrics = append(row.Metrics, v.Value)
		}
		report.Rows = append(report.Rows, row)
	}
	return report, nil
}
