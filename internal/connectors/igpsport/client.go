package igpsport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/velosync/velosync-cli/internal/core/domain"
	"github.com/velosync/velosync-cli/internal/core/ports/driven"
	"github.com/velosync/velosync-cli/internal/logger"
)

const (
	// DefaultBaseURL is the iGPSport service gateway.
	DefaultBaseURL = "https://prod.zh.igpsport.com/service"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultPageSize is the activity listing page size.
	DefaultPageSize = 20

	// appID identifies the web client to the login endpoint.
	appID = "igpsport-web"

	// proactiveRate throttles API calls; the gateway has no published
	// limit but tolerates ~2 req/s from the web client.
	proactiveRate = 2
)

// Ensure Client implements the interface.
var _ driven.SourceClient = (*Client)(nil)

// Config holds configuration for the iGPSport client.
type Config struct {
	// BaseURL is the API base URL (default: DefaultBaseURL).
	BaseURL string

	// Username and Password are the account credentials.
	Username string
	Password string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration

	// PageSize is the listing page size (default: 20).
	PageSize int
}

// Client talks to the iGPSport web API.
type Client struct {
	client   *http.Client
	baseURL  string
	username string
	password string
	pageSize int
	limiter  *rate.Limiter

	mu    sync.Mutex
	token string
}

// envelope is the common iGPSport response wrapper.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// NewClient creates an iGPSport client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = DefaultPageSize
	}

	return &Client{
		client:   &http.Client{Timeout: cfg.Timeout},
		baseURL:  cfg.BaseURL,
		username: cfg.Username,
		password: cfg.Password,
		pageSize: cfg.PageSize,
		limiter:  rate.NewLimiter(rate.Limit(proactiveRate), 1),
	}
}

// Login authenticates with the platform and retains the bearer token
// for subsequent calls.
func (c *Client) Login(ctx context.Context) error {
	body, err := json.Marshal(map[string]string{
		"username": c.username,
		"password": c.password,
		"appId":    appID,
	})
	if err != nil {
		return fmt.Errorf("marshal login request: %w", err)
	}

	var data struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/account/login", bytes.NewReader(body), &data, false); err != nil {
		if IsUnauthorized(err) {
			return fmt.Errorf("%w: %w", domain.ErrAuthInvalid, err)
		}
		return err
	}
	if data.AccessToken == "" {
		return fmt.Errorf("%w: login returned no access token", domain.ErrAuthInvalid)
	}

	c.mu.Lock()
	c.token = data.AccessToken
	c.mu.Unlock()

	logger.Debug("logged in to iGPSport as %s", c.username)
	return nil
}

// listResponse is the activity listing payload.
type listResponse struct {
	Rows []struct {
		RideID     int64  `json:"rideId"`
		StartTime  string `json:"startTime"`
		FitOssPath string `json:"fitOssPath"`
	} `json:"rows"`
	PageNo    int `json:"pageNo"`
	TotalPage int `json:"totalPage"`
}

// ListActivities fetches one page of the user's activities, most recent
// first. Rows with unparseable start times are kept with a zero start
// time; the selector logs and skips them.
func (c *Client) ListActivities(ctx context.Context, page int) (*domain.ActivityPage, error) {
	path := fmt.Sprintf("/web-gateway/web-analyze/activity/queryMyActivity?pageNo=%d&pageSize=%d&reqType=0&sort=1",
		page, c.pageSize)

	var data listResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &data, true); err != nil {
		return nil, err
	}

	result := &domain.ActivityPage{
		Activities: make([]domain.Activity, 0, len(data.Rows)),
		HasMore:    data.PageNo < data.TotalPage,
	}
	for _, row := range data.Rows {
		start, err := parseStartTime(row.StartTime)
		if err != nil {
			logger.Warn("unparseable start time %q for activity %d", row.StartTime, row.RideID)
		}
		result.Activities = append(result.Activities, domain.Activity{
			ID:          row.RideID,
			StartTime:   start,
			DownloadRef: row.FitOssPath,
		})
	}

	return result, nil
}

// detailResponse is the activity detail payload.
type detailResponse struct {
	StartTime string  `json:"startTime"`
	TotalTime float64 `json:"totalTime"`
}

// ActivityDetail fetches full-precision timing for an activity.
func (c *Client) ActivityDetail(ctx context.Context, activityID int64) (*domain.ActivityDetail, error) {
	path := "/web-gateway/web-analyze/activity/queryActivityDetail/" + strconv.FormatInt(activityID, 10)

	var data detailResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &data, true); err != nil {
		return nil, err
	}

	start, err := parseStartTime(data.StartTime)
	if err != nil {
		return nil, fmt.Errorf("parse detail start time %q: %w", data.StartTime, err)
	}

	return &domain.ActivityDetail{
		StartTime: start,
		Duration:  time.Duration(data.TotalTime * float64(time.Second)),
	}, nil
}

// DownloadRecording fetches the FIT file behind a download reference.
// References are absolute object-storage URLs and need no auth header.
func (c *Client) DownloadRecording(ctx context.Context, ref string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download recording: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: "recording download failed"}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read recording: %w", err)
	}
	return data, nil
}

// do performs an API request and decodes the enveloped response data.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any, authed bool) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	var token string
	if authed {
		c.mu.Lock()
		token = c.token
		c.mu.Unlock()
		if token == "" {
			return domain.ErrAuthRequired
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if env.Code != 0 {
		return &APIError{StatusCode: resp.StatusCode, Code: env.Code, Message: env.Message}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode response data: %w", err)
		}
	}
	return nil
}

// startTimeFormats are the timestamp shapes the platform emits:
// date-only in the listing, local datetime in the detail.
var startTimeFormats = []string{
	"2006.01.02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// parseStartTime parses a platform timestamp, trying each known format.
func parseStartTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty start time", domain.ErrInvalidInput)
	}
	for _, format := range startTimeFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognised start time %q", domain.ErrInvalidInput, s)
}
