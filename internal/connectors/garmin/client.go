package garmin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/velosync/velosync-cli/internal/core/domain"
	"github.com/velosync/velosync-cli/internal/core/ports/driven"
	"github.com/velosync/velosync-cli/internal/logger"
)

const (
	// DefaultTimeout is the default HTTP request timeout. Uploads can
	// take a while on slow connections.
	DefaultTimeout = 60 * time.Second

	ssoSigninPath  = "/sso/signin"
	exchangePath   = "/oauth-service/oauth/exchange/user/2.0"
	activitiesPath = "/activitylist-service/activities/search/activities"
	uploadPath     = "/upload-service/upload/.fit"

	// proactiveRate throttles API calls; Garmin Connect is quick to
	// rate-limit unattended clients.
	proactiveRate = 1
)

// Ensure Client implements the interface.
var _ driven.DestinationClient = (*Client)(nil)

// ticketPattern extracts the SSO service ticket from the signin
// response body.
var ticketPattern = regexp.MustCompile(`ticket=([\w.-]+)`)

// Config holds configuration for the Garmin Connect client.
type Config struct {
	// Email and Password are the account credentials.
	Email    string
	Password string

	// Domain is the platform domain, e.g. "garmin.com" or "garmin.cn".
	Domain string

	// StateDir is where the session cache lives. Empty disables
	// session caching.
	StateDir string

	// SSOBaseURL and APIBaseURL override the derived endpoints.
	// Primarily for tests.
	SSOBaseURL string
	APIBaseURL string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration
}

// Client talks to the Garmin Connect API. Authentication goes through
// the SSO signin flow and exchanges the service ticket for an OAuth
// token, which is cached on disk between runs.
type Client struct {
	client     *http.Client
	ssoBaseURL string
	apiBaseURL string
	email      string
	password   string
	cache      *sessionCache
	limiter    *rate.Limiter

	mu    sync.Mutex
	token *oauth2.Token
}

// NewClient creates a Garmin Connect client.
func NewClient(cfg Config) *Client {
	if cfg.Domain == "" {
		cfg.Domain = domain.DefaultDestDomain
	}
	if cfg.SSOBaseURL == "" {
		cfg.SSOBaseURL = "https://sso." + cfg.Domain
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "https://connectapi." + cfg.Domain
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		client:     &http.Client{Timeout: cfg.Timeout},
		ssoBaseURL: cfg.SSOBaseURL,
		apiBaseURL: cfg.APIBaseURL,
		email:      cfg.Email,
		password:   cfg.Password,
		cache:      newSessionCache(cfg.StateDir),
		limiter:    rate.NewLimiter(rate.Limit(proactiveRate), 1),
	}
}

// Authenticate establishes a session. With force=false a valid cached
// session is reused; force=true discards the cache and logs in afresh.
func (c *Client) Authenticate(ctx context.Context, force bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if force {
		c.token = nil
		c.cache.clear()
	} else {
		if c.token.Valid() {
			return nil
		}
		if cached := c.cache.load(); cached.Valid() {
			logger.Debug("reusing cached Garmin session")
			c.token = cached
			return nil
		}
	}

	token, err := c.login(ctx)
	if err != nil {
		return err
	}

	c.token = token
	if err := c.cache.save(token); err != nil {
		logger.Warn("could not cache Garmin session: %v", err)
	}

	logger.Debug("authenticated with Garmin Connect as %s", c.email)
	return nil
}

// login performs the SSO signin and ticket exchange.
func (c *Client) login(ctx context.Context) (*oauth2.Token, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	form := url.Values{
		"username": {c.email},
		"password": {c.password},
		"embed":    {"false"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.ssoBaseURL+ssoSigninPath,
		bytes.NewBufferString(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create signin request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sso signin: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read signin response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: sso signin status %d", domain.ErrAuthInvalid, resp.StatusCode)
	}

	match := ticketPattern.FindSubmatch(body)
	if match == nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrAuthInvalid, ErrNoTicket)
	}

	return c.exchangeTicket(ctx, string(match[1]))
}

// exchangeTicket swaps the SSO service ticket for an OAuth token.
func (c *Client) exchangeTicket(ctx context.Context, ticket string) (*oauth2.Token, error) {
	form := url.Values{"ticket": {ticket}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBaseURL+exchangePath,
		bytes.NewBufferString(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create exchange request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ticket exchange: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: ticket exchange status %d", domain.ErrAuthInvalid, resp.StatusCode)
	}

	var payload struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode exchange response: %w", err)
	}
	if payload.AccessToken == "" {
		return nil, fmt.Errorf("%w: ticket exchange returned no access token", domain.ErrAuthInvalid)
	}

	return &oauth2.Token{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second),
	}, nil
}

// activityEntry is one row of the activity search response.
type activityEntry struct {
	StartTimeLocal string  `json:"startTimeLocal"`
	Duration       float64 `json:"duration"`
}

// ListRecentActivities returns the timing of the user's most recent
// activities. Entries with unparseable start times are skipped with a
// warning.
func (c *Client) ListRecentActivities(ctx context.Context, limit int) ([]domain.Interval, error) {
	token, err := c.currentToken()
	if err != nil {
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := c.apiBaseURL + activitiesPath + "?start=0&limit=" + strconv.Itoa(limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp.StatusCode, "activity search failed")
	}

	var entries []activityEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode activities: %w", err)
	}

	intervals := make([]domain.Interval, 0, len(entries))
	for _, entry := range entries {
		start, err := parseLocalTime(entry.StartTimeLocal)
		if err != nil {
			logger.Warn("unparseable destination activity time %q", entry.StartTimeLocal)
			continue
		}
		intervals = append(intervals, domain.Interval{
			Start:    start,
			Duration: time.Duration(entry.Duration * float64(time.Second)),
		})
	}

	return intervals, nil
}

// UploadRecording uploads a FIT file. The multipart body is built in
// memory and released with the request on every exit path; failures are
// classified for the orchestrator's backoff shaping. A duplicate-file
// conflict counts as success - the ride is already there.
func (c *Client) UploadRecording(ctx context.Context, data []byte) error {
	token, err := c.currentToken()
	if err != nil {
		return err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "activity.fit")
	if err != nil {
		return fmt.Errorf("create multipart: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("write multipart: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBaseURL+uploadPath, &buf)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("upload recording: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
		return nil
	case http.StatusConflict:
		// The platform already has this file.
		logger.Warn("destination reports the recording as a duplicate")
		return nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return classifyStatus(resp.StatusCode, string(body))
	}
}

// currentToken returns the session token or ErrAuthRequired.
func (c *Client) currentToken() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.token.Valid() {
		return "", domain.ErrAuthRequired
	}
	return c.token.AccessToken, nil
}

// localTimeFormats are the timestamp shapes the activity search emits.
var localTimeFormats = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// parseLocalTime parses a destination timestamp.
func parseLocalTime(s string) (time.Time, error) {
	for _, format := range localTimeFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognised time %q", domain.ErrInvalidInput, s)
}
