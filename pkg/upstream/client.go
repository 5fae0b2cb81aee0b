package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/fwt-tools/fwt-dashboard-sync-go/log"
	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/model"
)

// Client talks to the FWT backend REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	l          *log.Logger
	maxElapsed time.Duration
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.l = l }
}

// WithMaxElapsedTime bounds the total time spent on retries per request.
func WithMaxElapsedTime(d time.Duration) Option {
	return func(c *Client) { c.maxElapsed = d }
}

func NewClient(baseURL string, opts ...Option) *Client {
	ret := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		l:          log.Default().Named("upstream"),
		maxElapsed: 20 * time.Second,
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("upstream api status %d: %s", e.StatusCode, e.Body)
}

// GetRaw performs a GET request and returns the raw body. Transient
// failures (network errors, 5xx) are retried with exponential backoff,
// client errors are returned immediately.
func (c *Client) GetRaw(ctx context.Context, path string, query url.Values) (
	[]byte, error,
) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}
	requestID := uuid.NewString()

	op := func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-Id", requestID)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return body, nil
		case resp.StatusCode >= 500:
			return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
		default:
			return nil, backoff.Permanent(
				&APIError{StatusCode: resp.StatusCode, Body: string(body)})
		}
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = c.maxElapsed
	ret, err := backoff.RetryWithData(op, backoff.WithContext(bo, ctx))
	if err != nil {
		c.l.Debug("upstream request failed",
			log.String("url", reqURL),
			log.String("requestId", requestID),
			log.ErrorField(err))
		return nil, err
	}
	return ret, nil
}

func (c *Client) PostJSON(ctx context.Context, path string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return nil
}

// ForceQuery builds the query values carrying the force_refresh
// pass-through parameter.
func ForceQuery(force bool) url.Values {
	q := url.Values{}
	if force {
		q.Set("force_refresh", "true")
	}
	return q
}

// Events lists events, optionally including past events.
func (c *Client) Events(ctx context.Context, includePast, force bool) (
	[]model.EventInfo, error,
) {
	q := ForceQuery(force)
	if includePast {
		q.Set("include_past", "true")
	}
	return getTyped[[]model.EventInfo](ctx, c, "/api/events", q)
}

func (c *Client) EventAthletes(ctx context.Context, eventID string, force bool) (
	[]model.Athlete, error,
) {
	return getTyped[[]model.Athlete](ctx, c,
		fmt.Sprintf("/api/events/%s/athletes", url.PathEscape(eventID)),
		ForceQuery(force))
}

func (c *Client) SeriesRankings(ctx context.Context, eventID string, force bool) (
	[]model.SeriesData, error,
) {
	return getTyped[[]model.SeriesData](ctx, c,
		fmt.Sprintf("/api/series/rankings/%s", url.PathEscape(eventID)),
		ForceQuery(force))
}

func (c *Client) EventHistory(ctx context.Context, athleteID, eventID string) (
	[]model.EventResult, error,
) {
	return getTyped[[]model.EventResult](ctx, c,
		fmt.Sprintf("/api/athlete/%s/event-history/%s",
			url.PathEscape(athleteID), url.PathEscape(eventID)), nil)
}

func (c *Client) CommentatorInfo(ctx context.Context, athleteID string) (
	*model.CommentatorInfo, error,
) {
	ret, err := getTyped[model.CommentatorInfo](ctx, c,
		fmt.Sprintf("/api/commentator-info/%s", url.PathEscape(athleteID)), nil)
	if err != nil {
		return nil, err
	}
	return &ret, nil
}

func (c *Client) SaveCommentatorInfo(ctx context.Context,
	info *model.CommentatorInfo,
) error {
	return c.PostJSON(ctx,
		fmt.Sprintf("/api/commentator-info/%s", url.PathEscape(info.AthleteID)),
		info)
}

//nolint:whitespace // can't make both editor and linter happy
func getTyped[T any](ctx context.Context, c *Client, path string, query url.Values) (
	T, error,
) {
	var ret T
	data, err := c.GetRaw(ctx, path, query)
	if err != nil {
		return ret, err
	}
	if err := json.Unmarshal(data, &ret); err != nil {
		return ret, fmt.Errorf("invalid response for %s: %w", path, err)
	}
	return ret, nil
}

