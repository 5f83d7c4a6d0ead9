package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/core/domain"
)

const (
	DefaultBaseURL = "https://graph.microsoft.com/v1.0"

	// batchSize is the maximum number of requests Graph accepts in one $batch.
	batchSize      = 20
	profileSelect  = "id,displayName,mail,userPrincipalName,jobTitle"
	defaultTimeout = 15 * time.Second
	maxErrorBody   = 512
	odataUserType  = "#microsoft.graph.user"
)

var errNotFound = errors.New("graph: resource not found")

// Config holds the app registration used for the client credentials flow.
type Config struct {
	TenantID          string
	ClientID          string
	ClientSecret      string
	BaseURL           string
	RequestsPerSecond float64
	Timeout           time.Duration
}

// Client is a Microsoft Graph backed implementation of
// ports.IdentityDirectory.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// NewClient authenticates with the app's client credentials. Tokens are
// fetched and refreshed by the returned client's transport.
func NewClient(ctx context.Context, cfg Config, logger zerolog.Logger) *Client {
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", url.PathEscape(cfg.TenantID)),
		Scopes:       []string{"https://graph.microsoft.com/.default"},
	}
	httpClient := cc.Client(ctx)
	httpClient.Timeout = cfg.Timeout
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultTimeout
	}
	return NewClientWithHTTP(httpClient, cfg.BaseURL, cfg.RequestsPerSecond, logger)
}

// NewClientWithHTTP wraps an already authenticated http.Client. A
// non-positive requestsPerSecond disables client side throttling.
func NewClientWithHTTP(httpClient *http.Client, baseURL string, requestsPerSecond float64, logger zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	limit := rate.Inf
	burst := 0
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
		burst = int(requestsPerSecond)
		if burst < 1 {
			burst = 1
		}
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		limiter:    rate.NewLimiter(limit, burst),
		logger:     logger,
	}
}

type directoryObject struct {
	ODataType         string `json:"@odata.type"`
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	Mail              string `json:"mail"`
	UserPrincipalName string `json:"userPrincipalName"`
	JobTitle          string `json:"jobTitle"`
}

func (o directoryObject) profile() domain.Profile {
	return domain.Profile{
		ID:                o.ID,
		DisplayName:       o.DisplayName,
		Mail:              o.Mail,
		UserPrincipalName: o.UserPrincipalName,
		JobTitle:          o.JobTitle,
	}
}

type directoryPage struct {
	Value    []directoryObject `json:"value"`
	NextLink string            `json:"@odata.nextLink"`
}

// ListDirectReports pages through the user's direct reports. With search
// set, only reports whose display name or mail starts with it are
// returned.
func (c *Client) ListDirectReports(ctx context.Context, userID, search string) ([]domain.Profile, error) {
	q := url.Values{}
	q.Set("$select", profileSelect)
	header := http.Header{}
	if search != "" {
		s := quoteODataString(search)
		q.Set("$filter", fmt.Sprintf("startsWith(displayName,%s) or startsWith(mail,%s)", s, s))
		q.Set("$count", "true")
		header.Set("ConsistencyLevel", "eventual")
	}
	endpoint := fmt.Sprintf("%s/users/%s/directReports?%s", c.baseURL, url.PathEscape(userID), q.Encode())

	profiles := make([]domain.Profile, 0)
	for endpoint != "" {
		var page directoryPage
		if err := c.getJSON(ctx, endpoint, header, &page); err != nil {
			if errors.Is(err, errNotFound) {
				return profiles, nil
			}
			return nil, fmt.Errorf("direct reports of %s: %w", userID, err)
		}
		for _, o := range page.Value {
			if o.ODataType != "" && o.ODataType != odataUserType {
				continue
			}
			profiles = append(profiles, o.profile())
		}
		endpoint = page.NextLink
	}
	return profiles, nil
}

// GetManager returns nil when the user has no manager.
func (c *Client) GetManager(ctx context.Context, userID string) (*domain.Profile, error) {
	endpoint := fmt.Sprintf("%s/users/%s/manager?$select=%s", c.baseURL, url.PathEscape(userID), profileSelect)

	var o directoryObject
	if err := c.getJSON(ctx, endpoint, nil, &o); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("manager of %s: %w", userID, err)
	}
	p := o.profile()
	return &p, nil
}

type batchRequest struct {
	Requests []batchStep `json:"requests"`
}

type batchStep struct {
	ID     string `json:"id"`
	Method string `json:"method"`
	URL    string `json:"url"`
}

type batchResponse struct {
	Responses []struct {
		ID     string          `json:"id"`
		Status int             `json:"status"`
		Body   json.RawMessage `json:"body"`
	} `json:"responses"`
}

// GetUsers resolves profiles through $batch requests of up to 20 users,
// sent one after another. Unknown ids are left out of the result.
func (c *Client) GetUsers(ctx context.Context, ids []string) (map[string]domain.Profile, error) {
	profiles := make(map[string]domain.Profile, len(ids))
	for start := 0; start < len(ids); start += batchSize {
		end := start + batchSize
		if end > len(ids) {
			end = len(ids)
		}
		if err := c.fetchBatch(ctx, ids[start:end], profiles); err != nil {
			return nil, err
		}
	}
	return profiles, nil
}

func (c *Client) fetchBatch(ctx context.Context, ids []string, into map[string]domain.Profile) error {
	req := batchRequest{Requests: make([]batchStep, 0, len(ids))}
	for i, id := range ids {
		req.Requests = append(req.Requests, batchStep{
			ID:     strconv.Itoa(i + 1),
			Method: http.MethodGet,
			URL:    fmt.Sprintf("/users/%s?$select=%s", url.PathEscape(id), profileSelect),
		})
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("%w: encode batch: %w", domain.ErrDirectoryUnavailable, err)
	}

	var resp batchResponse
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/$batch", nil, payload, &resp); err != nil {
		return fmt.Errorf("users batch: %w", err)
	}

	for _, r := range resp.Responses {
		switch {
		case r.Status == http.StatusNotFound:
			c.logger.Debug().Str("step", r.ID).Msg("user not found in directory")
		case r.Status < 200 || r.Status > 299:
			return fmt.Errorf("%w: users batch step %s returned %d", domain.ErrDirectoryUnavailable, r.ID, r.Status)
		default:
			var o directoryObject
			if err := json.Unmarshal(r.Body, &o); err != nil {
				return fmt.Errorf("%w: decode batch step %s: %w", domain.ErrDirectoryUnavailable, r.ID, err)
			}
			into[o.ID] = o.profile()
		}
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, header http.Header, out any) error {
	return c.doJSON(ctx, http.MethodGet, endpoint, header, nil, out)
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, header http.Header, payload []byte, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: throttled: %w", domain.ErrDirectoryUnavailable, err)
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("%w: creating request: %w", domain.ErrDirectoryUnavailable, err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrDirectoryUnavailable, err)
	}
	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("%w: reading response body: %w", domain.ErrDirectoryUnavailable, err)
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(started)).
		Msg("graph request")

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		if len(raw) > maxErrorBody {
			raw = raw[:maxErrorBody]
		}
		return fmt.Errorf("%w: graph API error %d: %s", domain.ErrDirectoryUnavailable, resp.StatusCode, string(raw))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decoding graph response: %w", domain.ErrDirectoryUnavailable, err)
	}
	return nil
}

// quoteODataString wraps s in single quotes, doubling embedded quotes.
func quoteODataString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
