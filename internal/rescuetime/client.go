// Package rescuetime is a minimal client for the RescueTime summary API.
package rescuetime

import (
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

	"github.com/tOgg1/devtime/internal/logging"
	"github.com/tOgg1/devtime/internal/models"
)

const (
	// DefaultBaseURL is the public RescueTime origin.
	DefaultBaseURL = "https://www.rescuetime.com"

	summaryPath = "/api/data/taxonomy_presence_summary"

	// maxBodyBytes caps how much of a response is read.
	maxBodyBytes = 1 << 20
)

// ErrMissingKey is returned when a request is attempted without a key.
var ErrMissingKey = errors.New("api key is required")

// Options configures a Client.
type Options struct {
	BaseURL      string
	TaxonomyName string
	TaxonID      int
	Timeout      time.Duration
	UserAgent    string

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// Client fetches taxonomy presence summaries.
type Client struct {
	baseURL      string
	taxonomyName string
	taxonID      int
	userAgent    string
	http         *http.Client
	logger       zerolog.Logger
}

// NewClient creates a Client. Zero options fall back to the public endpoint
// and the software-development rollup (overview/10).
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.TaxonomyName == "" {
		opts.TaxonomyName = "overview"
	}
	if opts.TaxonID == 0 {
		opts.TaxonID = 10
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	return &Client{
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		taxonomyName: opts.TaxonomyName,
		taxonID:      opts.TaxonID,
		userAgent:    opts.UserAgent,
		http:         httpClient,
		logger:       logging.Component("rescuetime"),
	}
}

// SummaryURL returns the fully-qualified summary URL.
func (c *Client) SummaryURL() string {
	query := url.Values{}
	query.Set("taxonomy_name", c.taxonomyName)
	query.Set("taxon_id", strconv.Itoa(c.taxonID))
	return c.baseURL + summaryPath + "?" + query.Encode()
}

// PresenceSummary fetches today's summary for the configured taxon. Every
// failure is returned as a *RequestError.
func (c *Client) PresenceSummary(ctx context.Context, apiKey string) (*models.Summary, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, &RequestError{Err: ErrMissingKey}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.SummaryURL(), nil)
	if err != nil {
		return nil, &RequestError{Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &RequestError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &RequestError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	c.logger.Debug().
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(started)).
		Int("bytes", len(body)).
		Msg("summary response")

	// The API sometimes reports errors with a 200 status.
	message := errorMessage(body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 || message != "" {
		return nil, &RequestError{
			StatusCode: resp.StatusCode,
			Message:    message,
			Body:       truncate(body, 512),
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	var summary models.Summary
	if err := json.Unmarshal(body, &summary); err != nil {
		return nil, &RequestError{
			StatusCode: resp.StatusCode,
			Body:       truncate(body, 512),
			Err:        fmt.Errorf("decode summary: %w", err),
		}
	}
	return &summary, nil
}

func truncate(body []byte, n int) []byte {
	if len(body) <= n {
		return body
	}
	return body[:n]
}
