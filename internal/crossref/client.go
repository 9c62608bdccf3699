// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package crossref looks up DOIs in the CrossRef registry and normalizes the
// response into a canonical publication record.
package crossref

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/IRL-CT/IRL-CT.github.io/internal/httputil"
	"github.com/IRL-CT/IRL-CT.github.io/internal/logging"
	"github.com/IRL-CT/IRL-CT.github.io/pkg/types"
)

// FetchError reports a failed lookup for one DOI. Status is the HTTP status
// for non-2xx responses and zero for transport or decode failures.
type FetchError struct {
	DOI    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetching %s: registry returned HTTP %d", e.DOI, e.Status)
	}
	return fmt.Sprintf("fetching %s: %v", e.DOI, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Client performs single CrossRef lookups. It never writes to the cache and
// retries only when MaxRetries is configured.
type Client struct {
	http       *http.Client
	baseURL    string
	userAgent  string
	plusToken  string
	maxRetries int
	logger     *zap.Logger
	now        func() time.Time
}

// NewClient returns a client for cfg. A nil httpClient gets one with
// cfg.Timeout.
func NewClient(cfg types.RegistryConfig, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = types.DefaultRegistryURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Client{
		http:       httpClient,
		baseURL:    baseURL,
		userAgent:  UserAgent(cfg),
		plusToken:  cfg.PlusToken,
		maxRetries: cfg.MaxRetries,
		logger:     logging.OrNop(logger),
		now:        time.Now,
	}
}

// UserAgent builds the descriptive client string CrossRef uses to route
// polite-pool traffic, e.g. "pubsync/0.1 (https://site; mailto:me@site)".
func UserAgent(cfg types.RegistryConfig) string {
	product := cfg.UserAgent
	if product == "" {
		product = "pubsync"
	}
	var contact []string
	if cfg.Site != "" {
		contact = append(contact, cfg.Site)
	}
	if cfg.Mailto != "" {
		contact = append(contact, "mailto:"+cfg.Mailto)
	}
	if len(contact) == 0 {
		return product
	}
	return product + " (" + strings.Join(contact, "; ") + ")"
}

var doiEscaper = strings.NewReplacer("%", "%25", "#", "%23", "?", "%3F", " ", "%20")

// Fetch retrieves and normalizes the registry record for doi.
func (c *Client) Fetch(ctx context.Context, doi string) (types.Publication, error) {
	apiURL := c.baseURL + doiEscaper.Replace(doi)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return types.Publication{}, &FetchError{DOI: doi, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if c.plusToken != "" {
		req.Header.Set("Crossref-Plus-API-Token", "Bearer "+c.plusToken)
	}

	c.logger.Debug("fetching registry record", zap.String(logging.FieldDOI, doi))

	var resp *http.Response
	if c.maxRetries > 0 {
		resp, err = httputil.DoWithRetry(ctx, c.http, req, c.maxRetries, c.logger)
	} else {
		resp, err = c.http.Do(req)
	}
	if err != nil {
		return types.Publication{}, &FetchError{DOI: doi, Err: fmt.Errorf("CrossRef API request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return types.Publication{}, &FetchError{DOI: doi, Status: resp.StatusCode}
	}

	var wr workResponse
	if err := json.NewDecoder(resp.Body).Decode(&wr); err != nil {
		return types.Publication{}, &FetchError{DOI: doi, Err: fmt.Errorf("parsing CrossRef response: %w", err)}
	}

	return Normalize(doi, wr.Message, c.now().UTC()), nil
}
