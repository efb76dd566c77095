// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/tomtom215/staynav/internal/logging"
	"github.com/tomtom215/staynav/internal/models"
)

// FeedConfig describes one partner feed.
type FeedConfig struct {
	ID            string          `koanf:"id"`
	URL           string          `koanf:"url"`
	Format        string          `koanf:"format"`
	APIKey        string          `koanf:"api_key"`
	TrustLevel    float64         `koanf:"trust_level"`
	Timeout       time.Duration   `koanf:"timeout"`
	Charset       string          `koanf:"charset"`
	MaxPages      int             `koanf:"max_pages"`
	MaxRetries    int             `koanf:"max_retries"`
	RetryBackoff  time.Duration   `koanf:"retry_backoff"`
	RatePerSecond float64         `koanf:"rate_per_second"`
	Burst         int             `koanf:"burst"`
	Breaker       bool            `koanf:"breaker"`
	BreakerConfig BreakerSettings `koanf:"breaker_settings"`
}

// maxFeedBody caps a single feed page.
const maxFeedBody = 16 << 20

var feedCharsets = map[string]encoding.Encoding{
	"windows-1251": charmap.Windows1251,
	"cp1251":       charmap.Windows1251,
	"koi8-r":       charmap.KOI8R,
	"iso-8859-1":   charmap.ISO8859_1,
	"latin1":       charmap.ISO8859_1,
}

// feedPage is the envelope every partner feed page uses.
type feedPage struct {
	Items []json.RawMessage `json:"items"`
	Next  string            `json:"next,omitempty"`
}

type feedItemID struct {
	ID json.RawMessage `json:"id"`
}

// FeedAdapter reads listings from a partner JSON-over-HTTP feed.
//
// Endpoints, relative to the configured base URL:
//
//	GET /health                  liveness probe
//	GET /listings?city=..&page=  filtered listings
//	GET /listings/updates?since= listings changed since an RFC 3339 time
type FeedAdapter struct {
	cfg        FeedConfig
	baseURL    string
	httpClient *http.Client
	decoder    encoding.Encoding
	now        func() time.Time
}

// NewFeedAdapter creates a feed adapter.
func NewFeedAdapter(cfg FeedConfig) (*FeedAdapter, error) {
	if cfg.ID == "" {
		return nil, fmt.Errorf("feed id is required")
	}
	u, err := url.Parse(cfg.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("feed %s: invalid url %q", cfg.ID, cfg.URL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 10
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 200 * time.Millisecond
	}

	a := &FeedAdapter{
		cfg:        cfg,
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		now:        time.Now,
	}
	if cs := strings.ToLower(strings.TrimSpace(cfg.Charset)); cs != "" && cs != "utf-8" && cs != "utf8" {
		enc, ok := feedCharsets[cs]
		if !ok {
			return nil, fmt.Errorf("feed %s: unsupported charset %q", cfg.ID, cfg.Charset)
		}
		a.decoder = enc
	}
	return a, nil
}

// SourceID implements Adapter.
func (f *FeedAdapter) SourceID() string { return f.cfg.ID }

// TrustLevel implements Adapter.
func (f *FeedAdapter) TrustLevel() float64 { return f.cfg.TrustLevel }

// IsAvailable issues one GET /health with a short deadline.
func (f *FeedAdapter) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	resp, err := f.doRequest(ctx, "/health", nil)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// Fetch implements Adapter. A page failure after the first page ends
// pagination and keeps what was already read.
func (f *FeedAdapter) Fetch(ctx context.Context, filter models.ListingFilter) ([]models.RawRecord, error) {
	records, _, err := f.readPages(ctx, "/listings", filterQuery(filter))
	return records, err
}

// PullUpdates implements UpdatePuller. Feeds give no ordering guarantee,
// so a pull cut short by max_pages or a page failure names no resume point.
func (f *FeedAdapter) PullUpdates(ctx context.Context, since time.Time) (Pull, error) {
	q := url.Values{}
	if !since.IsZero() {
		q.Set("since", since.UTC().Format(time.RFC3339))
	}
	records, complete, err := f.readPages(ctx, "/listings/updates", q)
	if err != nil {
		return Pull{}, err
	}
	return Pull{Records: records, Complete: complete}, nil
}

// readPages follows the cursor chain. complete is false when pagination
// stopped before the feed ran out of pages.
func (f *FeedAdapter) readPages(ctx context.Context, endpoint string, q url.Values) (out []models.RawRecord, complete bool, err error) {
	cursor := ""
	for page := 0; page < f.cfg.MaxPages; page++ {
		if cursor != "" {
			q.Set("cursor", cursor)
		}
		p, err := f.getPage(ctx, endpoint, q)
		if err != nil {
			if page == 0 {
				return nil, false, err
			}
			logging.Warn().Err(err).Str("source", f.cfg.ID).Int("page", page).Msg("Feed pagination stopped early")
			return out, false, nil
		}
		out = append(out, f.toRaw(p.Items)...)
		if p.Next == "" {
			return out, true, nil
		}
		cursor = p.Next
	}
	logging.Warn().Str("source", f.cfg.ID).Int("max_pages", f.cfg.MaxPages).Msg("Feed has more pages than max_pages")
	return out, false, nil
}

// getPage retries transport errors, 429 and 5xx with exponential backoff.
// Other failures return on the first attempt.
func (f *FeedAdapter) getPage(ctx context.Context, endpoint string, q url.Values) (*feedPage, error) {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = f.cfg.RetryBackoff
	exp.MaxInterval = 10 * f.cfg.RetryBackoff
	exp.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(f.cfg.MaxRetries)), ctx)

	var page *feedPage
	err := backoff.RetryNotify(func() error {
		p, err := f.getPageOnce(ctx, endpoint, q)
		if err != nil {
			return err
		}
		page = p
		return nil
	}, policy, func(err error, wait time.Duration) {
		logging.Debug().Err(err).Str("source", f.cfg.ID).Dur("wait", wait).Msg("Retrying feed page")
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (f *FeedAdapter) getPageOnce(ctx context.Context, endpoint string, q url.Values) (*feedPage, error) {
	resp, err := f.doRequest(ctx, endpoint, q)
	if err != nil {
		return nil, fmt.Errorf("feed %s request failed: %w", f.cfg.ID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusServiceUnavailable:
		return nil, fmt.Errorf("%w: feed %s returned 503", ErrSourceUnavailable, f.cfg.ID)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("feed %s returned status %d", f.cfg.ID, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, backoff.Permanent(fmt.Errorf("feed %s returned status %d: %s", f.cfg.ID, resp.StatusCode, string(body)))
	}

	var body io.Reader = io.LimitReader(resp.Body, maxFeedBody)
	if f.decoder != nil {
		body = transform.NewReader(body, f.decoder.NewDecoder())
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("feed %s read body: %w", f.cfg.ID, err)
	}

	var p feedPage
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to decode feed %s page: %w", f.cfg.ID, err))
	}
	return &p, nil
}

// toRaw wraps each item. Items without a usable id are skipped.
func (f *FeedAdapter) toRaw(items []json.RawMessage) []models.RawRecord {
	fetchedAt := f.now().UTC()
	out := make([]models.RawRecord, 0, len(items))
	for _, item := range items {
		id, ok := itemID(item)
		if !ok {
			logging.Debug().Str("source", f.cfg.ID).Msg("Skipping feed item without id")
			continue
		}
		out = append(out, models.RawRecord{
			Source:     f.cfg.ID,
			ExternalID: id,
			Payload:    append(json.RawMessage(nil), item...),
			FetchedAt:  fetchedAt,
		})
	}
	return out
}

func itemID(item json.RawMessage) (string, bool) {
	var v feedItemID
	if err := json.Unmarshal(item, &v); err != nil || len(v.ID) == 0 {
		return "", false
	}
	raw := bytes.TrimSpace(v.ID)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil || s == "" {
			return "", false
		}
		return s, true
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", false
	}
	return n.String(), true
}

func filterQuery(f models.ListingFilter) url.Values {
	q := url.Values{}
	if f.City != "" {
		q.Set("city", f.City)
	}
	if f.Center != nil {
		q.Set("lat", strconv.FormatFloat(f.Center.Lat, 'f', 6, 64))
		q.Set("lng", strconv.FormatFloat(f.Center.Lng, 'f', 6, 64))
		if f.RadiusKm > 0 {
			q.Set("radius_km", strconv.FormatFloat(f.RadiusKm, 'f', -1, 64))
		}
	}
	if f.PriceMin > 0 {
		q.Set("min_price", strconv.FormatFloat(f.PriceMin, 'f', -1, 64))
	}
	if f.PriceMax > 0 {
		q.Set("max_price", strconv.FormatFloat(f.PriceMax, 'f', -1, 64))
	}
	if f.MinGuests > 0 {
		q.Set("guests", strconv.Itoa(f.MinGuests))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}

func (f *FeedAdapter) doRequest(ctx context.Context, endpoint string, q url.Values) (*http.Response, error) {
	fullURL := f.baseURL + endpoint
	if len(q) > 0 {
		fullURL += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "StayNav/1.0")
	if f.cfg.APIKey != "" {
		req.Header.Set("X-API-Key", f.cfg.APIKey)
	}
	return f.httpClient.Do(req)
}

// BuildFeedAdapter creates a feed adapter with its configured decorators.
func BuildFeedAdapter(cfg FeedConfig) (Adapter, error) {
	feed, err := NewFeedAdapter(cfg)
	if err != nil {
		return nil, err
	}
	var a Adapter = feed
	a = WithRateLimit(a, cfg.RatePerSecond, cfg.Burst)
	if cfg.Breaker {
		settings := cfg.BreakerConfig
		if settings.MaxRequests == 0 {
			settings = DefaultBreakerSettings()
		}
		a = WithBreaker(a, settings)
	}
	return a, nil
}
