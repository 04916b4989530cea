// Package directory provides the professional directory backed by a Google
// Sheet. The sheet is an external collaborator with a narrow contract: tabs
// of rows with a header line. Lookups run against a TTL cache so chat traffic
// doesn't hammer the Sheets API.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// Row is one sheet row keyed by header name.
type Row map[string]string

// Source yields the rows of a sheet tab.
type Source interface {
	Rows(ctx context.Context, tab string) ([]Row, error)
}

// SheetsClient reads a spreadsheet through the Google Sheets values API.
type SheetsClient struct {
	apiBase string
	apiKey  string
	sheetID string
	client  *http.Client
}

// NewSheetsClient creates a read-only client for one spreadsheet.
func NewSheetsClient(apiKey, sheetID string) *SheetsClient {
	return &SheetsClient{
		apiBase: "https://sheets.googleapis.com/v4/spreadsheets",
		apiKey:  apiKey,
		sheetID: sheetID,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// WithBaseURL overrides the API endpoint (tests).
func (c *SheetsClient) WithBaseURL(base string) *SheetsClient {
	c.apiBase = base
	return c
}

// Rows fetches a tab and maps each data row onto the header row.
// Short rows are padded with empty strings; extra cells are dropped.
func (c *SheetsClient) Rows(ctx context.Context, tab string) ([]Row, error) {
	endpoint := fmt.Sprintf("%s/%s/values/%s?key=%s",
		c.apiBase, url.PathEscape(c.sheetID), url.PathEscape(tab), url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create sheets request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch sheet tab %s: %w", tab, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("sheets API %d for tab %s: %s", resp.StatusCode, tab, body)
	}

	var payload struct {
		Values [][]string `json:"values"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode sheet tab %s: %w", tab, err)
	}

	if len(payload.Values) < 2 {
		return nil, nil
	}

	headers := payload.Values[0]
	rows := make([]Row, 0, len(payload.Values)-1)
	for _, cells := range payload.Values[1:] {
		row := make(Row, len(headers))
		for i, h := range headers {
			if i < len(cells) {
				row[h] = cells[i]
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// CachedSource wraps a Source with a per-tab TTL cache. On refresh failure it
// serves the stale rows, so a Sheets outage degrades instead of breaking chat.
type CachedSource struct {
	src Source
	ttl time.Duration

	mu    sync.Mutex
	cache map[string]cachedTab
}

type cachedTab struct {
	rows    []Row
	fetched time.Time
}

// NewCachedSource wraps src with the given TTL.
func NewCachedSource(src Source, ttl time.Duration) *CachedSource {
	return &CachedSource{src: src, ttl: ttl, cache: make(map[string]cachedTab)}
}

// Rows returns cached rows when fresh, otherwise refreshes.
func (c *CachedSource) Rows(ctx context.Context, tab string) ([]Row, error) {
	c.mu.Lock()
	entry, ok := c.cache[tab]
	c.mu.Unlock()

	if ok && time.Since(entry.fetched) < c.ttl {
		return entry.rows, nil
	}

	rows, err := c.src.Rows(ctx, tab)
	if err != nil {
		if ok {
			// Stale beats broken.
			return entry.rows, nil
		}
		return nil, err
	}

	c.mu.Lock()
	c.cache[tab] = cachedTab{rows: rows, fetched: time.Now()}
	c.mu.Unlock()
	return rows, nil
}
