// Package api loads raw army-list documents from the list-builder data
// API. The engine never fetches anything itself; this client hands it
// already-parsed documents.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Majawat/convergence-protocol2-sub000/internal/army"
	"github.com/Majawat/convergence-protocol2-sub000/internal/cache"
	"go.uber.org/zap"
)

// Config holds API configuration
type Config struct {
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	config Config
	http   *http.Client
	cache  cache.Cache
	log    *zap.SugaredLogger
}

// NewClient builds a client against baseURL. The cache is injected, not
// ambient: callers decide its scope and lifetime.
func NewClient(baseURL string, c cache.Cache, log *zap.Logger) *Client {
	if c == nil {
		c = cache.NewMemory()
	}
	if log == nil {
		log = zap.NewNop()
	}
	cfg := Config{BaseURL: baseURL, Timeout: 8 * time.Second}
	return &Client{
		config: cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		cache:  c,
		log:    log.Sugar(),
	}
}

// FetchList retrieves one raw list document by its share id.
func (c *Client) FetchList(ctx context.Context, listID string) (army.RawList, error) {
	body, err := c.getCached(ctx, "/api/tts?id="+url.QueryEscape(listID))
	if err != nil {
		return army.RawList{}, fmt.Errorf("fetch list %s: %w", listID, err)
	}
	var raw army.RawList
	if err := json.Unmarshal(body, &raw); err != nil {
		return army.RawList{}, fmt.Errorf("decode list %s: %w", listID, err)
	}
	return raw, nil
}

// getCached issues a conditional GET. A cached entry's server-supplied
// modification stamp goes out as If-Modified-Since; 304 serves the
// cached payload, 200 refreshes it. A transport failure falls back to
// the cached copy when one exists.
func (c *Client) getCached(ctx context.Context, path string) ([]byte, error) {
	full := strings.TrimRight(c.config.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	ent, cached := c.cache.Get(full)
	if cached && !ent.Modified.IsZero() {
		req.Header.Set("If-Modified-Since", ent.Modified.UTC().Format(http.TimeFormat))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if cached {
			c.log.Warnw("fetch failed, serving cached copy", "url", full, "err", err)
			return ent.Body, nil
		}
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotModified:
		if !cached {
			return nil, fmt.Errorf("got 304 with no cached copy for %s", full)
		}
		return ent.Body, nil
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		mod, _ := http.ParseTime(resp.Header.Get("Last-Modified"))
		c.cache.Put(full, cache.Entry{Body: body, Modified: mod, FetchedAt: time.Now()})
		return body, nil
	default:
		return nil, fmt.Errorf("api status %d", resp.StatusCode)
	}
}
