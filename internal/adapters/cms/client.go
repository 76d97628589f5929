// Package cms reads curated hotel listings from the headless CMS list API.
package cms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"wanstay/internal/adapters/observability"
	"wanstay/internal/domain"
)

const (
	endpoint = "/hotels"
	pageSize = 100
	// hard stop for runaway pagination
	maxPages = 50
)

type Client struct {
	base string
	key  string
	hc   *http.Client
	rl   *rate.Limiter

	warnOnce sync.Once
}

// New returns a client for the CMS at base (e.g. https://<service>.microcms.io/api/v1).
// A client without base or key is valid and answers every call with no records.
func New(base, key string, rps int) *Client {
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		key:  key,
		hc:   &http.Client{Timeout: 10 * time.Second},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}
}

func (c *Client) configured() bool { return c.base != "" && c.key != "" }

// ListAll returns every curated record. Errors are logged and yield an empty list.
func (c *Client) ListAll(ctx context.Context) []domain.CMSRecord {
	return c.list(ctx, "")
}

// ListByPrefecture returns records whose prefecture equals prefecture exactly.
func (c *Client) ListByPrefecture(ctx context.Context, prefecture string) []domain.CMSRecord {
	return c.list(ctx, fmt.Sprintf("prefecture[equals]%s", prefecture))
}

type listResponse struct {
	Contents   []map[string]any `json:"contents"`
	TotalCount int              `json:"totalCount"`
	Offset     int              `json:"offset"`
	Limit      int              `json:"limit"`
}

func (c *Client) list(ctx context.Context, filters string) []domain.CMSRecord {
	out := []domain.CMSRecord{}
	if !c.configured() {
		c.warnOnce.Do(func() { log.Warn().Msg("cms not configured; returning no records") })
		return out
	}
	for page := 0; page < maxPages; page++ {
		q := url.Values{}
		q.Set("limit", strconv.Itoa(pageSize))
		q.Set("offset", strconv.Itoa(page*pageSize))
		if filters != "" {
			q.Set("filters", filters)
		}
		var resp listResponse
		if err := c.get(ctx, c.base+endpoint+"?"+q.Encode(), &resp); err != nil {
			log.Error().Err(err).Str("filters", filters).Msg("cms list failed")
			return []domain.CMSRecord{}
		}
		for _, m := range resp.Contents {
			out = append(out, mapRecord(m))
		}
		if len(resp.Contents) == 0 || len(out) >= resp.TotalCount {
			break
		}
	}
	return out
}

func (c *Client) get(ctx context.Context, u string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-MICROCMS-API-KEY", c.key)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("cms", endpoint, 0, time.Since(start))
		return err
	}
	defer resp.Body.Close()
	observability.ObserveExternal("cms", endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("cms: bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
