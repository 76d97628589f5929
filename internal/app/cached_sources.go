package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"wanstay/internal/domain"
)

// CachedCMS and CachedBooking put a short-lived cache in front of a source,
// keyed by (source, query). Empty answers are not cached: both sources use an
// empty list to mean "unavailable" as well as "no data". Neither is the booking
// fallback dataset, so live results reappear as soon as the provider recovers.

type CachedCMS struct {
	next  domain.CMSClient
	cache domain.Cache
	ttl   time.Duration
}

func NewCachedCMS(next domain.CMSClient, c domain.Cache, ttl time.Duration) *CachedCMS {
	return &CachedCMS{next: next, cache: c, ttl: ttl}
}

func cmsAllKey() string            { return "src:cms:all" }
func cmsPrefKey(pref string) string { return "src:cms:pref:" + pref }

func (c *CachedCMS) ListAll(ctx context.Context) []domain.CMSRecord {
	return cachedList(ctx, c.cache, c.ttl, cmsAllKey(), func() []domain.CMSRecord {
		return c.next.ListAll(ctx)
	}, nil)
}

func (c *CachedCMS) ListByPrefecture(ctx context.Context, prefecture string) []domain.CMSRecord {
	return cachedList(ctx, c.cache, c.ttl, cmsPrefKey(prefecture), func() []domain.CMSRecord {
		return c.next.ListByPrefecture(ctx, prefecture)
	}, nil)
}

type CachedBooking struct {
	next  domain.BookingClient
	cache domain.Cache
	ttl   time.Duration
}

func NewCachedBooking(next domain.BookingClient, c domain.Cache, ttl time.Duration) *CachedBooking {
	return &CachedBooking{next: next, cache: c, ttl: ttl}
}

func fmtDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}

func bookingSearchKey(q domain.BookingQuery) string {
	return fmt.Sprintf("src:booking:search:%s:%s:%s", strings.TrimSpace(q.Area), fmtDate(q.Checkin), fmtDate(q.Checkout))
}

func bookingDetailKey(hotelNo string) string { return "src:booking:detail:" + hotelNo }

func (c *CachedBooking) Search(ctx context.Context, q domain.BookingQuery) []domain.BookingRecord {
	return cachedList(ctx, c.cache, c.ttl, bookingSearchKey(q), func() []domain.BookingRecord {
		return c.next.Search(ctx, q)
	}, isLiveAnswer)
}

func (c *CachedBooking) GetDetail(ctx context.Context, hotelNo string) (domain.BookingRecord, bool) {
	key := bookingDetailKey(hotelNo)
	var rec domain.BookingRecord
	if ok, _ := c.cache.Get(ctx, key, &rec); ok {
		return rec, true
	}
	rec, ok := c.next.GetDetail(ctx, hotelNo)
	if ok && !rec.Fallback {
		_ = c.cache.Set(ctx, key, rec, int(c.ttl.Seconds()))
	}
	return rec, ok
}

func isLiveAnswer(recs []domain.BookingRecord) bool {
	for _, r := range recs {
		if r.Fallback {
			return false
		}
	}
	return true
}

// cachedList is cache-aside for list sources. keep, when set, vetoes storing an
// answer.
func cachedList[T any](ctx context.Context, cache domain.Cache, ttl time.Duration, key string, load func() []T, keep func([]T) bool) []T {
	var out []T
	if ok, _ := cache.Get(ctx, key, &out); ok && len(out) > 0 {
		return out
	}
	out = load()
	if len(out) > 0 && (keep == nil || keep(out)) {
		_ = cache.Set(ctx, key, copySlice(out), int(ttl.Seconds()))
	}
	return out
}

// copySlice avoids handing the cache the caller's backing array.
func copySlice[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}
