package app_test

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"wanstay/internal/domain"
)

// ---- fakes ----

type fakeCMS struct {
	recs       []domain.CMSRecord
	calls      int32
	emptyCalls int32 // answer empty for this many calls first
}

func (f *fakeCMS) ListAll(ctx context.Context) []domain.CMSRecord {
	if n := atomic.AddInt32(&f.calls, 1); n <= f.emptyCalls {
		return []domain.CMSRecord{}
	}
	return append([]domain.CMSRecord(nil), f.recs...)
}

func (f *fakeCMS) ListByPrefecture(ctx context.Context, p string) []domain.CMSRecord {
	if n := atomic.AddInt32(&f.calls, 1); n <= f.emptyCalls {
		return []domain.CMSRecord{}
	}
	out := []domain.CMSRecord{}
	for _, r := range f.recs {
		if r.Prefecture == p {
			out = append(out, r)
		}
	}
	return out
}

type fakeBooking struct {
	recs    []domain.BookingRecord
	details map[string]domain.BookingRecord
	calls   int32
}

func (f *fakeBooking) Search(ctx context.Context, q domain.BookingQuery) []domain.BookingRecord {
	atomic.AddInt32(&f.calls, 1)
	return append([]domain.BookingRecord(nil), f.recs...)
}

func (f *fakeBooking) GetDetail(ctx context.Context, hotelNo string) (domain.BookingRecord, bool) {
	r, ok := f.details[hotelNo]
	return r, ok
}

type fakeMisses struct {
	mu  sync.Mutex
	ids []int64
}

func (f *fakeMisses) LogMiss(ctx context.Context, id int64, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, id)
	return nil
}

// jsonCache round-trips values through JSON like the redis cache does.
type jsonCache struct {
	mu    sync.Mutex
	store map[string][]byte
	dels  []string
}

func (c *jsonCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *jsonCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}

func (c *jsonCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	c.dels = append(c.dels, key)
	return nil
}

func cmsFixture() []domain.CMSRecord {
	return []domain.CMSRecord{
		{ID: "tk01", HotelName: "東京ドッグホテル", Prefecture: "東京都", Address: "港区1-1", Parking: true, DogRun: true, SmallDogFee: "3,000円"},
		{ID: "tk02", HotelName: "新宿ペットイン", Prefecture: "東京都", Address: "新宿区2-2", Parking: false},
		{ID: "hk01", HotelName: "箱根わんこ温泉", Prefecture: "神奈川県", Address: "箱根町3-3", HotSpring: true, Parking: true},
		{ID: "abc", HotelName: "番号なしの宿", Prefecture: "長野県", Address: "松本市", LargeDog: true},
	}
}
