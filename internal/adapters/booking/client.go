// internal/adapters/booking/client.go
package booking

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"wanstay/internal/adapters/observability"
	"wanstay/internal/domain"
	"wanstay/internal/geo"
)

const (
	ModeDemo = "demo"
	ModeLive = "live"
)

const (
	keywordSearchPath = "/KeywordHotelSearch/20170426"
	vacantSearchPath  = "/VacantHotelSearch/20170426"
	detailSearchPath  = "/HotelDetailSearch/20170426"

	// keyword sent with area-only searches so the provider ranks pet-friendly stays.
	petKeyword = "ペット"
)

type Options struct {
	Base            string
	AppID           string
	Mode            string // demo|live
	FallbackOnError bool   // live mode: serve the fixed dataset instead of an empty list on errors
	RPS             int
	HTTPClient      *http.Client
}

// Client talks to the travel-booking provider. It never returns errors to its
// callers: failures degrade to the fixed dataset or to "no data".
type Client struct {
	base            string
	hc              *http.Client
	appID           string
	mode            string
	fallbackOnError bool
	rl              *rate.Limiter
	cb              *gobreaker.CircuitBreaker
}

func New(o Options) (*Client, error) {
	switch o.Mode {
	case "":
		o.Mode = ModeDemo
	case ModeDemo, ModeLive:
	default:
		return nil, fmt.Errorf("booking: unknown mode %q", o.Mode)
	}
	if o.RPS <= 0 {
		o.RPS = 1
	}
	hc := o.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		base:            strings.TrimRight(o.Base, "/"),
		hc:              hc,
		appID:           o.AppID,
		mode:            o.Mode,
		fallbackOnError: o.FallbackOnError,
		rl:              rate.NewLimiter(rate.Limit(o.RPS), o.RPS),
		cb:              newBreaker("booking"),
	}, nil
}

func (c *Client) Mode() string { return c.mode }

// ---- Public API ----

// Search returns hotels for an area and optional stay dates. In demo mode, with
// no credentials, or while the provider is rate limiting us, the fixed dataset
// is returned instead of calling out.
func (c *Client) Search(ctx context.Context, q domain.BookingQuery) []domain.BookingRecord {
	if c.mode == ModeDemo {
		observability.ObserveFallback("demo")
		return Fallback()
	}
	if c.appID == "" {
		observability.ObserveFallback("no_credentials")
		return Fallback()
	}

	path, params := c.searchParams(q)
	var resp searchResponse
	err := c.call(ctx, path, params, &resp)
	switch {
	case err == nil:
		return resp.records()
	case errors.Is(err, ErrNotFound):
		// provider answers 404 for "no hotels matched"
		return []domain.BookingRecord{}
	case errors.Is(err, ErrRateLimited):
		log.Warn().Str("area", q.Area).Msg("booking search rate limited; serving fallback")
		observability.ObserveFallback("rate_limited")
		return Fallback()
	default:
		log.Error().Err(err).Str("kind", observability.LabelErr(err)).Str("area", q.Area).Msg("booking search failed")
		if c.fallbackOnError {
			observability.ObserveFallback("error")
			return Fallback()
		}
		return []domain.BookingRecord{}
	}
}

// GetDetail fetches a single hotel by provider number. ok is false when the
// hotel is unknown or the provider could not be reached.
func (c *Client) GetDetail(ctx context.Context, hotelNo string) (domain.BookingRecord, bool) {
	if c.mode == ModeDemo || c.appID == "" || strings.TrimSpace(hotelNo) == "" {
		return domain.BookingRecord{}, false
	}
	params := url.Values{}
	params.Set("hotelNo", hotelNo)
	params.Set("responseType", "large")

	var resp searchResponse
	if err := c.call(ctx, detailSearchPath, params, &resp); err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Warn().Err(err).Str("hotelNo", hotelNo).Msg("booking detail failed")
		}
		return domain.BookingRecord{}, false
	}
	recs := resp.records()
	if len(recs) == 0 {
		return domain.BookingRecord{}, false
	}
	return recs[0], true
}

func (c *Client) searchParams(q domain.BookingQuery) (string, url.Values) {
	params := url.Values{}
	params.Set("hits", "30")
	path := keywordSearchPath
	if q.Checkin != nil && q.Checkout != nil {
		path = vacantSearchPath
		params.Set("checkinDate", q.Checkin.Format("2006-01-02"))
		params.Set("checkoutDate", q.Checkout.Format("2006-01-02"))
		params.Set("largeClassCode", "japan")
	} else {
		params.Set("keyword", petKeyword)
	}
	if p, ok := geo.Lookup(q.Area); ok {
		params.Set("largeClassCode", "japan")
		params.Set("middleClassCode", p.Code)
	}
	return path, params
}

// ---- Wire format (formatVersion=2) ----

type basicInfo struct {
	HotelNo           json.Number `json:"hotelNo"`
	HotelName         string      `json:"hotelName"`
	PlanListURL       string      `json:"planListUrl"`
	HotelMinCharge    float64     `json:"hotelMinCharge"`
	Address1          string      `json:"address1"`
	Address2          string      `json:"address2"`
	TelephoneNo       string      `json:"telephoneNo"`
	FaxNo             string      `json:"faxNo"`
	Access            string      `json:"access"`
	ParkingInfo       string      `json:"parkingInformation"`
	NearestStation    string      `json:"nearestStation"`
	HotelImageURL     string      `json:"hotelImageUrl"`
	HotelThumbnailURL string      `json:"hotelThumbnailUrl"`
	RoomImageURL      string      `json:"roomImageUrl"`
	RoomThumbnailURL  string      `json:"roomThumbnailUrl"`
	HotelMapImageURL  string      `json:"hotelMapImageUrl"`
	ReviewCount       int         `json:"reviewCount"`
	ReviewAverage     float64     `json:"reviewAverage"`
	HotelSpecial      string      `json:"hotelSpecial"`
}

type detailInfo struct {
	CheckinTime  string `json:"checkinTime"`
	CheckoutTime string `json:"checkoutTime"`
	Note         string `json:"note"`
}

type facilitiesInfo struct {
	HotelFacilities []struct {
		Item string `json:"item"`
	} `json:"hotelFacilities"`
	AboutBath []struct {
		BathType string `json:"bathType"`
	} `json:"aboutBath"`
}

type policyInfo struct {
	AvailableCreditCard []struct {
		Card string `json:"card"`
	} `json:"availableCreditCard"`
	Note string `json:"note"`
}

type hotelPart struct {
	Basic      *basicInfo      `json:"hotelBasicInfo"`
	Detail     *detailInfo     `json:"hotelDetailInfo"`
	Facilities *facilitiesInfo `json:"hotelFacilitiesInfo"`
	Policy     *policyInfo     `json:"hotelPolicyInfo"`
}

type searchResponse struct {
	Hotels [][]hotelPart `json:"hotels"`
}

func (r searchResponse) records() []domain.BookingRecord {
	out := make([]domain.BookingRecord, 0, len(r.Hotels))
	for _, parts := range r.Hotels {
		var rec domain.BookingRecord
		var seen bool
		for _, p := range parts {
			if b := p.Basic; b != nil {
				seen = true
				rec.HotelNo = b.HotelNo.String()
				rec.HotelName = b.HotelName
				rec.Address1 = b.Address1
				rec.Address2 = b.Address2
				rec.ReviewAverage = b.ReviewAverage
				rec.ReviewCount = b.ReviewCount
				rec.HotelMinCharge = int(b.HotelMinCharge)
				rec.HotelImageURL = b.HotelImageURL
				rec.HotelThumbnailURL = b.HotelThumbnailURL
				rec.RoomImageURL = b.RoomImageURL
				rec.RoomThumbnailURL = b.RoomThumbnailURL
				rec.HotelMapImageURL = b.HotelMapImageURL
				rec.TelephoneNo = b.TelephoneNo
				rec.FaxNo = b.FaxNo
				rec.Access = b.Access
				rec.ParkingInfo = b.ParkingInfo
				rec.NearestStation = b.NearestStation
				rec.HotelComment = b.HotelSpecial
				rec.PlanListURL = b.PlanListURL
			}
			if d := p.Detail; d != nil {
				rec.CheckinTime = d.CheckinTime
				rec.CheckoutTime = d.CheckoutTime
			}
			if f := p.Facilities; f != nil {
				var items []string
				for _, it := range f.HotelFacilities {
					items = append(items, it.Item)
				}
				for _, b := range f.AboutBath {
					items = append(items, b.BathType)
				}
				rec.FacilitiesInfo = strings.Join(items, "、")
			}
			if pol := p.Policy; pol != nil {
				var cards []string
				for _, cc := range pol.AvailableCreditCard {
					cards = append(cards, cc.Card)
				}
				rec.Payment = strings.Join(cards, "、")
			}
		}
		if seen {
			out = append(out, rec)
		}
	}
	return out
}

// ---- Internals ----

var (
	ErrNotFound     = errors.New("booking: not found")
	ErrRateLimited  = errors.New("booking: rate limited")
	ErrUnauthorized = errors.New("booking: unauthorized")
)

// statusError carries the provider status for non-retryable failures.
type statusError struct {
	Status int
	Body   string
}

func (e statusError) Error() string { return fmt.Sprintf("bad status %d: %s", e.Status, e.Body) }

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 2
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
			observability.ObserveBreaker(name, int(to))
		},
		// "no hotels" is a normal answer, not a provider fault
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
	})
}

// call runs one provider request through the circuit breaker. An open breaker
// is reported as rate limiting so callers degrade the same way.
func (c *Client) call(ctx context.Context, path string, params url.Values, out any) error {
	params.Set("applicationId", c.appID)
	params.Set("format", "json")
	params.Set("formatVersion", "2")
	params.Set("datumType", "1")
	u := c.base + path + "?" + params.Encode()

	start := time.Now()
	_, err := c.cb.Execute(func() (any, error) {
		return nil, c.get(ctx, u, out)
	})
	status := 200
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		err = fmt.Errorf("%w: %v", ErrRateLimited, err)
		status = 503
	case errors.Is(err, ErrNotFound):
		status = 404
	case errors.Is(err, ErrRateLimited):
		status = 429
	case err != nil:
		status = 500
		var se statusError
		if errors.As(err, &se) {
			status = se.Status
		}
	}
	observability.ObserveExternal("booking", path, status, time.Since(start))
	return err
}

// get performs a GET with client-side rate limiting, retries, and JSON decode into out.
// Retries transient 5xx, honoring Retry-After when provided. 429 is not retried:
// the provider's per-second quota is better answered with fallback data.
func (c *Client) get(ctx context.Context, url string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < 3; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "wanstay/1.0")

		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < 2 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}

		switch resp.StatusCode {
		case http.StatusOK:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("decode: %w", err)
			}
			return nil

		case http.StatusNotFound:
			resp.Body.Close()
			return ErrNotFound

		case http.StatusTooManyRequests:
			resp.Body.Close()
			return ErrRateLimited

		case http.StatusUnauthorized, http.StatusForbidden:
			resp.Body.Close()
			return ErrUnauthorized

		case http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = statusError{Status: resp.StatusCode}
			if i < 2 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return statusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
		}
	}

	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles from 200ms per attempt with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
