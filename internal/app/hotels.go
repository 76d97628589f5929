package app

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"wanstay/internal/adapters/observability"
	"wanstay/internal/domain"
)

// HotelService merges curated CMS listings with booking-provider listings.
// It holds no state between calls; caching, if any, lives in the sources.
type HotelService struct {
	cms     domain.CMSClient
	booking domain.BookingClient
	misses  domain.MissLogger // optional
}

func NewHotelService(c domain.CMSClient, b domain.BookingClient, misses domain.MissLogger) *HotelService {
	return &HotelService{cms: c, booking: b, misses: misses}
}

func isNationwide(areas []string) bool {
	if len(areas) == 0 {
		return true
	}
	for _, a := range areas {
		if a == domain.AreaNationwide {
			return true
		}
	}
	return false
}

func (s *HotelService) fetchCMS(ctx context.Context, areas []string) []domain.CMSRecord {
	if isNationwide(areas) {
		return s.cms.ListAll(ctx)
	}
	var out []domain.CMSRecord
	seen := map[string]struct{}{}
	for _, a := range areas {
		for _, r := range s.cms.ListByPrefecture(ctx, a) {
			if _, dup := seen[r.ID]; dup {
				continue
			}
			seen[r.ID] = struct{}{}
			out = append(out, r)
		}
	}
	return out
}

func (s *HotelService) fetchBooking(ctx context.Context, q domain.SearchQuery) []domain.BookingRecord {
	areas := q.Areas
	if isNationwide(areas) {
		areas = []string{domain.AreaNationwide}
	}
	var out []domain.BookingRecord
	seen := map[string]struct{}{}
	for _, a := range areas {
		recs := s.booking.Search(ctx, domain.BookingQuery{Area: a, Checkin: q.Checkin, Checkout: q.Checkout})
		for _, r := range recs {
			if _, dup := seen[r.HotelNo]; dup {
				continue
			}
			seen[r.HotelNo] = struct{}{}
			out = append(out, r)
		}
	}
	return out
}

// Search returns CMS hotels followed by booking hotels for the requested
// areas, narrowed by the optional detail filters. Source failures degrade to
// fewer results; Search itself never fails.
func (s *HotelService) Search(ctx context.Context, q domain.SearchQuery) []domain.Hotel {
	var (
		cmsRecs     []domain.CMSRecord
		bookingRecs []domain.BookingRecord
		g           errgroup.Group // plain group: one branch failing must not cancel the other
	)
	g.Go(func() error {
		cmsRecs = s.fetchCMS(ctx, q.Areas)
		return nil
	})
	g.Go(func() error {
		bookingRecs = s.fetchBooking(ctx, q)
		return nil
	})
	_ = g.Wait()

	if len(cmsRecs) == 0 && len(bookingRecs) == 0 {
		log.Warn().Strs("areas", q.Areas).Msg("both sources empty; retrying cms once")
		cmsRecs = s.fetchCMS(ctx, q.Areas)
	}
	observability.ObserveSource("cms", len(cmsRecs))
	observability.ObserveSource("booking", len(bookingRecs))

	cands := merge(cmsRecs, bookingRecs)
	cands = applyFilters(cands, q.Filters)

	out := make([]domain.Hotel, len(cands))
	for i, c := range cands {
		out[i] = c.hotel
	}
	return out
}

// merge converts both record sets (CMS first) and drops any hotel whose id was
// already produced earlier in the list.
func merge(cmsRecs []domain.CMSRecord, bookingRecs []domain.BookingRecord) []candidate {
	out := make([]candidate, 0, len(cmsRecs)+len(bookingRecs))
	seen := make(map[int64]string, cap(out))
	push := func(c candidate) {
		if prev, dup := seen[c.hotel.ID]; dup {
			log.Warn().Int64("id", c.hotel.ID).Str("key", c.hotel.Key).Str("kept", prev).Msg("duplicate hotel id dropped")
			return
		}
		seen[c.hotel.ID] = c.hotel.Key
		out = append(out, c)
	}
	for i := range cmsRecs {
		r := cmsRecs[i]
		push(candidate{hotel: hotelFromCMS(r), cms: &r})
	}
	for i := range bookingRecs {
		r := bookingRecs[i]
		push(candidate{hotel: hotelFromBooking(r), booking: &r})
	}
	return out
}

/********** detail **********/

// GetByID resolves a presentation id (or a legacy id from before tagged keys)
// to a detail record. domain.ErrNotFound when no source knows it.
func (s *HotelService) GetByID(ctx context.Context, id int64) (domain.HotelDetail, error) {
	kind, hotelNo := decodeID(id)
	var (
		d  domain.HotelDetail
		ok bool
	)
	switch kind {
	case idCMS:
		d, ok = s.cmsByID(ctx, id)
	case idBooking:
		d, ok = s.bookingDetail(ctx, hotelNo)
		if !ok {
			d, ok = s.scanBooking(ctx, func(h domain.Hotel, _ int) bool { return h.ID == id })
		}
	case idBookingHash:
		d, ok = s.scanBooking(ctx, func(h domain.Hotel, _ int) bool { return h.ID == id })
	case idLegacy:
		d, ok = s.legacyByID(ctx, id)
	}
	if !ok {
		s.logMiss(ctx, id, "not found")
		return domain.HotelDetail{}, fmt.Errorf("hotel %d: %w", id, domain.ErrNotFound)
	}
	d.ID = id
	return d, nil
}

// GetByKey resolves a source-tagged key ("cms:<id>", "booking:<hotelNo>").
func (s *HotelService) GetByKey(ctx context.Context, key string) (domain.HotelDetail, error) {
	kind, native, valid := splitKey(key)
	var (
		d  domain.HotelDetail
		ok bool
	)
	switch {
	case !valid:
	case kind == idCMS:
		for _, r := range s.cms.ListAll(ctx) {
			if r.ID == native {
				d, ok = expandCMS(r), true
				break
			}
		}
	default:
		d, ok = s.bookingDetail(ctx, native)
		if !ok {
			d, ok = s.scanBooking(ctx, func(h domain.Hotel, _ int) bool { return h.Key == key })
		}
	}
	if !ok {
		s.logMiss(ctx, PresentationID(key), "not found: "+key)
		return domain.HotelDetail{}, fmt.Errorf("hotel %s: %w", key, domain.ErrNotFound)
	}
	return d, nil
}

func (s *HotelService) cmsByID(ctx context.Context, id int64) (domain.HotelDetail, bool) {
	for _, r := range s.cms.ListAll(ctx) {
		if PresentationID(cmsKey(r.ID)) == id {
			return expandCMS(r), true
		}
	}
	return domain.HotelDetail{}, false
}

func (s *HotelService) bookingDetail(ctx context.Context, hotelNo string) (domain.HotelDetail, bool) {
	rec, ok := s.booking.GetDetail(ctx, hotelNo)
	if !ok {
		return domain.HotelDetail{}, false
	}
	return expandBooking(rec, hotelFromBooking(rec)), true
}

// scanBooking re-runs the nationwide provider search and expands the first
// record whose converted hotel satisfies match (index is the record's position).
func (s *HotelService) scanBooking(ctx context.Context, match func(h domain.Hotel, index int) bool) (domain.HotelDetail, bool) {
	recs := s.booking.Search(ctx, domain.BookingQuery{Area: domain.AreaNationwide})
	for i, r := range recs {
		h := hotelFromBooking(r)
		if match(h, i) {
			return expandBooking(r, h), true
		}
	}
	return domain.HotelDetail{}, false
}

// legacyByID follows the pre-tagged numbering: CMS digits or index+1000 first,
// then the provider detail endpoint, then a scan of the nationwide search.
func (s *HotelService) legacyByID(ctx context.Context, id int64) (domain.HotelDetail, bool) {
	for i, r := range s.cms.ListAll(ctx) {
		for _, alias := range legacyCMSAliases(r.ID, i) {
			if alias == id {
				return expandCMS(r), true
			}
		}
	}
	if d, ok := s.bookingDetail(ctx, strconv.FormatInt(id, 10)); ok {
		return d, true
	}
	return s.scanBooking(ctx, func(h domain.Hotel, i int) bool {
		_, no, _ := splitKey(h.Key)
		return legacyBookingID(no, i) == id
	})
}

func (s *HotelService) logMiss(ctx context.Context, id int64, reason string) {
	if s.misses == nil {
		return
	}
	if err := s.misses.LogMiss(ctx, id, reason); err != nil {
		log.Warn().Err(err).Int64("id", id).Msg("record lookup miss failed")
	}
}
