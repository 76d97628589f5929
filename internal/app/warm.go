package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"wanstay/internal/domain"
)

// WarmService refreshes the source cache for one area at a time. It evicts the
// area's entries first so a stale snapshot is never extended, then runs the
// same search a visitor would.
type WarmService struct {
	hotels *HotelService
	cache  domain.Cache
}

func NewWarmService(h *HotelService, cache domain.Cache) *WarmService {
	return &WarmService{hotels: h, cache: cache}
}

func warmKeys(area string) []string {
	keys := []string{bookingSearchKey(domain.BookingQuery{Area: area})}
	if area == domain.AreaNationwide || area == "" {
		return append(keys, cmsAllKey())
	}
	return append(keys, cmsPrefKey(area))
}

// WarmArea returns the number of hotels the refreshed search produced.
func (w *WarmService) WarmArea(ctx context.Context, area string) (int, error) {
	if w.cache != nil {
		for _, k := range warmKeys(area) {
			if err := w.cache.Del(ctx, k); err != nil {
				return 0, fmt.Errorf("evict %s: %w", k, err)
			}
		}
	}
	hotels := w.hotels.Search(ctx, domain.SearchQuery{Areas: []string{area}})
	if err := ctx.Err(); err != nil {
		return len(hotels), err
	}
	log.Info().Str("area", area).Int("hotels", len(hotels)).Msg("area warmed")
	return len(hotels), nil
}
