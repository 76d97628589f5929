package app

import (
	"strings"

	"github.com/rs/zerolog/log"

	"wanstay/internal/domain"
)

// candidate is a converted hotel plus the source record it came from; exactly
// one of cms / booking is set.
type candidate struct {
	hotel   domain.Hotel
	cms     *domain.CMSRecord
	booking *domain.BookingRecord
}

// attribute is one detail filter. CMS entries are decided by their typed
// field; booking entries carry no such fields, so they are matched by keyword
// over name and location. Either predicate can be replaced once the provider
// exposes a typed field.
type attribute struct {
	name     string
	wanted   func(f domain.DetailFilters) bool
	typed    func(r *domain.CMSRecord) bool
	keywords []string
}

var attributes = []attribute{
	{
		name:     "dogRun",
		wanted:   func(f domain.DetailFilters) bool { return f.DogRun },
		typed:    func(r *domain.CMSRecord) bool { return r.DogRun },
		keywords: []string{"ドッグラン", "dog run", "dogrun"},
	},
	{
		name:     "largeDog",
		wanted:   func(f domain.DetailFilters) bool { return f.LargeDog },
		typed:    func(r *domain.CMSRecord) bool { return r.LargeDog },
		keywords: []string{"大型犬", "large dog"},
	},
	{
		name:     "roomDining",
		wanted:   func(f domain.DetailFilters) bool { return f.RoomDining },
		typed:    func(r *domain.CMSRecord) bool { return r.DineWithDog },
		keywords: []string{"部屋食", "同伴食", "dining"},
	},
	{
		name:     "hotSpring",
		wanted:   func(f domain.DetailFilters) bool { return f.HotSpring },
		typed:    func(r *domain.CMSRecord) bool { return r.HotSpring },
		keywords: []string{"温泉", "onsen", "hot spring"},
	},
	{
		name:     "parking",
		wanted:   func(f domain.DetailFilters) bool { return f.Parking },
		typed:    func(r *domain.CMSRecord) bool { return r.Parking },
		keywords: []string{"駐車", "パーキング", "parking"},
	},
	{
		name:     "multipleDogs",
		wanted:   func(f domain.DetailFilters) bool { return f.MultipleDogs },
		typed:    func(r *domain.CMSRecord) bool { return r.MultipleDogs },
		keywords: []string{"多頭", "multiple dogs"},
	},
	{
		name:     "petAmenities",
		wanted:   func(f domain.DetailFilters) bool { return f.PetAmenities },
		typed:    func(r *domain.CMSRecord) bool { return r.PetAmenities },
		keywords: []string{"アメニティ", "amenit"},
	},
	{
		name:     "dogMenu",
		wanted:   func(f domain.DetailFilters) bool { return f.DogMenu },
		typed:    func(r *domain.CMSRecord) bool { return r.DogMenu },
		keywords: []string{"わんちゃんメニュー", "犬用メニュー", "ドッグメニュー", "dog menu"},
	},
	{
		name:     "privateBath",
		wanted:   func(f domain.DetailFilters) bool { return f.PrivateBath },
		typed:    func(r *domain.CMSRecord) bool { return r.PrivateOnsen },
		keywords: []string{"貸切", "private bath", "private onsen"},
	},
	{
		name:     "inRoomDogRun",
		wanted:   func(f domain.DetailFilters) bool { return f.InRoomDogRun },
		typed:    func(r *domain.CMSRecord) bool { return r.InRoomDogRun },
		keywords: []string{"客室ドッグラン", "専用ドッグラン", "in-room dog run"},
	},
	{
		name:     "grooming",
		wanted:   func(f domain.DetailFilters) bool { return f.Grooming },
		typed:    func(r *domain.CMSRecord) bool { return r.GroomingRoom },
		keywords: []string{"グルーミング", "トリミング", "grooming"},
	},
	{
		name:     "leashFree",
		wanted:   func(f domain.DetailFilters) bool { return f.LeashFree },
		typed:    func(r *domain.CMSRecord) bool { return r.LeashFreeIndoor },
		keywords: []string{"ノーリード", "リードなし", "leash free", "leash-free"},
	},
}

func containsAny(haystack string, needles []string) bool {
	h := strings.ToLower(haystack)
	for _, n := range needles {
		if strings.Contains(h, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

func (a attribute) match(c candidate) bool {
	if c.cms != nil {
		return a.typed(c.cms)
	}
	return containsAny(c.hotel.Name+" "+c.hotel.Location, a.keywords)
}

// applyFilters keeps candidates matching every requested attribute.
func applyFilters(in []candidate, f *domain.DetailFilters) []candidate {
	if f == nil {
		return in
	}
	var active []attribute
	for _, a := range attributes {
		if a.wanted(*f) {
			active = append(active, a)
		}
	}
	if len(active) == 0 {
		return in
	}
	names := make([]string, len(active))
	for i, a := range active {
		names[i] = a.name
	}
	log.Debug().Strs("filters", names).Int("candidates", len(in)).Msg("applying detail filters")

	out := make([]candidate, 0, len(in))
next:
	for _, c := range in {
		for _, a := range active {
			if !a.match(c) {
				continue next
			}
		}
		out = append(out, c)
	}
	return out
}
