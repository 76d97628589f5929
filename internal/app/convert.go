package app

import (
	"math"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"wanstay/internal/domain"
	"wanstay/internal/geo"
)

const (
	// nightly base rate for curated listings; the dog fee is added on top
	cmsBaseFee = 10000
	// shown when a booking record has neither a min charge nor reviews
	defaultBookingPrice = 12000

	askHotel = "施設へお問い合わせください"
)

// review-average tiers -> yen per rating point
var reviewPriceTable = []struct {
	min        float64
	multiplier float64
}{
	{4.5, 5000},
	{4.0, 4500},
	{3.0, 4000},
	{0.01, 3500},
}

var bookingAmenities = []string{"wifi", "pet-friendly"}

/********** tiny helpers **********/

// halfWidth folds full-width digits and drops thousands separators.
func halfWidth(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '０' && r <= '９':
			return '0' + (r - '０')
		case r == ',' || r == '，':
			return -1
		}
		return r
	}, s)
}

// parseFee returns the first numeral embedded in a free-text fee ("1頭 2,000円").
func parseFee(text string) int {
	s := halfWidth(text)
	start := strings.IndexAny(s, "0123456789")
	if start < 0 {
		return 0
	}
	end := start
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[start:end])
	if err != nil {
		return 0
	}
	return n
}

func bookingPrice(r domain.BookingRecord) int {
	if r.HotelMinCharge > 0 {
		return r.HotelMinCharge
	}
	for _, tier := range reviewPriceTable {
		if r.ReviewAverage >= tier.min {
			return int(math.Round(r.ReviewAverage*tier.multiplier/100) * 100)
		}
	}
	return defaultBookingPrice
}

// stripMarkup renders CMS rich text as plain text.
func stripMarkup(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		log.Warn().Err(err).Msg("notes markup could not be parsed")
		return strings.TrimSpace(s)
	}
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, li").Each(func(_ int, sel *goquery.Selection) {
		sel.AppendHtml("\n")
	})
	lines := strings.Split(doc.Text(), "\n")
	out := lines[:0]
	for _, l := range lines {
		if t := strings.TrimSpace(l); t != "" {
			out = append(out, t)
		}
	}
	return strings.Join(out, "\n")
}

func yesNo(b bool) string {
	if b {
		return "あり"
	}
	return "なし"
}

/********** CMS -> Hotel **********/

func cmsAmenities(r domain.CMSRecord) []string {
	out := []string{"wifi"}
	for _, t := range []struct {
		on  bool
		tag string
	}{
		{r.Parking, "parking"},
		{r.HotSpring, "hot-spring"},
		{r.PrivateOnsen, "private-bath"},
		{r.Shuttle, "shuttle"},
		{r.DogRun, "dog-run"},
		{r.InRoomDogRun, "in-room-dog-run"},
		{r.DineWithDog, "room-dining"},
		{r.DogMenu, "dog-menu"},
		{r.PetAmenities, "pet-amenities"},
		{r.LargeDog, "large-dog"},
		{r.MultipleDogs, "multiple-dogs"},
		{r.GroomingRoom, "grooming"},
		{r.LeashFreeIndoor, "leash-free"},
	} {
		if t.on {
			out = append(out, t.tag)
		}
	}
	return out
}

// nudgeSlot spreads hotels sharing a region point over the geo.Nudge grid. It
// depends on the key only, so list and detail pins agree.
func nudgeSlot(key string) int { return int(hash64(key) % 25) }

func hotelFromCMS(r domain.CMSRecord) domain.Hotel {
	key := cmsKey(r.ID)
	fee := parseFee(firstNonEmpty(r.SmallDogFee, r.MediumDogFee, r.LargeDogFee))
	region := firstNonEmpty(r.Prefecture, r.Address)
	return domain.Hotel{
		ID:        PresentationID(key),
		Key:       key,
		Name:      r.HotelName,
		Location:  r.Prefecture + r.Address,
		Price:     cmsBaseFee + fee,
		Amenities: cmsAmenities(r),
		Image:     cmsListImage,
		Coords:    geo.Nudge(geo.PointFor(region), nudgeSlot(key)),
	}
}

func cmsPetInfo(r domain.CMSRecord) domain.PetInfo {
	var sizes, fees []string
	for _, s := range []struct {
		ok    bool
		label string
		fee   string
	}{
		{r.SmallDog, "小型犬", r.SmallDogFee},
		{r.MediumDog, "中型犬", r.MediumDogFee},
		{r.LargeDog, "大型犬", r.LargeDogFee},
	} {
		if s.ok {
			sizes = append(sizes, s.label)
		}
		if f := strings.TrimSpace(s.fee); f != "" {
			fees = append(fees, s.label+": "+f)
		}
	}
	pi := domain.PetInfo{
		Sizes:     strings.Join(sizes, "・"),
		MaxPets:   "1頭まで",
		Fee:       strings.Join(fees, " / "),
		Amenities: "なし",
	}
	if pi.Sizes == "" {
		pi.Sizes = askHotel
	}
	if pi.Fee == "" {
		pi.Fee = askHotel
	}
	if r.MultipleDogs {
		pi.MaxPets = "複数頭可"
	}
	if r.PetAmenities {
		pi.Amenities = "ペット用アメニティあり"
	}
	return pi
}

func expandCMS(r domain.CMSRecord) domain.HotelDetail {
	h := hotelFromCMS(r)
	return domain.HotelDetail{
		Hotel:    h,
		Access:   r.Access,
		Checkin:  r.CheckinTime,
		Checkout: r.CheckoutTime,
		Parking:  yesNo(r.Parking),
		Payment:  r.Payment,
		Phone:    r.Phone,
		Images:   placeholderImages(r.ID, maxDetailImages),
		DogFeatures: []domain.DogFeature{
			{Name: "ドッグラン", Available: r.DogRun},
			{Name: "客室ドッグラン", Available: r.InRoomDogRun},
			{Name: "同伴食事", Available: r.DineWithDog},
			{Name: "わんちゃんメニュー", Available: r.DogMenu},
			{Name: "ペットアメニティ", Available: r.PetAmenities},
			{Name: "グルーミングルーム", Available: r.GroomingRoom},
			{Name: "館内ノーリード", Available: r.LeashFreeIndoor},
			{Name: "大型犬OK", Available: r.LargeDog},
			{Name: "多頭飼いOK", Available: r.MultipleDogs},
			{Name: "温泉", Available: r.HotSpring},
			{Name: "貸切風呂", Available: r.PrivateOnsen},
			{Name: "駐車場", Available: r.Parking},
			{Name: "送迎", Available: r.Shuttle},
		},
		PetInfo: cmsPetInfo(r),
		Website: r.Website,
		Notes:   stripMarkup(r.Notes),
	}
}

/********** booking -> Hotel **********/

func hotelFromBooking(r domain.BookingRecord) domain.Hotel {
	key := bookingKey(r.HotelNo)
	location := r.Address1 + r.Address2
	return domain.Hotel{
		ID:        PresentationID(key),
		Key:       key,
		Name:      r.HotelName,
		Location:  location,
		Price:     bookingPrice(r),
		Amenities: append([]string(nil), bookingAmenities...),
		Image:     firstNonEmpty(r.HotelImageURL, r.HotelThumbnailURL, noImage),
		Coords:    geo.Nudge(geo.PointFor(location), nudgeSlot(key)),
	}
}

// keyword checklist for provider records, which only describe facilities in prose
var bookingFeatureKeywords = []struct {
	name     string
	keywords []string
}{
	{"ドッグラン", []string{"ドッグラン", "dog run"}},
	{"わんちゃんメニュー", []string{"わんちゃんメニュー", "犬用メニュー", "ドッグメニュー"}},
	{"グルーミングルーム", []string{"グルーミング", "トリミング"}},
	{"大型犬OK", []string{"大型犬"}},
	{"多頭飼いOK", []string{"多頭", "2頭", "２頭"}},
	{"温泉", []string{"温泉", "源泉", "onsen"}},
	{"貸切風呂", []string{"貸切"}},
	{"駐車場", []string{"駐車", "パーキング", "parking"}},
	{"送迎", []string{"送迎"}},
}

func expandBooking(r domain.BookingRecord, h domain.Hotel) domain.HotelDetail {
	text := strings.Join([]string{r.HotelName, r.FacilitiesInfo, r.HotelComment, r.ParkingInfo, r.Access}, " ")
	features := make([]domain.DogFeature, 0, len(bookingFeatureKeywords))
	for _, f := range bookingFeatureKeywords {
		features = append(features, domain.DogFeature{Name: f.name, Available: containsAny(text, f.keywords)})
	}

	sizes := askHotel
	if containsAny(text, []string{"大型犬"}) {
		sizes = "小型犬・中型犬・大型犬"
	}

	access := r.Access
	if r.NearestStation != "" && !strings.Contains(access, r.NearestStation) {
		access = strings.TrimSpace(access + "（最寄駅: " + r.NearestStation + "）")
	}

	return domain.HotelDetail{
		Hotel:    h,
		Access:   access,
		Checkin:  r.CheckinTime,
		Checkout: r.CheckoutTime,
		Parking:  firstNonEmpty(r.ParkingInfo, askHotel),
		Payment:  r.Payment,
		Phone:    r.TelephoneNo,
		Images: detailImages(h.Key,
			r.HotelImageURL, r.RoomImageURL, r.HotelThumbnailURL, r.RoomThumbnailURL, r.HotelMapImageURL),
		DogFeatures: features,
		PetInfo: domain.PetInfo{
			Sizes:     sizes,
			MaxPets:   askHotel,
			Fee:       askHotel,
			Amenities: askHotel,
		},
		Website: r.PlanListURL,
		Notes:   r.HotelComment,
	}
}
