package app_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"wanstay/internal/adapters/booking"
	"wanstay/internal/app"
	"wanstay/internal/domain"
)

func demoBooking(t *testing.T) *booking.Client {
	t.Helper()
	b, err := booking.New(booking.Options{Mode: booking.ModeDemo})
	if err != nil {
		t.Fatalf("booking client: %v", err)
	}
	return b
}

func TestSearch_NationwideMergesCMSFirst(t *testing.T) {
	cms := &fakeCMS{recs: cmsFixture()}
	svc := app.NewHotelService(cms, demoBooking(t), nil)

	got := svc.Search(context.Background(), domain.SearchQuery{Areas: []string{domain.AreaNationwide}})
	if want := len(cmsFixture()) + len(booking.Fallback()); len(got) != want {
		t.Fatalf("want %d hotels, got %d", want, len(got))
	}
	for i := range cmsFixture() {
		if !strings.HasPrefix(got[i].Key, "cms:") {
			t.Fatalf("position %d: want cms hotel, got %s", i, got[i].Key)
		}
	}
	for _, h := range got[len(cmsFixture()):] {
		if !strings.HasPrefix(h.Key, "booking:") {
			t.Fatalf("want booking hotel after cms block, got %s", h.Key)
		}
	}
}

func TestSearch_EmptyAreasMeansNationwide(t *testing.T) {
	svc := app.NewHotelService(&fakeCMS{recs: cmsFixture()}, demoBooking(t), nil)
	a := svc.Search(context.Background(), domain.SearchQuery{})
	b := svc.Search(context.Background(), domain.SearchQuery{Areas: []string{domain.AreaNationwide}})
	if len(a) != len(b) {
		t.Fatalf("empty areas: %d, nationwide: %d", len(a), len(b))
	}
}

func TestSearch_TokyoWithParkingKeepsOnlyTypedCMSMatches(t *testing.T) {
	svc := app.NewHotelService(&fakeCMS{recs: cmsFixture()}, demoBooking(t), nil)
	got := svc.Search(context.Background(), domain.SearchQuery{
		Areas:   []string{"東京都"},
		Filters: &domain.DetailFilters{Parking: true},
	})
	if len(got) != 1 {
		t.Fatalf("want 1 hotel, got %d: %+v", len(got), got)
	}
	if got[0].Name != "東京ドッグホテル" {
		t.Fatalf("unexpected hotel %q", got[0].Name)
	}
}

func TestSearch_HotSpringFilter(t *testing.T) {
	svc := app.NewHotelService(&fakeCMS{recs: cmsFixture()}, demoBooking(t), nil)
	got := svc.Search(context.Background(), domain.SearchQuery{Filters: &domain.DetailFilters{HotSpring: true}})
	if len(got) == 0 {
		t.Fatal("expected at least one hot-spring hotel")
	}
	for _, h := range got {
		if strings.HasPrefix(h.Key, "cms:") {
			if h.Key != "cms:hk01" {
				t.Fatalf("cms hotel without hot spring leaked: %s", h.Key)
			}
			continue
		}
		if !strings.Contains(h.Name+" "+h.Location, "温泉") {
			t.Fatalf("booking hotel %q does not mention a hot spring", h.Name)
		}
	}
}

func TestSearch_FiltersCombineWithAnd(t *testing.T) {
	svc := app.NewHotelService(&fakeCMS{recs: cmsFixture()}, &fakeBooking{}, nil)
	got := svc.Search(context.Background(), domain.SearchQuery{
		Filters: &domain.DetailFilters{Parking: true, DogRun: true},
	})
	if len(got) != 1 || got[0].Key != "cms:tk01" {
		t.Fatalf("want only cms:tk01, got %+v", got)
	}
}

func TestSearch_IDsAreUnique(t *testing.T) {
	recs := cmsFixture()
	for i := 0; i < 300; i++ {
		recs = append(recs, domain.CMSRecord{ID: "gen" + strings.Repeat("x", i%7) + string(rune('a'+i%26)) + strings.Repeat("9", i/26), HotelName: "h", Prefecture: "東京都"})
	}
	svc := app.NewHotelService(&fakeCMS{recs: recs}, demoBooking(t), nil)
	got := svc.Search(context.Background(), domain.SearchQuery{})
	if want := len(recs) + len(booking.Fallback()); len(got) != want {
		t.Fatalf("want %d hotels, got %d", want, len(got))
	}
	seen := map[int64]string{}
	for _, h := range got {
		if prev, dup := seen[h.ID]; dup {
			t.Fatalf("id %d shared by %s and %s", h.ID, prev, h.Key)
		}
		seen[h.ID] = h.Key
	}
}

func TestSearch_RetriesCMSOnceWhenBothSourcesEmpty(t *testing.T) {
	cms := &fakeCMS{recs: cmsFixture(), emptyCalls: 1}
	svc := app.NewHotelService(cms, &fakeBooking{}, nil)

	got := svc.Search(context.Background(), domain.SearchQuery{})
	if len(got) != len(cmsFixture()) {
		t.Fatalf("want cms results after retry, got %d", len(got))
	}
	if cms.calls != 2 {
		t.Fatalf("want 2 cms calls, got %d", cms.calls)
	}
}

func TestSearch_DegradesWhenCMSIsDown(t *testing.T) {
	svc := app.NewHotelService(&fakeCMS{emptyCalls: 99}, demoBooking(t), nil)
	got := svc.Search(context.Background(), domain.SearchQuery{Areas: []string{"東京都"}})
	if len(got) != len(booking.Fallback()) {
		t.Fatalf("want fallback only, got %d", len(got))
	}
}

func TestGetByID_ResolvesEverySearchResult(t *testing.T) {
	svc := app.NewHotelService(&fakeCMS{recs: cmsFixture()}, demoBooking(t), nil)
	ctx := context.Background()
	for _, h := range svc.Search(ctx, domain.SearchQuery{}) {
		d, err := svc.GetByID(ctx, h.ID)
		if err != nil {
			t.Fatalf("GetByID(%d) for %s: %v", h.ID, h.Key, err)
		}
		if d.ID != h.ID || d.Key != h.Key || d.Name != h.Name {
			t.Fatalf("detail mismatch: list %+v detail %+v", h, d.Hotel)
		}
		if n := len(d.Images); n < 1 || n > 5 {
			t.Fatalf("%s: %d images", h.Key, n)
		}
	}
}

func TestGetByID_PrefersProviderDetail(t *testing.T) {
	rec := domain.BookingRecord{HotelNo: "5521", HotelName: "箱根 ドッグ温泉", Address1: "神奈川県", CheckinTime: "15:00"}
	b := &fakeBooking{details: map[string]domain.BookingRecord{"5521": rec}}
	svc := app.NewHotelService(&fakeCMS{}, b, nil)

	id := app.PresentationID("booking:5521")
	d, err := svc.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if d.Checkin != "15:00" || d.ID != id {
		t.Fatalf("unexpected detail %+v", d)
	}
	if b.calls != 0 {
		t.Fatalf("search should not run when the detail endpoint answers")
	}
}

func TestGetByID_ZeroPaddedHotelNoResolvesToItself(t *testing.T) {
	padded := domain.BookingRecord{HotelNo: "007", HotelName: "七番館", Address1: "東京都"}
	other := domain.BookingRecord{HotelNo: "7", HotelName: "別の宿", Address1: "大阪府"}
	b := &fakeBooking{
		recs:    []domain.BookingRecord{padded},
		details: map[string]domain.BookingRecord{"7": other},
	}
	svc := app.NewHotelService(&fakeCMS{}, b, nil)
	ctx := context.Background()

	got := svc.Search(ctx, domain.SearchQuery{})
	if len(got) != 1 {
		t.Fatalf("want 1 hotel, got %d", len(got))
	}
	d, err := svc.GetByID(ctx, got[0].ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if d.Key != "booking:007" || d.Name != "七番館" {
		t.Fatalf("resolved to %s %q", d.Key, d.Name)
	}
}

func TestGetByID_DetailPinMatchesSearchPin(t *testing.T) {
	recs := cmsFixture()
	for i := 0; i < 6; i++ {
		recs = append(recs, domain.CMSRecord{ID: fmt.Sprintf("tk1%d", i), HotelName: "都内の宿", Prefecture: "東京都"})
	}
	svc := app.NewHotelService(&fakeCMS{recs: recs}, demoBooking(t), nil)
	ctx := context.Background()

	for _, q := range []domain.SearchQuery{{Areas: []string{"東京都"}}, {}} {
		for _, h := range svc.Search(ctx, q) {
			d, err := svc.GetByID(ctx, h.ID)
			if err != nil {
				t.Fatalf("GetByID(%s): %v", h.Key, err)
			}
			if d.Coords != h.Coords {
				t.Fatalf("%s: list pin %+v, detail pin %+v", h.Key, h.Coords, d.Coords)
			}
		}
	}
}

func TestGetByID_LegacyIDs(t *testing.T) {
	svc := app.NewHotelService(&fakeCMS{recs: cmsFixture()}, demoBooking(t), nil)
	ctx := context.Background()

	cases := []struct {
		id   int64
		name string
	}{
		{1003, "番号なしの宿"},                // index 3 + 1000
		{1001, "新宿ペットイン"},               // index 1 + 1000
		{172801, "ニセコ わんわんリゾート"},    // provider hotelNo
		{38417, "伊豆高原 わんこと温泉の宿"}, // provider hotelNo
	}
	for _, tc := range cases {
		d, err := svc.GetByID(ctx, tc.id)
		if err != nil {
			t.Fatalf("legacy %d: %v", tc.id, err)
		}
		if d.Name != tc.name {
			t.Fatalf("legacy %d: want %q, got %q", tc.id, tc.name, d.Name)
		}
		if d.ID != tc.id {
			t.Fatalf("legacy %d: detail id %d", tc.id, d.ID)
		}
	}
}

func TestGetByID_NotFoundIsLogged(t *testing.T) {
	misses := &fakeMisses{}
	svc := app.NewHotelService(&fakeCMS{recs: cmsFixture()}, &fakeBooking{}, misses)

	for _, id := range []int64{app.PresentationID("booking:999999"), app.PresentationID("cms:missing"), 424242, -1} {
		_, err := svc.GetByID(context.Background(), id)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("id %d: want ErrNotFound, got %v", id, err)
		}
	}
	if len(misses.ids) != 4 {
		t.Fatalf("want 4 misses logged, got %v", misses.ids)
	}
}

func TestGetByKey(t *testing.T) {
	svc := app.NewHotelService(&fakeCMS{recs: cmsFixture()}, demoBooking(t), nil)
	ctx := context.Background()

	d, err := svc.GetByKey(ctx, "cms:hk01")
	if err != nil || d.Name != "箱根わんこ温泉" {
		t.Fatalf("cms key: %+v %v", d.Hotel, err)
	}
	d, err = svc.GetByKey(ctx, "booking:67290")
	if err != nil || d.Name != "京都嵐山 ペットと泊まれる町家" {
		t.Fatalf("booking key: %+v %v", d.Hotel, err)
	}
	for _, bad := range []string{"", "cms:", "other:1", "booking:0000"} {
		if _, err := svc.GetByKey(ctx, bad); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("key %q: want ErrNotFound, got %v", bad, err)
		}
	}
}
