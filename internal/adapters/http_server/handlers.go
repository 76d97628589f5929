package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"wanstay/internal/domain"
)

// HotelFinder is what the hotel routes need from the app layer.
type HotelFinder interface {
	Search(ctx context.Context, q domain.SearchQuery) []domain.Hotel
	GetByID(ctx context.Context, id int64) (domain.HotelDetail, error)
	GetByKey(ctx context.Context, key string) (domain.HotelDetail, error)
}

type ContactSubmitter interface {
	SubmitGeneral(ctx context.Context, c domain.GeneralContact) error
	SubmitBusiness(ctx context.Context, c domain.BusinessContact) error
}

type Handlers struct {
	Hotels  HotelFinder
	Contact ContactSubmitter
}

const maxContactBody = 64 << 10

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Route("/api", func(r chi.Router) {
		r.Get("/hotels/search", h.search)
		r.Get("/hotels/{id}", h.getHotel)
		r.Post("/contact", h.contact)
		r.Post("/business-contact", h.businessContact)
	})
}

type searchResponse struct {
	Success bool           `json:"success"`
	Hotels  []domain.Hotel `json:"hotels"`
	Count   int            `json:"count"`
	Error   string         `json:"error,omitempty"`
}

type detailResponse struct {
	Success bool                `json:"success"`
	Hotel   *domain.HotelDetail `json:"hotel,omitempty"`
	Error   string              `json:"error,omitempty"`
}

type statusResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	return `W/"` + hex.EncodeToString(sum[:]) + `"`, body
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// parseFilters returns nil when no filter flag is set.
func parseFilters(q map[string][]string) *domain.DetailFilters {
	get := func(k string) bool {
		if vs := q[k]; len(vs) > 0 {
			return truthy(vs[0])
		}
		return false
	}
	f := domain.DetailFilters{
		DogRun:       get("dogRun"),
		LargeDog:     get("largeDog"),
		RoomDining:   get("roomDining"),
		HotSpring:    get("hotSpring"),
		Parking:      get("parking"),
		MultipleDogs: get("multipleDogs"),
		PetAmenities: get("petAmenities"),
		DogMenu:      get("dogMenu"),
		PrivateBath:  get("privateBath"),
		InRoomDogRun: get("inRoomDogRun"),
		Grooming:     get("grooming"),
		LeashFree:    get("leashFree"),
	}
	if f == (domain.DetailFilters{}) {
		return nil
	}
	return &f
}

// parseDate accepts YYYY-MM-DD; anything else is ignored rather than rejected.
func parseDate(v string) *time.Time {
	if v == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		log.Debug().Str("value", v).Msg("ignoring malformed date")
		return nil
	}
	return &t
}

// parseAreas splits "東京都,神奈川県" and repeated area= params.
func parseAreas(vals []string) []string {
	var out []string
	for _, v := range vals {
		for _, a := range strings.Split(v, ",") {
			if a = strings.TrimSpace(a); a != "" {
				out = append(out, a)
			}
		}
	}
	if len(out) == 0 {
		return []string{domain.AreaNationwide}
	}
	return out
}

func (h *Handlers) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sq := domain.SearchQuery{
		Areas:    parseAreas(q["area"]),
		Checkin:  parseDate(q.Get("checkin")),
		Checkout: parseDate(q.Get("checkout")),
		Filters:  parseFilters(q),
	}
	if sq.Checkin != nil && sq.Checkout != nil && !sq.Checkout.After(*sq.Checkin) {
		sq.Checkin, sq.Checkout = nil, nil
	}

	hotels, err := h.safeSearch(r.Context(), sq)
	if err != nil {
		log.Error().Err(err).Msg("search failed")
		writeJSON(w, http.StatusInternalServerError, searchResponse{Hotels: []domain.Hotel{}, Error: "検索中にエラーが発生しました"})
		return
	}
	if hotels == nil {
		hotels = []domain.Hotel{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Success: true, Hotels: hotels, Count: len(hotels)})
}

// safeSearch turns a panic below the handler into an error so the envelope
// stays intact for the client.
func (h *Handlers) safeSearch(ctx context.Context, q domain.SearchQuery) (out []domain.Hotel, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.New("search panicked")
			log.Error().Interface("panic", p).Msg("recovered in search")
		}
	}()
	return h.Hotels.Search(ctx, q), nil
}

func (h *Handlers) getHotel(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(chi.URLParam(r, "id"))
	var (
		d   domain.HotelDetail
		err error
	)
	if strings.Contains(raw, ":") {
		d, err = h.Hotels.GetByKey(r.Context(), raw)
	} else {
		id, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil || id <= 0 {
			writeJSON(w, http.StatusBadRequest, detailResponse{Error: "ホテルIDが不正です"})
			return
		}
		d, err = h.Hotels.GetByID(r.Context(), id)
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, detailResponse{Error: "ホテルが見つかりません"})
		return
	case err != nil:
		log.Error().Err(err).Str("id", raw).Msg("hotel detail failed")
		writeJSON(w, http.StatusInternalServerError, detailResponse{Error: "ホテル情報の取得に失敗しました"})
		return
	}

	etag, body := calcETagAndBody(detailResponse{Success: true, Hotel: &d})
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write getHotel body")
	}
}

func decodeForm(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxContactBody))
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, statusResponse{Error: "入力内容を確認してください"})
		return false
	}
	return true
}

func writeContactResult(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, statusResponse{Success: true})
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, http.StatusBadRequest, statusResponse{Error: "必須項目が入力されていません"})
	case errors.Is(err, domain.ErrMailNotConfigured):
		log.Error().Err(err).Msg("contact mail not configured")
		writeJSON(w, http.StatusInternalServerError, statusResponse{Error: "メール送信の設定がされていません"})
	default:
		log.Error().Err(err).Msg("contact mail failed")
		writeJSON(w, http.StatusInternalServerError, statusResponse{Error: "送信に失敗しました。時間をおいて再度お試しください"})
	}
}

func (h *Handlers) contact(w http.ResponseWriter, r *http.Request) {
	var c domain.GeneralContact
	if !decodeForm(w, r, &c) {
		return
	}
	writeContactResult(w, h.Contact.SubmitGeneral(r.Context(), c))
}

func (h *Handlers) businessContact(w http.ResponseWriter, r *http.Request) {
	var c domain.BusinessContact
	if !decodeForm(w, r, &c) {
		return
	}
	writeContactResult(w, h.Contact.SubmitBusiness(r.Context(), c))
}
