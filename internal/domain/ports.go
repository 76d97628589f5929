package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrMailNotConfigured = errors.New("mail provider not configured")
)

// AreaNationwide is the sentinel area meaning "no geographic restriction".
const AreaNationwide = "全国"

type CMSClient interface {
	ListAll(ctx context.Context) []CMSRecord
	ListByPrefecture(ctx context.Context, prefecture string) []CMSRecord
}

type BookingClient interface {
	Search(ctx context.Context, q BookingQuery) []BookingRecord
	GetDetail(ctx context.Context, hotelNo string) (BookingRecord, bool)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

type Mailer interface {
	Send(ctx context.Context, m Mail) error
}

type InquiryStore interface {
	SaveInquiry(ctx context.Context, in Inquiry) error
}

// MissLogger records detail lookups that resolved to nothing.
type MissLogger interface {
	LogMiss(ctx context.Context, id int64, reason string) error
}

type BookingQuery struct {
	Area     string
	Checkin  *time.Time
	Checkout *time.Time
}

// DetailFilters are the optional attribute filters of a search; false means "don't care".
type DetailFilters struct {
	DogRun       bool `json:"dogRun"`
	LargeDog     bool `json:"largeDog"`
	RoomDining   bool `json:"roomDining"`
	HotSpring    bool `json:"hotSpring"`
	Parking      bool `json:"parking"`
	MultipleDogs bool `json:"multipleDogs"`
	PetAmenities bool `json:"petAmenities"`
	DogMenu      bool `json:"dogMenu"`
	PrivateBath  bool `json:"privateBath"`
	InRoomDogRun bool `json:"inRoomDogRun"`
	Grooming     bool `json:"grooming"`
	LeashFree    bool `json:"leashFree"`
}

type SearchQuery struct {
	Areas    []string
	Checkin  *time.Time
	Checkout *time.Time
	Filters  *DetailFilters
}
