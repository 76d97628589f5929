package domain

// Hotel is the merged search-result shape served to the UI.
type Hotel struct {
	ID        int64    `json:"id"`
	Key       string   `json:"key"` // source-tagged identity, e.g. "cms:abc" or "booking:1234"
	Name      string   `json:"name"`
	Location  string   `json:"location"`
	Price     int      `json:"price"` // whole yen
	Amenities []string `json:"amenities"`
	Image     string   `json:"image"`
	Coords    Coords   `json:"coordinates"`
}

type Coords struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type DogFeature struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
}

type PetInfo struct {
	Sizes     string `json:"sizes"`
	MaxPets   string `json:"maxPets"`
	Fee       string `json:"fee"`
	Amenities string `json:"amenities"`
}

// HotelDetail extends Hotel with the fields rendered on the detail page.
type HotelDetail struct {
	Hotel
	Access      string       `json:"access"`
	Checkin     string       `json:"checkin"`
	Checkout    string       `json:"checkout"`
	Parking     string       `json:"parking"`
	Payment     string       `json:"payment"`
	Phone       string       `json:"phone"`
	Images      []string     `json:"images"`
	DogFeatures []DogFeature `json:"dogFeatures"`
	PetInfo     PetInfo      `json:"petInfo"`
	Website     string       `json:"website"`
	Notes       string       `json:"notes"`
}

// CMSRecord is a curated listing as stored in the headless CMS.
type CMSRecord struct {
	ID              string `json:"id"`
	HotelName       string `json:"hotelName"`
	Prefecture      string `json:"prefecture"`
	Address         string `json:"address"`
	Access          string `json:"access"`
	CheckinTime     string `json:"checkinTime"`
	CheckoutTime    string `json:"checkoutTime"`
	Payment         string `json:"payment"`
	Phone           string `json:"phone"`
	Website         string `json:"website"`
	Parking         bool   `json:"parking"`
	Shuttle         bool   `json:"shuttle"`
	HotSpring       bool   `json:"hotSpring"`
	PrivateOnsen    bool   `json:"privateOnsen"`
	SmallDog        bool   `json:"smallDog"`
	MediumDog       bool   `json:"mediumDog"`
	LargeDog        bool   `json:"largeDog"`
	MultipleDogs    bool   `json:"multipleDogs"`
	DogRun          bool   `json:"dogRun"`
	InRoomDogRun    bool   `json:"inRoomDogRun"`
	DineWithDog     bool   `json:"dineWithDog"`
	DogMenu         bool   `json:"dogMenu"`
	PetAmenities    bool   `json:"petAmenities"`
	SmallDogFee     string `json:"smallDogFee"`
	MediumDogFee    string `json:"mediumDogFee"`
	LargeDogFee     string `json:"largeDogFee"`
	GroomingRoom    bool   `json:"groomingRoom"`
	LeashFreeIndoor bool   `json:"leashFreeIndoor"`
	Notes           string `json:"notes"` // may contain markup
}

// BookingRecord is one hotel as returned by the travel-booking provider.
type BookingRecord struct {
	HotelNo           string  `json:"hotelNo" yaml:"hotelNo"`
	HotelName         string  `json:"hotelName" yaml:"hotelName"`
	Address1          string  `json:"address1" yaml:"address1"`
	Address2          string  `json:"address2" yaml:"address2"`
	ReviewAverage     float64 `json:"reviewAverage" yaml:"reviewAverage"`
	ReviewCount       int     `json:"reviewCount" yaml:"reviewCount"`
	HotelMinCharge    int     `json:"hotelMinCharge" yaml:"hotelMinCharge"`
	HotelImageURL     string  `json:"hotelImageUrl" yaml:"hotelImageUrl"`
	HotelThumbnailURL string  `json:"hotelThumbnailUrl" yaml:"hotelThumbnailUrl"`
	RoomImageURL      string  `json:"roomImageUrl" yaml:"roomImageUrl"`
	RoomThumbnailURL  string  `json:"roomThumbnailUrl" yaml:"roomThumbnailUrl"`
	HotelMapImageURL  string  `json:"hotelMapImageUrl" yaml:"hotelMapImageUrl"`
	TelephoneNo       string  `json:"telephoneNo" yaml:"telephoneNo"`
	FaxNo             string  `json:"faxNo" yaml:"faxNo"`
	Access            string  `json:"access" yaml:"access"`
	ParkingInfo       string  `json:"parkingInformation" yaml:"parkingInformation"`
	NearestStation    string  `json:"nearestStation" yaml:"nearestStation"`
	HotelComment      string  `json:"hotelSpecial" yaml:"hotelSpecial"`
	PlanListURL       string  `json:"planListUrl" yaml:"planListUrl"`

	// Detail-only fields (HotelDetailSearch).
	CheckinTime    string `json:"checkinTime,omitempty" yaml:"checkinTime"`
	CheckoutTime   string `json:"checkoutTime,omitempty" yaml:"checkoutTime"`
	FacilitiesInfo string `json:"facilitiesInfo,omitempty" yaml:"facilitiesInfo"`
	Payment        string `json:"payment,omitempty" yaml:"payment"`

	// Fallback marks records served from the fixed dataset instead of the provider.
	Fallback bool `json:"-" yaml:"-"`
}
