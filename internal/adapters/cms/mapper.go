package cms

import (
	"strconv"
	"strings"

	"wanstay/internal/domain"
)

/********** alias registry (single source of truth) **********/

// Editors renamed several fields over the life of the schema; older entries
// still carry the previous names.
var recordAliases = map[string][]string{
	"hotelName":    {"hotelName", "name", "title"},
	"prefecture":   {"prefecture", "pref"},
	"address":      {"address", "address1"},
	"access":       {"access"},
	"checkin":      {"checkinTime", "checkin"},
	"checkout":     {"checkoutTime", "checkout"},
	"payment":      {"payment", "paymentMethods"},
	"phone":        {"phone", "tel", "telephone"},
	"website":      {"website", "url", "officialUrl"},
	"notes":        {"notes", "note", "remarks"},
	"smallDogFee":  {"smallDogFee", "feeSmall"},
	"mediumDogFee": {"mediumDogFee", "feeMedium"},
	"largeDogFee":  {"largeDogFee", "feeLarge"},

	"parking":         {"parking"},
	"shuttle":         {"shuttle", "pickup"},
	"hotSpring":       {"hotSpring", "onsen"},
	"privateOnsen":    {"privateOnsen", "privateBath"},
	"smallDog":        {"smallDog"},
	"mediumDog":       {"mediumDog"},
	"largeDog":        {"largeDog"},
	"multipleDogs":    {"multipleDogs"},
	"dogRun":          {"dogRun"},
	"inRoomDogRun":    {"inRoomDogRun", "roomDogRun"},
	"dineWithDog":     {"dineWithDog", "roomDining"},
	"dogMenu":         {"dogMenu"},
	"petAmenities":    {"petAmenities"},
	"groomingRoom":    {"groomingRoom", "grooming"},
	"leashFreeIndoor": {"leashFreeIndoor", "leashFree"},
}

/********** tiny helpers **********/

// flexStr renders strings, numbers and single-choice select fields (which the
// CMS returns as one-element arrays) as a plain string.
func flexStr(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []any:
		parts := make([]string, 0, len(t))
		for _, it := range t {
			if s := flexStr(it); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "、")
	}
	return ""
}

func flexBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(t))
		return b
	case float64:
		return t != 0
	case []any:
		// multi-select checkbox rendered as ["あり"]
		return len(t) > 0 && flexStr(t) != "なし"
	}
	return false
}

func str(m map[string]any, key string) string {
	for _, k := range recordAliases[key] {
		if s := flexStr(m[k]); s != "" {
			return s
		}
	}
	return ""
}

func boolean(m map[string]any, key string) bool {
	for _, k := range recordAliases[key] {
		if v, ok := m[k]; ok && v != nil {
			return flexBool(v)
		}
	}
	return false
}

/********** record mapper **********/

func mapRecord(m map[string]any) domain.CMSRecord {
	return domain.CMSRecord{
		ID:              flexStr(m["id"]),
		HotelName:       str(m, "hotelName"),
		Prefecture:      str(m, "prefecture"),
		Address:         str(m, "address"),
		Access:          str(m, "access"),
		CheckinTime:     str(m, "checkin"),
		CheckoutTime:    str(m, "checkout"),
		Payment:         str(m, "payment"),
		Phone:           str(m, "phone"),
		Website:         str(m, "website"),
		Parking:         boolean(m, "parking"),
		Shuttle:         boolean(m, "shuttle"),
		HotSpring:       boolean(m, "hotSpring"),
		PrivateOnsen:    boolean(m, "privateOnsen"),
		SmallDog:        boolean(m, "smallDog"),
		MediumDog:       boolean(m, "mediumDog"),
		LargeDog:        boolean(m, "largeDog"),
		MultipleDogs:    boolean(m, "multipleDogs"),
		DogRun:          boolean(m, "dogRun"),
		InRoomDogRun:    boolean(m, "inRoomDogRun"),
		DineWithDog:     boolean(m, "dineWithDog"),
		DogMenu:         boolean(m, "dogMenu"),
		PetAmenities:    boolean(m, "petAmenities"),
		SmallDogFee:     str(m, "smallDogFee"),
		MediumDogFee:    str(m, "mediumDogFee"),
		LargeDogFee:     str(m, "largeDogFee"),
		GroomingRoom:    boolean(m, "groomingRoom"),
		LeashFreeIndoor: boolean(m, "leashFreeIndoor"),
		Notes:           str(m, "notes"),
	}
}
