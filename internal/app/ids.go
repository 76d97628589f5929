package app

import (
	"hash/fnv"
	"strconv"
	"strings"
)

// Presentation ids are derived from a source-tagged key and land in disjoint
// ranges per source, so the numeric id alone tells which source to ask.
const (
	idSpan          int64 = 1_000_000_000_000
	cmsIDBase             = 1 * idSpan // cms:<opaque id>, hashed
	bookingIDBase         = 2 * idSpan // booking:<numeric hotelNo>
	bookingHashBase       = 3 * idSpan // booking:<non-canonical hotelNo>, hashed
	idCeiling             = 4 * idSpan

	keyCMS     = "cms:"
	keyBooking = "booking:"

	legacyCMSOffset = 1000
)

type idKind int

const (
	idUnknown idKind = iota
	idCMS
	idBooking
	idBookingHash
	idLegacy
)

func cmsKey(id string) string { return keyCMS + id }
func bookingKey(hotelNo string) string { return keyBooking + hotelNo }

func hash64(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// PresentationID maps a tagged key to the numeric id exposed to the UI.
func PresentationID(key string) int64 {
	switch {
	case strings.HasPrefix(key, keyBooking):
		no := strings.TrimPrefix(key, keyBooking)
		// only canonical numerals ("7", not "007" or "+7") round-trip through decodeID
		if n, err := strconv.ParseInt(no, 10, 64); err == nil && n >= 0 && n < idSpan && strconv.FormatInt(n, 10) == no {
			return bookingIDBase + n
		}
		return bookingHashBase + int64(hash64(key)%uint64(idSpan))
	default:
		return cmsIDBase + int64(hash64(key)%uint64(idSpan))
	}
}

// decodeID reports which source range id falls in. For numeric booking ids
// the provider hotelNo is returned as well.
func decodeID(id int64) (idKind, string) {
	switch {
	case id <= 0 || id >= idCeiling:
		return idUnknown, ""
	case id < cmsIDBase:
		return idLegacy, ""
	case id < bookingIDBase:
		return idCMS, ""
	case id < bookingHashBase:
		return idBooking, strconv.FormatInt(id-bookingIDBase, 10)
	default:
		return idBookingHash, ""
	}
}

// splitKey parses "cms:<id>" / "booking:<no>".
func splitKey(key string) (idKind, string, bool) {
	switch {
	case strings.HasPrefix(key, keyCMS) && len(key) > len(keyCMS):
		return idCMS, strings.TrimPrefix(key, keyCMS), true
	case strings.HasPrefix(key, keyBooking) && len(key) > len(keyBooking):
		return idBooking, strings.TrimPrefix(key, keyBooking), true
	}
	return idUnknown, "", false
}

/********** legacy numbering **********/

// Ids minted before tagged keys existed are still stored in browsers'
// favorites, so detail lookups keep understanding them.

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// legacyCMSID strips non-digits from the CMS id; positional index+1000 when
// nothing numeric is left.
func legacyCMSID(cmsID string, index int) int64 {
	if d := digitsOnly(cmsID); d != "" {
		if n, err := strconv.ParseInt(d, 10, 64); err == nil {
			return n
		}
	}
	return int64(index) + legacyCMSOffset
}

// legacyCMSAliases are the ids an old link to this record may carry.
func legacyCMSAliases(cmsID string, index int) []int64 {
	out := []int64{legacyCMSID(cmsID, index)}
	if alt := int64(index) + legacyCMSOffset; alt != out[0] {
		out = append(out, alt)
	}
	return out
}

// legacyBookingID is the first numeral in hotelNo, else index+1.
func legacyBookingID(hotelNo string, index int) int64 {
	start := strings.IndexAny(hotelNo, "0123456789")
	if start >= 0 {
		end := start
		for end < len(hotelNo) && hotelNo[end] >= '0' && hotelNo[end] <= '9' {
			end++
		}
		if n, err := strconv.ParseInt(hotelNo[start:end], 10, 64); err == nil {
			return n
		}
	}
	return int64(index) + 1
}
