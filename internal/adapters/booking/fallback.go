package booking

import (
	_ "embed"

	"gopkg.in/yaml.v3"

	"wanstay/internal/domain"
)

//go:embed fallback.yaml
var fallbackYAML []byte

var fallbackRecords []domain.BookingRecord

func init() {
	if err := yaml.Unmarshal(fallbackYAML, &fallbackRecords); err != nil {
		panic("booking: bad fallback.yaml: " + err.Error())
	}
}

// Fallback returns a fresh copy of the fixed demo dataset, each record marked
// as such.
func Fallback() []domain.BookingRecord {
	out := make([]domain.BookingRecord, len(fallbackRecords))
	copy(out, fallbackRecords)
	for i := range out {
		out[i].Fallback = true
	}
	return out
}
