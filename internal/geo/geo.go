// Package geo maps Japanese prefectures to booking-provider area codes and to
// the default map point used for listings without coordinates.
package geo

import (
	_ "embed"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"wanstay/internal/domain"
)

//go:embed prefectures.yaml
var prefecturesYAML []byte

type Prefecture struct {
	Name string  `yaml:"name"`
	Code string  `yaml:"code"`
	Lat  float64 `yaml:"lat"`
	Lng  float64 `yaml:"lng"`
}

type table struct {
	Default struct {
		Lat float64 `yaml:"lat"`
		Lng float64 `yaml:"lng"`
	} `yaml:"default"`
	Prefectures []Prefecture `yaml:"prefectures"`
}

var (
	loadOnce sync.Once
	tbl      table
	byName   map[string]Prefecture
)

func load() {
	loadOnce.Do(func() {
		if err := yaml.Unmarshal(prefecturesYAML, &tbl); err != nil {
			panic("geo: bad prefectures.yaml: " + err.Error())
		}
		byName = make(map[string]Prefecture, len(tbl.Prefectures))
		for _, p := range tbl.Prefectures {
			byName[p.Name] = p
		}
	})
}

// Lookup finds a prefecture by its exact Japanese name.
func Lookup(name string) (Prefecture, bool) {
	load()
	p, ok := byName[strings.TrimSpace(name)]
	return p, ok
}

// FromAddress finds the prefecture an address starts with (or mentions).
func FromAddress(addr string) (Prefecture, bool) {
	load()
	addr = strings.TrimSpace(addr)
	for _, p := range tbl.Prefectures {
		if strings.HasPrefix(addr, p.Name) {
			return p, true
		}
	}
	for _, p := range tbl.Prefectures {
		if strings.Contains(addr, p.Name) {
			return p, true
		}
	}
	return Prefecture{}, false
}

// Default is the fallback point for unresolvable areas.
func Default() domain.Coords {
	load()
	return domain.Coords{Lat: tbl.Default.Lat, Lng: tbl.Default.Lng}
}

// PointFor returns the region point for an area or address, or Default.
func PointFor(areaOrAddress string) domain.Coords {
	if p, ok := Lookup(areaOrAddress); ok {
		return domain.Coords{Lat: p.Lat, Lng: p.Lng}
	}
	if p, ok := FromAddress(areaOrAddress); ok {
		return domain.Coords{Lat: p.Lat, Lng: p.Lng}
	}
	return Default()
}

// Nudge offsets c by a small per-index step so markers sharing a region point
// don't overlap exactly. The grid is 5x5 with 0.01 degree spacing.
func Nudge(c domain.Coords, index int) domain.Coords {
	if index < 0 {
		index = -index
	}
	return domain.Coords{
		Lat: c.Lat + float64(index%5)*0.01,
		Lng: c.Lng + float64((index/5)%5)*0.01,
	}
}
