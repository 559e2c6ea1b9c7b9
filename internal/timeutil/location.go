package timeutil

import (
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const locationCacheSize = 64

// locations caches loaded IANA zones; time.LoadLocation reads tzdata from
// disk on every call.
var locations = mustLocationCache(locationCacheSize)

func mustLocationCache(size int) *lru.Cache[string, *time.Location] {
	cache, err := lru.New[string, *time.Location](size)
	if err != nil {
		panic(fmt.Sprintf("timeutil: failed to create location cache: %v", err))
	}
	return cache
}

// LoadLocation returns the IANA zone named name, such as
// "America/Mexico_City". An empty name is rejected rather than treated as
// UTC, since devices always report a zone.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty time zone name", ErrInvalidTimeFormat)
	}
	if loc, ok := locations.Get(name); ok {
		return loc, nil
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: time zone %q: %v", ErrInvalidTimeFormat, name, err)
	}
	locations.Add(name, loc)
	return loc, nil
}
