package domain

import (
	"fmt"
	"math"
	"strings"
)

// PrecipPattern describes how precipitation is distributed across the year.
type PrecipPattern string

const (
	PrecipMediterranean PrecipPattern = "mediterranean"
	PrecipTropical      PrecipPattern = "tropical"
	PrecipOceanic       PrecipPattern = "oceanic"
	PrecipContinental   PrecipPattern = "continental"
	PrecipUniform       PrecipPattern = "uniform"
)

func (p PrecipPattern) Valid() bool {
	switch p {
	case PrecipMediterranean, PrecipTropical, PrecipOceanic, PrecipContinental, PrecipUniform:
		return true
	}
	return false
}

// ClimateProfile is the seasonal baseline used by the synthetic forecast source.
type ClimateProfile struct {
	BaseTempC      float64
	TempAmplitudeC float64
	Precip         PrecipPattern
}

// GenericClimate derives a coarse climate profile from latitude alone.
// It is used for cities that were resolved remotely and are not in the catalog.
func GenericClimate(lat float64) ClimateProfile {
	return ClimateProfile{
		BaseTempC:      25 - math.Abs(lat)*0.4,
		TempAmplitudeC: 10,
		Precip:         PrecipUniform,
	}
}

// City is a resolved destination: display name, position and the fallback data
// attached to it.
type City struct {
	Name        string
	Country     string
	Coordinates Coordinates
	Airport     string
	Climate     ClimateProfile
	// HotelIndex scales baseline hotel prices (1.0 = average European city).
	HotelIndex float64
	// Catalogued is false for cities resolved through a remote geocoder.
	Catalogued bool
}

// CityKey normalizes a city name for lookups: lower case, single spaces.
func CityKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// Validate checks the invariants every catalog row must satisfy.
func (c City) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("city: name must be non-empty")
	}
	if !c.Coordinates.Valid() {
		return fmt.Errorf("city %q: invalid coordinates lat=%v lon=%v", c.Name, c.Coordinates.Lat, c.Coordinates.Lon)
	}
	if !c.Climate.Precip.Valid() {
		return fmt.Errorf("city %q: unknown precipitation pattern %q", c.Name, c.Climate.Precip)
	}
	if c.HotelIndex <= 0 {
		return fmt.Errorf("city %q: hotel index must be positive, got %v", c.Name, c.HotelIndex)
	}
	return nil
}
