package geo

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// ErrGeoUnavailable is returned when the request carries no geolocation headers.
var ErrGeoUnavailable = errors.New("geo: request has no geolocation headers")

// Cloudflare visitor location headers.
const (
	HeaderCountry    = "CF-IPCountry"
	HeaderCity       = "CF-IPCity"
	HeaderContinent  = "CF-IPContinent"
	HeaderLatitude   = "CF-IPLatitude"
	HeaderLongitude  = "CF-IPLongitude"
	HeaderRegion     = "CF-Region"
	HeaderRegionCode = "CF-Region-Code"
	HeaderMetroCode  = "CF-Metro-Code"
	HeaderPostalCode = "CF-Postal-Code"
	HeaderTimezone   = "CF-Timezone"
)

// euCountries lists ISO 3166-1 alpha-2 codes of EU member states.
var euCountries = map[string]struct{}{
	"AT": {}, "BE": {}, "BG": {}, "HR": {}, "CY": {}, "CZ": {}, "DK": {},
	"EE": {}, "FI": {}, "FR": {}, "DE": {}, "GR": {}, "HU": {}, "IE": {},
	"IT": {}, "LV": {}, "LT": {}, "LU": {}, "MT": {}, "NL": {}, "PL": {},
	"PT": {}, "RO": {}, "SK": {}, "SI": {}, "ES": {}, "SE": {},
}

// Geo is the approximate location of the client that sent a request.
type Geo struct {
	Country    string
	Region     string
	RegionCode string
	City       string
	PostalCode string
	Latitude   string
	Longitude  string
	Timezone   string
	MetroCode  string
	Continent  string
	IsEurope   bool
}

// FromRequest reads the location from r's headers. The country header is
// required; the rest are optional.
func FromRequest(r *http.Request) (*Geo, error) {
	if r == nil {
		return nil, ErrGeoUnavailable
	}
	return FromHeader(r.Header)
}

// FromHeader reads the location from h.
func FromHeader(h http.Header) (*Geo, error) {
	country := strings.ToUpper(strings.TrimSpace(h.Get(HeaderCountry)))
	if country == "" {
		return nil, ErrGeoUnavailable
	}
	_, eu := euCountries[country]
	return &Geo{
		Country:    country,
		Region:     headerValue(h, HeaderRegion),
		RegionCode: headerValue(h, HeaderRegionCode),
		City:       headerValue(h, HeaderCity),
		PostalCode: headerValue(h, HeaderPostalCode),
		Latitude:   headerValue(h, HeaderLatitude),
		Longitude:  headerValue(h, HeaderLongitude),
		Timezone:   headerValue(h, HeaderTimezone),
		MetroCode:  headerValue(h, HeaderMetroCode),
		Continent:  strings.ToUpper(headerValue(h, HeaderContinent)),
		IsEurope:   eu,
	}, nil
}

// headerValue returns h[key], decoding percent-encoded non-ASCII names.
func headerValue(h http.Header, key string) string {
	v := strings.TrimSpace(h.Get(key))
	if strings.Contains(v, "%") {
		if dec, err := url.PathUnescape(v); err == nil {
			return dec
		}
	}
	return v
}

// Coordinates parses Latitude and Longitude. ok is false when either is
// missing or malformed.
func (g *Geo) Coordinates() (lat, lon float64, ok bool) {
	lat, err := strconv.ParseFloat(g.Latitude, 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err = strconv.ParseFloat(g.Longitude, 64)
	if err != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

// MarshalJSON encodes the location with camelCase keys.
func (g *Geo) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Country    string `json:"country"`
		Region     string `json:"region"`
		RegionCode string `json:"regionCode"`
		City       string `json:"city"`
		PostalCode string `json:"postalCode"`
		Latitude   string `json:"latitude"`
		Longitude  string `json:"longitude"`
		Timezone   string `json:"timezone"`
		MetroCode  string `json:"metroCode"`
		Continent  string `json:"continent"`
		IsEurope   bool   `json:"isEurope"`
	}{
		Country:    g.Country,
		Region:     g.Region,
		RegionCode: g.RegionCode,
		City:       g.City,
		PostalCode: g.PostalCode,
		Latitude:   g.Latitude,
		Longitude:  g.Longitude,
		Timezone:   g.Timezone,
		MetroCode:  g.MetroCode,
		Continent:  g.Continent,
		IsEurope:   g.IsEurope,
	})
}

// String returns the JSON form.
func (g *Geo) String() string {
	b, _ := g.MarshalJSON()
	return string(b)
}
