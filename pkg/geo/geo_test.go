package geo_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/edgekit/pkg/geo"
)

func TestFromRequest(t *testing.T) {
	t.Parallel()

	t.Run("full headers", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(geo.HeaderCountry, "de")
		r.Header.Set(geo.HeaderCity, "M%C3%BCnchen")
		r.Header.Set(geo.HeaderContinent, "EU")
		r.Header.Set(geo.HeaderRegion, "Bavaria")
		r.Header.Set(geo.HeaderRegionCode, "BY")
		r.Header.Set(geo.HeaderLatitude, "48.13743")
		r.Header.Set(geo.HeaderLongitude, "11.57549")
		r.Header.Set(geo.HeaderTimezone, "Europe/Berlin")
		r.Header.Set(geo.HeaderPostalCode, "80331")

		g, err := geo.FromRequest(r)
		require.NoError(t, err)
		require.Equal(t, "DE", g.Country)
		require.Equal(t, "München", g.City)
		require.Equal(t, "Bavaria", g.Region)
		require.Equal(t, "BY", g.RegionCode)
		require.Equal(t, "Europe/Berlin", g.Timezone)
		require.True(t, g.IsEurope)

		lat, lon, ok := g.Coordinates()
		require.True(t, ok)
		require.InDelta(t, 48.13743, lat, 1e-9)
		require.InDelta(t, 11.57549, lon, 1e-9)
	})

	t.Run("country only", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(geo.HeaderCountry, "US")

		g, err := geo.FromRequest(r)
		require.NoError(t, err)
		require.False(t, g.IsEurope)
		require.Empty(t, g.City)

		_, _, ok := g.Coordinates()
		require.False(t, ok)
	})

	t.Run("missing headers", func(t *testing.T) {
		t.Parallel()

		_, err := geo.FromRequest(httptest.NewRequest(http.MethodGet, "/", nil))
		require.ErrorIs(t, err, geo.ErrGeoUnavailable)

		_, err = geo.FromRequest(nil)
		require.ErrorIs(t, err, geo.ErrGeoUnavailable)
	})
}

func TestGeo_MarshalJSON(t *testing.T) {
	t.Parallel()

	g := &geo.Geo{Country: "FR", City: "Paris", Continent: "EU", IsEurope: true}
	b, err := json.Marshal(g)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"country":"FR","region":"","regionCode":"","city":"Paris","postalCode":"",
		"latitude":"","longitude":"","timezone":"","metroCode":"","continent":"EU","isEurope":true
	}`, string(b))
	require.JSONEq(t, string(b), g.String())
}
