// Package geo exposes the client location attached to a request by the edge
// network.
//
// Cloudflare adds visitor location headers (CF-IPCountry, CF-IPCity and
// others) when the "Add visitor location headers" managed transform is on:
//
//	g, err := geo.FromRequest(r)
//	if errors.Is(err, geo.ErrGeoUnavailable) {
//	    // not behind the edge, or the transform is disabled
//	}
//	fmt.Println(g.Country, g.City, g.Timezone)
package geo
