package values_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/edgekit/pkg/values"
)

const (
	chromeMac = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/128.0.0.0 Safari/537.36"
	firefox   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:129.0) Gecko/20100101 Firefox/129.0"
	iphone    = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Mobile/15E148 Safari/604.1"
	googlebot = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"
)

func TestParseUserAgent(t *testing.T) {
	t.Parallel()

	t.Run("desktop chrome", func(t *testing.T) {
		t.Parallel()

		ua, err := values.ParseUserAgent(chromeMac)
		require.NoError(t, err)
		require.Equal(t, "Chrome", ua.Browser().Name)
		require.Equal(t, "Blink", ua.Engine())
		require.Equal(t, values.DeviceDesktop, ua.DeviceType())
		require.False(t, ua.IsBot())
		require.False(t, ua.IsMobile())
		require.Equal(t, "Chrome/128 (macOS, desktop)", ua.ShortIdentifier())
	})

	t.Run("firefox", func(t *testing.T) {
		t.Parallel()

		ua, err := values.ParseUserAgent(firefox)
		require.NoError(t, err)
		require.Equal(t, "Firefox", ua.Browser().Name)
		require.Equal(t, "Gecko", ua.Engine())
		require.Equal(t, "Windows", ua.OS().Name)
	})

	t.Run("mobile safari", func(t *testing.T) {
		t.Parallel()

		ua, err := values.ParseUserAgent(iphone)
		require.NoError(t, err)
		require.True(t, ua.IsMobile())
		require.Equal(t, "WebKit", ua.Engine())
		require.Equal(t, values.DeviceMobile, ua.DeviceType())
	})

	t.Run("bot", func(t *testing.T) {
		t.Parallel()

		ua, err := values.ParseUserAgent(googlebot)
		require.NoError(t, err)
		require.True(t, ua.IsBot())
		require.Equal(t, values.DeviceBot, ua.DeviceType())
		require.Equal(t, "Bot: Googlebot", ua.ShortIdentifier())
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()

		_, err := values.ParseUserAgent("  ")
		require.ErrorIs(t, err, values.ErrInvalidUserAgent)
	})
}

func TestUserAgentFromRequest(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("User-Agent", firefox)
	ua, err := values.UserAgentFromRequest(r)
	require.NoError(t, err)
	require.Equal(t, firefox, ua.String())

	r.Header.Del("User-Agent")
	_, err = values.UserAgentFromRequest(r)
	require.ErrorIs(t, err, values.ErrInvalidUserAgent)
}
