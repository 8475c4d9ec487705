package values

import (
	"net/http"
	"strings"

	"github.com/mileusna/useragent"
)

// Browser is a name and version pair.
type Browser struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Device types.
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceBot     = "bot"
	DeviceUnknown = "unknown"
)

// UserAgent is a parsed User-Agent header.
type UserAgent struct {
	value  string
	parsed useragent.UserAgent
}

// ParseUserAgent parses s. Blank input is rejected.
func ParseUserAgent(s string) (UserAgent, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return UserAgent{}, ErrInvalidUserAgent
	}
	return UserAgent{value: v, parsed: useragent.Parse(v)}, nil
}

// UserAgentFromRequest parses r's User-Agent header.
func UserAgentFromRequest(r *http.Request) (UserAgent, error) {
	return ParseUserAgent(r.UserAgent())
}

func (ua UserAgent) String() string {
	return ua.value
}

// Browser returns the client application.
func (ua UserAgent) Browser() Browser {
	return Browser{Name: ua.parsed.Name, Version: ua.parsed.Version}
}

// OS returns the operating system.
func (ua UserAgent) OS() Browser {
	return Browser{Name: ua.parsed.OS, Version: ua.parsed.OSVersion}
}

// Engine guesses the rendering engine from well-known tokens.
func (ua UserAgent) Engine() string {
	v := ua.value
	switch {
	case strings.Contains(v, "Trident/"):
		return "Trident"
	case strings.Contains(v, "Edge/"):
		return "EdgeHTML"
	case strings.Contains(v, "Presto/"):
		return "Presto"
	case strings.Contains(v, "AppleWebKit/") &&
		(strings.Contains(v, "Chrome/") || strings.Contains(v, "Chromium/") || strings.Contains(v, "CriOS/")):
		if strings.Contains(v, "CriOS/") {
			return "WebKit"
		}
		return "Blink"
	case strings.Contains(v, "AppleWebKit/"):
		return "WebKit"
	case strings.Contains(v, "Gecko/"):
		return "Gecko"
	default:
		return ""
	}
}

// Device returns the device model reported by the client, if any.
func (ua UserAgent) Device() string {
	return ua.parsed.Device
}

// DeviceType classifies the client as desktop, mobile, tablet or bot.
func (ua UserAgent) DeviceType() string {
	switch {
	case ua.parsed.Bot:
		return DeviceBot
	case ua.parsed.Tablet:
		return DeviceTablet
	case ua.parsed.Mobile:
		return DeviceMobile
	case ua.parsed.Desktop:
		return DeviceDesktop
	default:
		return DeviceUnknown
	}
}

func (ua UserAgent) IsBot() bool {
	return ua.parsed.Bot
}

func (ua UserAgent) IsMobile() bool {
	return ua.parsed.Mobile
}

func (ua UserAgent) IsTablet() bool {
	return ua.parsed.Tablet
}

// ShortIdentifier summarizes the agent as "Chrome/128 (macOS, desktop)" or
// "Bot: Googlebot".
func (ua UserAgent) ShortIdentifier() string {
	if ua.parsed.Bot {
		return "Bot: " + ua.parsed.Name
	}
	name := ua.parsed.Name
	if name == "" {
		name = "Unknown"
	}
	if major, _, _ := strings.Cut(ua.parsed.Version, "."); major != "" {
		name += "/" + major
	}
	os := ua.parsed.OS
	if os == "" {
		os = "Unknown"
	}
	return name + " (" + os + ", " + ua.DeviceType() + ")"
}

func (ua UserAgent) MarshalText() ([]byte, error) {
	return []byte(ua.value), nil
}
