package values

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// IPAddress is a valid IPv4 or IPv6 address.
type IPAddress struct {
	addr  netip.Addr
	value string
}

// ParseIP trims s and validates it.
func ParseIP(s string) (IPAddress, error) {
	v := strings.TrimSpace(s)
	addr, err := netip.ParseAddr(v)
	if err != nil {
		return IPAddress{}, fmt.Errorf("%w: %q", ErrInvalidIP, s)
	}
	return IPAddress{addr: addr, value: v}, nil
}

// CanParseIP reports whether ParseIP would accept s.
func CanParseIP(s string) bool {
	_, err := ParseIP(s)
	return err == nil
}

// IPFromRequest returns the client address: CF-Connecting-IP first, then the
// first X-Forwarded-For entry, then the connection's remote address.
func IPFromRequest(r *http.Request) (IPAddress, error) {
	if v := r.Header.Get("CF-Connecting-IP"); v != "" {
		return ParseIP(v)
	}
	if v := r.Header.Get("X-Forwarded-For"); v != "" {
		first, _, _ := strings.Cut(v, ",")
		return ParseIP(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return ParseIP(host)
}

func (ip IPAddress) String() string {
	return ip.value
}

// Addr returns the parsed address.
func (ip IPAddress) Addr() netip.Addr {
	return ip.addr
}

// Version returns 4 or 6. IPv4-mapped IPv6 addresses report 6.
func (ip IPAddress) Version() int {
	if ip.addr.Is4() {
		return 4
	}
	return 6
}

func (ip IPAddress) IsV4() bool {
	return ip.Version() == 4
}

func (ip IPAddress) IsV6() bool {
	return ip.Version() == 6
}

// Equal compares the string forms.
func (ip IPAddress) Equal(other IPAddress) bool {
	return ip.value == other.value
}

func (ip IPAddress) MarshalText() ([]byte, error) {
	return []byte(ip.value), nil
}

func (ip *IPAddress) UnmarshalText(b []byte) error {
	parsed, err := ParseIP(string(b))
	if err != nil {
		return err
	}
	*ip = parsed
	return nil
}
