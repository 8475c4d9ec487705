package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"
)

// DefaultCookieName is the cookie carrying the session id.
const DefaultCookieName = "__session"

// cookieCodec writes and verifies the session id cookie.
// With a secret the value is "base64(id).base64(hmac)"; without one the id is stored as is.
type cookieCodec struct {
	secret   []byte
	name     string
	domain   string
	path     string
	maxAge   time.Duration
	secure   bool
	sameSite http.SameSite
}

func (c *cookieCodec) read(r *http.Request) (string, error) {
	ck, err := r.Cookie(c.name)
	if errors.Is(err, http.ErrNoCookie) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if c.secret == nil {
		return ck.Value, nil
	}

	rawID, rawSig, ok := strings.Cut(ck.Value, ".")
	if !ok {
		return "", ErrBadSignature
	}
	id, err := base64.RawURLEncoding.DecodeString(rawID)
	if err != nil {
		return "", ErrBadSignature
	}
	sig, err := base64.RawURLEncoding.DecodeString(rawSig)
	if err != nil {
		return "", ErrBadSignature
	}
	if !hmac.Equal(sig, c.sign(id)) {
		return "", ErrBadSignature
	}
	return string(id), nil
}

func (c *cookieCodec) write(w http.ResponseWriter, id string) {
	value := id
	if c.secret != nil {
		value = base64.RawURLEncoding.EncodeToString([]byte(id)) + "." +
			base64.RawURLEncoding.EncodeToString(c.sign([]byte(id)))
	}
	http.SetCookie(w, c.cookie(value, int(c.maxAge.Seconds())))
}

func (c *cookieCodec) sign(value []byte) []byte {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write(value)
	return mac.Sum(nil)
}

func (c *cookieCodec) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     c.name,
		Value:    value,
		Path:     c.path,
		Domain:   c.domain,
		MaxAge:   maxAge,
		Secure:   c.secure,
		HttpOnly: true,
		SameSite: c.sameSite,
	}
}
