package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformedToken = errors.New("malformed credential token")
	ErrMissingExpiry  = errors.New("credential token has no expiration")
	ErrTokenExpired   = errors.New("credential token expired")
)

// Claims are the credential token claims the client reads.
// The API may identify the user by "sub", "userId" or "id".
type Claims struct {
	Subject   string      `json:"sub,omitempty"`
	ExpiresAt json.Number `json:"exp,omitempty"`
	UserID    any         `json:"userId,omitempty"`
	LegacyID  any         `json:"id,omitempty"`
	Username  string      `json:"username,omitempty"`
}

// SubjectID returns the user identifier carried by the token.
func (c *Claims) SubjectID() string {
	if c.Subject != "" {
		return c.Subject
	}
	for _, v := range []any{c.UserID, c.LegacyID} {
		if v == nil {
			continue
		}
		if s := strings.TrimSpace(fmt.Sprint(v)); s != "" {
			return s
		}
	}
	return ""
}

// ValidAt reports whether the token is still usable at now.
// The rule is exp*1000 > now in milliseconds, with exp kept fractional.
func (c *Claims) ValidAt(now time.Time) error {
	if c.ExpiresAt == "" {
		return ErrMissingExpiry
	}
	// Out of range values parse to ±Inf, which still compare correctly.
	exp, err := strconv.ParseFloat(c.ExpiresAt.String(), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return fmt.Errorf("%w: exp %q", ErrMalformedToken, c.ExpiresAt)
	}
	if exp*1000 <= float64(now.UnixMilli()) {
		return ErrTokenExpired
	}
	return nil
}

// Expiry returns exp as a time, truncated to milliseconds.
func (c *Claims) Expiry() (time.Time, bool) {
	exp, err := strconv.ParseFloat(c.ExpiresAt.String(), 64)
	ms := exp * 1000
	if err != nil || ms >= math.MaxInt64 || ms <= math.MinInt64 {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(ms)), true
}

var tokenParser = jwt.NewParser(jwt.WithPaddingAllowed())

// DecodeToken reads the payload of raw without verifying its signature.
// The header is not inspected, so any signing algorithm is accepted.
// Verification is the API's job on every request.
func DecodeToken(raw string) (*Claims, error) {
	parts := strings.Split(strings.TrimSpace(raw), ".")
	if len(parts) != 3 || parts[1] == "" {
		return nil, ErrMalformedToken
	}

	payload, err := tokenParser.DecodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	claims := &Claims{}
	if err := dec.Decode(claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	return claims, nil
}
