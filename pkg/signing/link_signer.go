package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMalformedToken   = errors.New("invalid token format")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrExpiredToken     = errors.New("token expired")
)

// LinkSigner creates and validates the HMAC tokens embedded in patient-facing links.
// A token binds a booking ID to an action and an expiry.
type LinkSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewLinkSigner constructs a signer with the provided secret and TTL.
func NewLinkSigner(secret string, ttl time.Duration) *LinkSigner {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &LinkSigner{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Claims is the verified content of a token.
type Claims struct {
	BookingID string
	Action    string
	ExpiresAt time.Time
}

// Generate returns a token for the booking and action. The expiry never exceeds notAfter when set.
func (s *LinkSigner) Generate(bookingID, action string, notAfter time.Time) (string, time.Time, error) {
	if bookingID == "" || action == "" {
		return "", time.Time{}, fmt.Errorf("bookingID and action required")
	}
	if strings.Contains(bookingID, ".") || strings.Contains(action, ".") {
		return "", time.Time{}, ErrMalformedToken
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl)
	if !notAfter.IsZero() && notAfter.Before(expiresAt) {
		expiresAt = notAfter
	}
	exp := strconv.FormatInt(expiresAt.Unix(), 10)
	signature := s.sign(bookingID, action, exp)
	token := strings.Join([]string{bookingID, action, exp, signature}, ".")
	return token, time.Unix(expiresAt.Unix(), 0), nil
}

// Parse validates a token and returns its claims.
func (s *LinkSigner) Parse(token string) (Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return Claims{}, ErrMalformedToken
	}
	bookingID, action, exp, signature := parts[0], parts[1], parts[2], parts[3]

	expUnix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return Claims{}, ErrMalformedToken
	}

	expected := s.sign(bookingID, action, exp)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return Claims{}, ErrInvalidSignature
	}

	expiresAt := time.Unix(expUnix, 0)
	if s.now().After(expiresAt) {
		return Claims{}, ErrExpiredToken
	}
	return Claims{BookingID: bookingID, Action: action, ExpiresAt: expiresAt}, nil
}

func (s *LinkSigner) sign(bookingID, action, exp string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(bookingID + "|" + action + "|" + exp))
	return hex.EncodeToString(mac.Sum(nil))
}
