package security

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// KidCookieName holds the signed kid session token
const KidCookieName = "kid_session"

// ErrInvalidToken means the kid token is malformed, expired or badly signed
var ErrInvalidToken = errors.New("invalid kid token")

const tokenIssuer = "routineboard"

// KidClaims identifies a signed-in child. Subject is the child profile id and
// ID is the token id that CSRF tokens are bound to.
type KidClaims struct {
	FamilyID string `json:"fam"`
	jwt.RegisteredClaims
}

// ChildID returns the child profile id carried by the token
func (c *KidClaims) ChildID() string {
	return c.Subject
}

// KidTokens issues and verifies HS256 kid session tokens
type KidTokens struct {
	secret   []byte
	duration time.Duration
	now      func() time.Time
}

// NewKidTokens creates a token issuer with the given signing secret and lifetime
func NewKidTokens(secret string, duration time.Duration) *KidTokens {
	return &KidTokens{secret: []byte(secret), duration: duration, now: time.Now}
}

// Issue signs a new token for a child and returns it with its expiry
func (k *KidTokens) Issue(childID, familyID string) (string, time.Time, error) {
	now := k.now()
	expires := now.Add(k.duration)
	claims := KidClaims{
		FamilyID: familyID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   childID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(k.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign kid token: %w", err)
	}
	return signed, expires, nil
}

// Parse verifies a token and returns its claims
func (k *KidTokens) Parse(raw string) (*KidClaims, error) {
	claims := &KidClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return k.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(k.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, fmt.Errorf("%w: missing subject or id", ErrInvalidToken)
	}
	return claims, nil
}

// IsSecureRequest determines if the request is over HTTPS
// Checks TLS connection, X-Forwarded-Proto header (for reverse proxies), and URL scheme
func IsSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "https" {
		return true
	}
	return r.URL.Scheme == "https"
}

// CreateSessionCookie creates the kid session cookie with the Secure flag set from the request scheme
func CreateSessionCookie(r *http.Request, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     KidCookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	}
}

// CreateDeleteCookie expires the kid session cookie
func CreateDeleteCookie(r *http.Request) *http.Cookie {
	return &http.Cookie{
		Name:     KidCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	}
}
