// Package token reads claims out of identity-service access tokens. It never
// verifies signatures: the backend does that on every call, the console only
// needs to know what the token says about itself.
package token

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rotisserie/eris"
)

// SessionClaim names the claim holding the identity-service session id.
const SessionClaim = "session_id"

var (
	// ErrNoSessionClaim is returned when a token carries no usable session id.
	ErrNoSessionClaim = eris.New("access token carries no session_id claim")
	// ErrMalformed is returned for tokens whose payload cannot be decoded.
	ErrMalformed = eris.New("malformed access token")
)

// Claims decodes the payload segment of accessToken.
func Claims(accessToken string) (jwt.MapClaims, error) {
	accessToken = strings.TrimSpace(strings.TrimPrefix(accessToken, "Bearer "))
	if accessToken == "" {
		return nil, ErrMalformed
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return nil, eris.Wrap(ErrMalformed, err.Error())
	}
	return claims, nil
}

// SessionID returns the session id claim of accessToken. A token without
// the claim, or with an empty or non-string value, yields ErrNoSessionClaim.
func SessionID(accessToken string) (string, error) {
	claims, err := Claims(accessToken)
	if err != nil {
		return "", err
	}
	id, ok := claims[SessionClaim].(string)
	if !ok || strings.TrimSpace(id) == "" {
		return "", ErrNoSessionClaim
	}
	return id, nil
}

// ExpiresAt returns the exp claim of accessToken, or the zero time when the
// token has none.
func ExpiresAt(accessToken string) (time.Time, error) {
	claims, err := Claims(accessToken)
	if err != nil {
		return time.Time{}, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, eris.Wrap(ErrMalformed, err.Error())
	}
	if exp == nil {
		return time.Time{}, nil
	}
	return exp.Time, nil
}

// Subject returns the sub claim, the user id.
func Subject(accessToken string) (string, error) {
	claims, err := Claims(accessToken)
	if err != nil {
		return "", err
	}
	return claims.GetSubject()
}
