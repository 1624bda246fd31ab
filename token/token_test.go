package token

import (
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("whatever"))
	require.NoError(t, err)
	return tok
}

func unsigned(payload string) string {
	enc := base64.RawURLEncoding
	return enc.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`)) + "." +
		enc.EncodeToString([]byte(payload)) + ".sig"
}

func TestSessionIDFromClaim(t *testing.T) {
	tok := signed(t, jwt.MapClaims{"sub": "u1", "session_id": "4b6f-session"})
	id, err := SessionID(tok)
	require.NoError(t, err)
	assert.Equal(t, "4b6f-session", id)

	id, err = SessionID("Bearer " + tok)
	require.NoError(t, err)
	assert.Equal(t, "4b6f-session", id)
}

func TestSessionIDDecodesBase64URLPayload(t *testing.T) {
	id, err := SessionID(unsigned(`{"sub":"u1","session_id":"from-payload"}`))
	require.NoError(t, err)
	assert.Equal(t, "from-payload", id)
}

func TestSessionIDFailsClosed(t *testing.T) {
	cases := map[string]string{
		"missing claim": signed(t, jwt.MapClaims{"sub": "u1"}),
		"empty claim":   signed(t, jwt.MapClaims{"sub": "u1", "session_id": ""}),
		"non-string":    unsigned(`{"sub":"u1","session_id":42}`),
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			id, err := SessionID(tok)
			assert.Empty(t, id)
			assert.True(t, errors.Is(err, ErrNoSessionClaim), "got %v", err)
		})
	}
}

func TestMalformedTokens(t *testing.T) {
	for _, tok := range []string{"", "abc", "a.b", "a.!!!.c"} {
		_, err := SessionID(tok)
		assert.True(t, errors.Is(err, ErrMalformed), "token %q: %v", tok, err)
	}
}

func TestExpiresAtAndSubject(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tok := signed(t, jwt.MapClaims{"sub": "user-7", "exp": exp.Unix()})

	got, err := ExpiresAt(tok)
	require.NoError(t, err)
	assert.True(t, exp.Equal(got))

	sub, err := Subject(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-7", sub)

	got, err = ExpiresAt(signed(t, jwt.MapClaims{"sub": "x"}))
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}
