package auth

import (
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenService(t *testing.T, now time.Time) *Service {
	t.Helper()
	svc := &Service{
		secret:    []byte("test-secret-test-secret"),
		accessTTL: time.Hour,
		now:       func() time.Time { return now },
		signer:    jwa.HS256,
		validator: TokenValidator{
			Issuer:    "pos-api",
			Audience:  "pos-operators",
			Algorithm: jwa.HS256,
		},
		issuer:   "pos-api",
		audience: "pos-operators",
	}
	return svc
}

func TestSignAndParseAccessToken(t *testing.T) {
	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	svc := newTokenService(t, now)

	token, expiresAt, err := svc.signAccessToken("op-42", RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), expiresAt)

	identity, err := svc.ParseAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "op-42", identity.OperatorID)
	assert.Equal(t, RoleAdmin, identity.Role)
}

func TestParseAccessTokenDefaultsRole(t *testing.T) {
	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	svc := newTokenService(t, now)

	// A token without a role claim falls back to the operator role.
	tok, err := jwt.NewBuilder().
		Subject("op-1").
		Issuer("pos-api").
		Audience([]string{"pos-operators"}).
		IssuedAt(now).
		Expiration(now.Add(time.Hour)).
		Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, svc.secret))
	require.NoError(t, err)

	identity, err := svc.ParseAccessToken(string(signed))
	require.NoError(t, err)
	assert.Equal(t, RoleOperator, identity.Role)
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	svc := newTokenService(t, now)

	token, _, err := svc.signAccessToken("op-1", RoleOperator)
	require.NoError(t, err)

	svc.now = func() time.Time { return now.Add(2 * time.Hour) }
	_, err = svc.ParseAccessToken(token)
	assert.Error(t, err)
}

func TestParseAccessTokenRejectsWrongIssuer(t *testing.T) {
	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	svc := newTokenService(t, now)

	tok, err := jwt.NewBuilder().
		Subject("op-1").
		Issuer("someone-else").
		Audience([]string{"pos-operators"}).
		IssuedAt(now).
		Expiration(now.Add(time.Hour)).
		Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, svc.secret))
	require.NoError(t, err)

	_, err = svc.ParseAccessToken(string(signed))
	assert.Error(t, err)
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	svc := newTokenService(t, now)

	tok, err := jwt.NewBuilder().
		Subject("op-1").
		Issuer("pos-api").
		Audience([]string{"pos-operators"}).
		IssuedAt(now).
		Expiration(now.Add(time.Hour)).
		Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, []byte("other-secret")))
	require.NoError(t, err)

	_, err = svc.ParseAccessToken(string(signed))
	assert.Error(t, err)
}

func TestParseAccessTokenRejectsEmpty(t *testing.T) {
	svc := newTokenService(t, time.Now())
	_, err := svc.ParseAccessToken("   ")
	assert.Error(t, err)
}
