package auth

import (
	"testing"
	"time"

	"github.com/erp/salestax/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestService() *TokenService {
	return NewTokenService(config.AuthConfig{
		JWTSecret:       testSecret,
		Issuer:          "salestax-test",
		TokenExpiration: 15 * time.Minute,
	})
}

func TestTokenService_IssueAndValidate(t *testing.T) {
	svc := newTestService()
	orgID := uuid.New()

	token, expiresAt, err := svc.Issue(IssueInput{
		Subject:        "billing-worker",
		OrganizationID: orgID,
		Scopes:         []string{ScopeDocuments},
	})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "billing-worker", claims.Subject)
	got, err := claims.OrganizationUUID()
	require.NoError(t, err)
	assert.Equal(t, orgID, got)
	assert.True(t, claims.HasScope(ScopeDocuments))
	assert.False(t, claims.HasScope(ScopeAdmin))
}

func TestTokenService_Validate(t *testing.T) {
	svc := newTestService()
	orgID := uuid.New()

	t.Run("expired", func(t *testing.T) {
		token, _, err := svc.Issue(IssueInput{OrganizationID: orgID})
		require.NoError(t, err)

		later := newTestService()
		later.now = func() time.Time { return time.Now().Add(time.Hour) }
		_, err = later.Validate(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenService(config.AuthConfig{JWTSecret: "ffffffffffffffffffffffffffffffff", Issuer: "salestax-test"})
		token, _, err := other.Issue(IssueInput{OrganizationID: orgID})
		require.NoError(t, err)

		_, err = svc.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewTokenService(config.AuthConfig{JWTSecret: testSecret, Issuer: "someone-else"})
		token, _, err := other.Issue(IssueInput{OrganizationID: orgID})
		require.NoError(t, err)

		_, err = svc.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unsigned token", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{OrganizationID: orgID.String()}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = svc.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing organization", func(t *testing.T) {
		now := time.Now()
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "salestax-test",
				Audience:  jwt.ClaimStrings{"salestax-test"},
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
			},
		}).SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = svc.Validate(token)
		assert.ErrorIs(t, err, ErrMissingOrganization)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.Validate("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestClaims_HasScope(t *testing.T) {
	admin := &Claims{Scopes: []string{ScopeAdmin}}
	assert.True(t, admin.HasScope(ScopeDocuments))
	assert.True(t, admin.HasScope(ScopeAdmin))

	none := &Claims{}
	assert.False(t, none.HasScope(ScopeDocuments))
}
