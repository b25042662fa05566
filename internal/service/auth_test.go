package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/mocks"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

func TestLoginAndValidateToken(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	user := testhelpers.CreateUser(t, db, "alice")
	auth := service.NewAuthService(db, "test-secret", time.Hour, nil)
	ctx := context.Background()

	token, err := auth.Login(ctx, service.LoginInput{Email: "Alice@Example.com", Password: testhelpers.TestPassword})
	require.NoError(t, err)

	claims, err := auth.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.NotEmpty(t, claims.TokenID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, 5*time.Second)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	testhelpers.CreateUser(t, db, "alice")
	auth := service.NewAuthService(db, "test-secret", time.Hour, nil)
	ctx := context.Background()

	for _, in := range []service.LoginInput{
		{Email: "alice@example.com", Password: "wrong-password"},
		{Email: "ghost@example.com", Password: testhelpers.TestPassword},
	} {
		_, err := auth.Login(ctx, in)
		assert.Contains(t, fieldsOf(t, err), "non_field_errors")
	}
}

func TestValidateTokenRejectsForgeries(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	user := testhelpers.CreateUser(t, db, "alice")
	ctx := context.Background()

	other := service.NewAuthService(db, "other-secret", time.Hour, nil)
	forged, err := other.GenerateToken(user.ID)
	require.NoError(t, err)

	auth := service.NewAuthService(db, "test-secret", time.Hour, nil)
	_, err = auth.ValidateToken(ctx, forged)
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	expired, err := service.NewAuthService(db, "test-secret", -time.Minute, nil).GenerateToken(user.ID)
	require.NoError(t, err)
	_, err = auth.ValidateToken(ctx, expired)
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"user_id": user.ID, "jti": "x", "exp": time.Now().Add(time.Hour).Unix()})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = auth.ValidateToken(ctx, unsigned)
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	_, err = auth.ValidateToken(ctx, "garbage")
	assert.ErrorIs(t, err, service.ErrUnauthorized)
}

func TestLogoutRevokesToken(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	user := testhelpers.CreateUser(t, db, "alice")
	ctx := context.Background()

	denylist := new(mocks.MockTokenDenylist)
	auth := service.NewAuthService(db, "test-secret", time.Hour, denylist)

	token, err := auth.GenerateToken(user.ID)
	require.NoError(t, err)

	denylist.On("IsRevoked", mock.Anything, mock.AnythingOfType("string")).Return(false, nil).Once()
	claims, err := auth.ValidateToken(ctx, token)
	require.NoError(t, err)

	denylist.On("Revoke", mock.Anything, claims.TokenID, mock.MatchedBy(func(ttl time.Duration) bool {
		return ttl > 0 && ttl <= time.Hour
	})).Return(nil).Once()
	require.NoError(t, auth.Logout(ctx, claims))

	denylist.On("IsRevoked", mock.Anything, claims.TokenID).Return(true, nil).Once()
	_, err = auth.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	denylist.AssertExpectations(t)
}

func TestValidateTokenDenylistFailure(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	user := testhelpers.CreateUser(t, db, "alice")

	denylist := new(mocks.MockTokenDenylist)
	denylist.On("IsRevoked", mock.Anything, mock.Anything).Return(false, errors.New("redis down"))
	auth := service.NewAuthService(db, "test-secret", time.Hour, denylist)

	token, err := auth.GenerateToken(user.ID)
	require.NoError(t, err)

	_, err = auth.ValidateToken(context.Background(), token)
	require.Error(t, err)
	assert.NotErrorIs(t, err, service.ErrUnauthorized)
}
