package pkg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse(t *testing.T) {
	pair, err := GeneratePair(42)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	claims, err := ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.Equal(t, "access", claims.Subject)
}

func TestParseAccessRejectsGarbage(t *testing.T) {
	_, err := ParseAccess("not-a-token")
	assert.Error(t, err)
}

// refresh token 用的是另一把密钥，不能当 access 用
func TestParseAccessRejectsRefreshToken(t *testing.T) {
	pair, err := GeneratePair(7)
	require.NoError(t, err)

	_, err = ParseAccess(pair.RefreshToken)
	assert.Error(t, err)
}

func TestRefreshRoundTrip(t *testing.T) {
	pair, err := GeneratePair(7)
	require.NoError(t, err)

	renewed, err := Refresh(pair.RefreshToken)
	require.NoError(t, err)

	claims, err := ParseAccess(renewed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), claims.UserID)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	pair, err := GeneratePair(7)
	require.NoError(t, err)

	_, err = Refresh(pair.AccessToken)
	assert.Error(t, err)
}

func TestExpiredAccessToken(t *testing.T) {
	origAccess, origRefresh := accessTTL, refreshTTL
	defer func() { accessTTL, refreshTTL = origAccess, origRefresh }()

	accessTTL = -time.Minute
	pair, err := GeneratePair(9)
	require.NoError(t, err)

	_, err = ParseAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
}
