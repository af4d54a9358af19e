package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/streck/internal/models"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testUser() *models.User {
	return &models.User{
		ID:         7,
		ExternalID: "6f1c3b0e-8f1e-4a4e-9c57-3a3d1c7a0001",
		GroupID:    3,
	}
}

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager(testSecret, "streck", time.Hour)

	token, err := m.Generate(testUser())
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, int64(3), claims.GroupID)
	assert.Equal(t, "streck", claims.Issuer)
	assert.Equal(t, testUser().ExternalID, claims.Subject)
}

func TestJWTManager_Rejects(t *testing.T) {
	m := NewJWTManager(testSecret, "streck", time.Hour)
	valid, err := m.Generate(testUser())
	require.NoError(t, err)

	otherSecret, err := NewJWTManager("ffffffffffffffffffffffffffffffff", "streck", time.Hour).Generate(testUser())
	require.NoError(t, err)

	otherIssuer, err := NewJWTManager(testSecret, "someone-else", time.Hour).Generate(testUser())
	require.NoError(t, err)

	expiring := NewJWTManager(testSecret, "streck", time.Hour)
	expiring.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := expiring.Generate(testUser())
	require.NoError(t, err)

	noGroup, err := m.Generate(&models.User{ID: 1})
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: 7, GroupID: 3}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"tampered", valid + "x"},
		{"other secret", otherSecret},
		{"other issuer", otherIssuer},
		{"expired", expired},
		{"missing group", noGroup},
		{"unsigned", unsigned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Validate(tt.token)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidToken))
		})
	}
}
