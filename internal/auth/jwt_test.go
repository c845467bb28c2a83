package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func Test_Token_Roundtrip(t *testing.T) {
	req := require.New(t)
	userID, agencyID := uuid.New(), uuid.New()

	token, err := GenerateToken(userID, agencyID, "alice@example.com", "Alice", testSecret, time.Hour)
	req.NoError(err)

	claims, err := ParseToken(token, testSecret)
	req.NoError(err)
	req.Equal(userID, claims.UserID)
	req.Equal(agencyID, claims.AgencyID)
	req.Equal("alice@example.com", claims.Email)
	req.Equal("Alice", claims.DisplayName)
}

func Test_Token_Rejects_Wrong_Secret(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken(uuid.New(), uuid.New(), "alice@example.com", "Alice", testSecret, time.Hour)
	req.NoError(err)

	_, err = ParseToken(token, "other-secret")
	req.Error(err)
}

func Test_Token_Rejects_Expired(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken(uuid.New(), uuid.New(), "alice@example.com", "Alice", testSecret, -time.Minute)
	req.NoError(err)

	_, err = ParseToken(token, testSecret)
	req.Error(err)
}
