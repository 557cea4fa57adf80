package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokenManager_Generate_And_Validate(t *testing.T) {
	req := require.New(t)
	tokens := NewTokenManager("secret", time.Hour)

	token, err := tokens.Generate("user-42", []string{"user"})
	req.NoError(err)

	claims, err := tokens.Validate(token)
	req.NoError(err)
	req.Equal("user-42", claims.UserID)
	req.Equal([]string{"user"}, claims.Roles)
	req.Equal("estate-chat", claims.Issuer)
}

func TestTokenManager_Rejects_Wrong_Secret(t *testing.T) {
	req := require.New(t)

	token, err := NewTokenManager("secret", time.Hour).Generate("user-42", nil)
	req.NoError(err)

	_, err = NewTokenManager("other-secret", time.Hour).Validate(token)
	req.Error(err)
}

func TestTokenManager_Rejects_Expired_Token(t *testing.T) {
	req := require.New(t)
	tokens := NewTokenManager("secret", -time.Minute)

	token, err := tokens.Generate("user-42", nil)
	req.NoError(err)

	_, err = tokens.Validate(token)
	req.Error(err)
}
