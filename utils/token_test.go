package utils

import (
	"testing"
	"time"

	"github.com/Kariqs/megano-api/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestGenerateAndParseJWT(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	user := models.User{Model: gorm.Model{ID: 42}, Username: "ann", Role: models.RoleAdmin}

	token, err := GenerateJWT(user)
	require.NoError(t, err)

	claims, err := ParseJWT(token)
	require.NoError(t, err)
	id, ok := ClaimUserID(claims)
	assert.True(t, ok)
	assert.Equal(t, uint(42), id)
	assert.Equal(t, models.RoleAdmin, claims["role"])
}

func TestParseJWTRejectsWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "one")
	token, err := GenerateJWT(models.User{Model: gorm.Model{ID: 1}})
	require.NoError(t, err)

	t.Setenv("JWT_SECRET", "two")
	_, err = ParseJWT(token)
	assert.Error(t, err)
}

func TestParseJWTRejectsExpiredToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 1,
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = ParseJWT(signed)
	assert.Error(t, err)
}

func TestObjectKeyKeepsExtension(t *testing.T) {
	key := ObjectKey("avatars", "Me.PNG")
	assert.Regexp(t, `^avatars/\d{14}-[0-9a-f-]{36}\.png$`, key)
}
