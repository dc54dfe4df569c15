package utils

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Kariqs/megano-api/models"
	"github.com/golang-jwt/jwt/v5"
)

const TokenLifetime = 30 * 24 * time.Hour

func jwtSecret() []byte {
	return []byte(os.Getenv("JWT_SECRET"))
}

func GenerateJWT(user models.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"email":    user.Email,
		"username": user.Username,
		"role":     user.Role,
		"iat":      time.Now().Unix(),
		"exp":      time.Now().Add(TokenLifetime).Unix(),
	})
	return token.SignedString(jwtSecret())
}

// ParseJWT verifies an HS256 token and returns its claims.
func ParseJWT(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		return jwtSecret(), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// ClaimUserID reads the numeric user id claim. JSON numbers decode as float64.
func ClaimUserID(claims jwt.MapClaims) (uint, bool) {
	id, ok := claims["user_id"].(float64)
	if !ok || id <= 0 {
		return 0, false
	}
	return uint(id), true
}
