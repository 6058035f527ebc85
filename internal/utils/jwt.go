package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// GenerateToken создаёт access-токен сессии (по умолчанию живёт 24 часа).
func GenerateToken(secret string, userID int, isAdmin bool, duration time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  userID,
		"is_admin": isAdmin,
		"exp":      time.Now().Add(duration).Unix(),
		"iat":      time.Now().Unix(), // issued at — доп. уникальность
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken разбирает и проверяет access-токен.
func ParseToken(secret, tokenString string) (userID int, isAdmin bool, err error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return 0, false, errors.New("неверный или просроченный токен")
	}

	id, ok := claims["user_id"].(float64)
	if !ok {
		return 0, false, errors.New("недопустимый payload")
	}
	admin, _ := claims["is_admin"].(bool)
	return int(id), admin, nil
}
