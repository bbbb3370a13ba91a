package controllers

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

func BoolPointer(b bool) *bool {
	return &b
}

func IntPointer(i int) *int {
	return &i
}

func Float64Pointer(u float64) *float64 {
	return &u
}

// truthy mirrors how loosely typed JSON clients treat a field as present.
func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return v != ""
	case bool:
		return v
	case float64:
		return v != 0
	}
	return true
}

func GenerateUserToken(subject string, secret string, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	})
	return token.SignedString([]byte(secret))
}
