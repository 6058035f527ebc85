package utils

import (
	"testing"
	"time"
)

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken("secret", 42, true, time.Hour)
	if err != nil {
		t.Fatalf("ошибка генерации токена: %v", err)
	}

	userID, isAdmin, err := ParseToken("secret", token)
	if err != nil {
		t.Fatalf("ошибка разбора токена: %v", err)
	}
	if userID != 42 || !isAdmin {
		t.Fatalf("неверные claims: userID=%d isAdmin=%v", userID, isAdmin)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, _ := GenerateToken("secret", 42, false, time.Hour)

	if _, _, err := ParseToken("another", token); err == nil {
		t.Fatal("токен с чужим секретом принят")
	}
}

func TestParseToken_Expired(t *testing.T) {
	token, _ := GenerateToken("secret", 42, false, -time.Minute)

	if _, _, err := ParseToken("secret", token); err == nil {
		t.Fatal("просроченный токен принят")
	}
}
