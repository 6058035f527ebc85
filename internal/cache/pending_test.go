package cache

import (
	"context"
	"testing"
	"time"

	"palsanalytix/internal/models"
)

func TestMemoryStore_PutGetDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	record := &models.PendingSignup{Identifier: "+911", Code: "123456"}
	if err := store.Put(ctx, "+911", record, time.Minute); err != nil {
		t.Fatalf("ошибка записи: %v", err)
	}

	got, ok, err := store.Get(ctx, "+911")
	if err != nil || !ok {
		t.Fatalf("запись не найдена: %v", err)
	}
	if got.Code != "123456" {
		t.Fatalf("неверная запись: %+v", got)
	}

	if err := store.Delete(ctx, "+911"); err != nil {
		t.Fatalf("ошибка удаления: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "+911"); ok {
		t.Fatal("запись осталась после удаления")
	}
}

func TestMemoryStore_OverwriteSameKey(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_ = store.Put(ctx, "+912", &models.PendingSignup{Code: "111111"}, time.Minute)
	_ = store.Put(ctx, "+912", &models.PendingSignup{Code: "222222"}, time.Minute)

	got, ok, _ := store.Get(ctx, "+912")
	if !ok || got.Code != "222222" {
		t.Fatalf("повторный Put не перекрыл запись: %+v", got)
	}
}

func TestMemoryStore_ExpiredEntryNotReturned(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_ = store.Put(ctx, "+913", &models.PendingSignup{Code: "123456"}, -time.Second)

	if _, ok, _ := store.Get(ctx, "+913"); ok {
		t.Fatal("просроченная запись возвращена")
	}
}

func TestMemoryStore_MissingKey(t *testing.T) {
	store := NewMemoryStore()

	_, ok, err := store.Get(context.Background(), "нет такого")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if ok {
		t.Fatal("найдена несуществующая запись")
	}
}
