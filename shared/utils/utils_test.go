package utils

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashRejectsEmptyPassword(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)
	hash, err := h.Hash("")
	if !errors.Is(err, ErrEmptyPassword) {
		t.Fatalf("expected ErrEmptyPassword, got %v", err)
	}
	if hash != "" {
		t.Fatalf("expected no hash, got %q", hash)
	}
}

func TestHashAndCheck(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)
	hash, err := h.Hash("glucose-42")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if strings.Contains(hash, "glucose-42") {
		t.Fatal("hash contains plaintext")
	}
	if !h.Check("glucose-42", hash) {
		t.Error("expected matching password to verify")
	}
	if h.Check("glucose-43", hash) {
		t.Error("expected wrong password to fail")
	}

	again, _ := h.Hash("glucose-42")
	if again == hash {
		t.Error("expected salted hashes to differ")
	}
}

func TestNewPasswordHasherDefaultsCost(t *testing.T) {
	if got := NewPasswordHasher(0).Cost; got != bcrypt.DefaultCost {
		t.Errorf("expected default cost %d, got %d", bcrypt.DefaultCost, got)
	}
}

func TestParseUserID(t *testing.T) {
	tests := []struct {
		raw  string
		want int64
		ok   bool
	}{
		{"42", 42, true},
		{"0", 0, false},
		{"-3", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseUserID(tt.raw)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseUserID(%q) = %d, %v; want %d, %v", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}
