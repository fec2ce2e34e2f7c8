package invitecode_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/soulstices/activityhub/pkg/invitecode"
)

func TestGenerate_Format(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := invitecode.Generate()
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if len(code) != invitecode.Length {
			t.Fatalf("code length: got %d, want %d", len(code), invitecode.Length)
		}
		for _, c := range code {
			if !strings.ContainsRune("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789", c) {
				t.Fatalf("code %q contains character outside the alphabet", code)
			}
		}
	}
}

func TestGenerateUnique_RetriesOnCollision(t *testing.T) {
	collisions := 3
	var attempts int

	code, err := invitecode.GenerateUnique(func(string) (bool, error) {
		attempts++
		return attempts <= collisions, nil
	})
	if err != nil {
		t.Fatalf("GenerateUnique failed: %v", err)
	}
	if code == "" {
		t.Error("expected a code after retries")
	}
	if attempts != collisions+1 {
		t.Errorf("attempts: got %d, want %d", attempts, collisions+1)
	}
}

func TestGenerateUnique_Exhaustion(t *testing.T) {
	_, err := invitecode.GenerateUnique(func(string) (bool, error) {
		return true, nil // everything is taken
	})
	if !errors.Is(err, invitecode.ErrExhausted) {
		t.Errorf("err: got %v, want %v", err, invitecode.ErrExhausted)
	}
}

func TestGenerateUnique_PropagatesStoreError(t *testing.T) {
	storeErr := errors.New("connection refused")
	_, err := invitecode.GenerateUnique(func(string) (bool, error) {
		return false, storeErr
	})
	if !errors.Is(err, storeErr) {
		t.Errorf("err: got %v, want %v", err, storeErr)
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		stored, provided string
		want             bool
	}{
		{"AB12CD34", "AB12CD34", true},
		{"AB12CD34", "ab12cd34", true},
		{"AB12CD34", "Ab12Cd34", true},
		{"AB12CD34", "ZZ99ZZ99", false},
		{"AB12CD34", "", false},
		{"", "", false}, // no stored code never matches
		{"", "ANYTHING", false},
	}

	for _, tt := range tests {
		if got := invitecode.Matches(tt.stored, tt.provided); got != tt.want {
			t.Errorf("Matches(%q, %q): got %v, want %v", tt.stored, tt.provided, got, tt.want)
		}
	}
}
