package guard

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

type fakeWordStore struct {
	blocked []string
	allowed []string
}

func (f *fakeWordStore) ListBlockedWords(ctx context.Context, telegramGroupID int64) ([]string, error) {
	return f.blocked, nil
}

func (f *fakeWordStore) ListAllowedWords(ctx context.Context, telegramGroupID int64) ([]string, error) {
	return f.allowed, nil
}

func TestMatcher(t *testing.T) {
	tests := []struct {
		name    string
		blocked []string
		allowed []string
		text    string
		want    bool
	}{
		{
			name: "empty lists never match",
			text: "كلب",
			want: false,
		},
		{
			name:    "blocked word matches as substring",
			blocked: []string{"كلب"},
			text:    "هذا كلب كبير",
			want:    true,
		},
		{
			name:    "blocked term with diacritics matches normalized text",
			blocked: []string{"كَلْب"},
			text:    "كلب",
			want:    true,
		},
		{
			name:    "unrelated blocked word does not match",
			blocked: []string{"قط"},
			text:    "هذا كلب",
			want:    false,
		},
		{
			name:    "allowed word wins over blocked word",
			blocked: []string{"كلب"},
			allowed: []string{"كلب"},
			text:    "صورة كلب جميلة",
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMatcher(&fakeWordStore{blocked: tt.blocked, allowed: tt.allowed}, zap.NewNop())
			got, err := m.Matches(context.Background(), tt.text, 1)
			if err != nil {
				t.Fatalf("Matches returned error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Matches(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestMatcherListEditTakesEffect(t *testing.T) {
	store := &fakeWordStore{}
	m := NewMatcher(store, zap.NewNop())

	hit, err := m.Matches(context.Background(), "كلب", 1)
	if err != nil {
		t.Fatalf("Matches returned error: %v", err)
	}
	if hit {
		t.Fatal("expected no match before the word was added")
	}

	store.blocked = []string{"كلب"}
	hit, err = m.Matches(context.Background(), "كلب", 1)
	if err != nil {
		t.Fatalf("Matches returned error: %v", err)
	}
	if !hit {
		t.Fatal("expected match after the word was added")
	}
}
