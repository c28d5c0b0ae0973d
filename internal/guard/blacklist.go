package guard

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/twuijri/Vex/internal/normalize"
)

// GlobalBlacklist applies to every managed group.
//
// Deliberately empty: blocked words are curated per group from the
// dashboard. A word like "كلب" may be perfectly normal in a pet-owners
// group, so nothing is banned globally.
var GlobalBlacklist = []string{}

// WordStore reads a group's word lists. Lists are fetched fresh on every
// message so an admin edit takes effect immediately.
type WordStore interface {
	ListBlockedWords(ctx context.Context, telegramGroupID int64) ([]string, error)
	ListAllowedWords(ctx context.Context, telegramGroupID int64) ([]string, error)
}

// Matcher checks normalized text against the global and per-group blacklists.
type Matcher struct {
	words  WordStore
	logger *zap.Logger
}

func NewMatcher(words WordStore, logger *zap.Logger) *Matcher {
	return &Matcher{words: words, logger: logger}
}

// Matches reports whether normalizedText contains a blocked term. The
// whitelist wins over the blocked list; the global list is checked before the
// group list; the first hit short-circuits.
func (m *Matcher) Matches(ctx context.Context, normalizedText string, telegramGroupID int64) (bool, error) {
	text := strings.ToLower(normalizedText)

	allowed, err := m.words.ListAllowedWords(ctx, telegramGroupID)
	if err != nil {
		return false, err
	}
	for _, word := range allowed {
		if term := normalize.Normalize(strings.ToLower(word)); term != "" && strings.Contains(text, term) {
			return false, nil
		}
	}

	for _, word := range GlobalBlacklist {
		if term := normalize.Normalize(strings.ToLower(word)); term != "" && strings.Contains(text, term) {
			return true, nil
		}
	}

	blocked, err := m.words.ListBlockedWords(ctx, telegramGroupID)
	if err != nil {
		return false, err
	}
	for _, word := range blocked {
		if term := normalize.Normalize(strings.ToLower(word)); term != "" && strings.Contains(text, term) {
			return true, nil
		}
	}

	return false, nil
}
