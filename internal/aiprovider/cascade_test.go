package aiprovider

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/twuijri/Vex/internal/models"
)

type fakeProviders struct {
	providers []models.Provider
	err       error
}

func (f *fakeProviders) ListActive(ctx context.Context) ([]models.Provider, error) {
	return f.providers, f.err
}

type ledgerEntry struct {
	count     int
	status    string
	lastError string
}

type fakeLedger struct {
	mu        sync.Mutex
	entries   map[string]*ledgerEntry
	exhausted map[string]bool
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		entries:   make(map[string]*ledgerEntry),
		exhausted: make(map[string]bool),
	}
}

func (f *fakeLedger) Record(ctx context.Context, providerKey, status, lastError string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[providerKey]
	if !ok {
		e = &ledgerEntry{}
		f.entries[providerKey] = e
	}
	e.count++
	e.status = status
	e.lastError = lastError
	return nil
}

func (f *fakeLedger) IsExhausted(ctx context.Context, providerKey string, dailyLimit int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.exhausted[providerKey] {
		return true, nil
	}
	if e, ok := f.entries[providerKey]; ok {
		if e.status == models.StatusRateLimitDay {
			return true, nil
		}
		return e.count >= dailyLimit, nil
	}
	return false, nil
}

type fakePrompts struct{}

func (fakePrompts) PromptOverride(ctx context.Context) (string, error) { return "", nil }

type scriptedClassifier struct {
	score float64
	err   error
	calls *int
}

func (s scriptedClassifier) ClassifyText(ctx context.Context, text string) (float64, error) {
	if s.calls != nil {
		*s.calls++
	}
	return s.score, s.err
}

func provider(id int64, kind models.ProviderKind, name string, priority int) models.Provider {
	return models.Provider{ID: id, Name: name, Kind: kind, Priority: priority, IsActive: true}
}

func newTestCascade(providers []models.Provider, ledger *fakeLedger, results map[int64]scriptedClassifier) *Cascade {
	c := NewCascade(&fakeProviders{providers: providers}, ledger, fakePrompts{}, zap.NewNop())
	c.factory = func(p models.Provider, prompts PromptSource, logger *zap.Logger) (Classifier, error) {
		return results[p.ID], nil
	}
	return c
}

func TestCascadeFirstSuccessWins(t *testing.T) {
	providers := []models.Provider{
		provider(1, models.ProviderGoogleStudio, "primary", 0),
		provider(2, models.ProviderBlackbox, "fallback", 1),
		provider(3, models.ProviderHuggingFace, "last", 2),
	}
	ledger := newFakeLedger()
	thirdCalls := 0
	c := newTestCascade(providers, ledger, map[int64]scriptedClassifier{
		1: {err: errors.New("429 RESOURCE_EXHAUSTED: You exceeded your current quota")},
		2: {err: errors.New("429 rate limit exceeded, too many requests")},
		3: {score: 0.9, calls: &thirdCalls},
	})

	score := c.Analyze(context.Background(), "نص")
	if score != 0.9 {
		t.Fatalf("Analyze = %v, want 0.9", score)
	}
	if thirdCalls != 1 {
		t.Errorf("third provider called %d times, want 1", thirdCalls)
	}

	if got := ledger.entries[providers[0].Key()].status; got != models.StatusRateLimitDay {
		t.Errorf("first provider status = %q, want %q", got, models.StatusRateLimitDay)
	}
	if got := ledger.entries[providers[1].Key()].status; got != models.StatusRateLimitMinute {
		t.Errorf("second provider status = %q, want %q", got, models.StatusRateLimitMinute)
	}
	if got := ledger.entries[providers[2].Key()].status; got != models.StatusOK {
		t.Errorf("third provider status = %q, want %q", got, models.StatusOK)
	}
}

func TestCascadeSkipsExhaustedProviderWithoutCalling(t *testing.T) {
	providers := []models.Provider{
		provider(1, models.ProviderGoogleStudio, "primary", 0),
		provider(2, models.ProviderBlackbox, "fallback", 1),
	}
	ledger := newFakeLedger()
	ledger.exhausted[providers[0].Key()] = true

	firstCalls, secondCalls := 0, 0
	c := newTestCascade(providers, ledger, map[int64]scriptedClassifier{
		1: {score: 0.1, calls: &firstCalls},
		2: {score: 0.4, calls: &secondCalls},
	})

	score := c.Analyze(context.Background(), "نص")
	if score != 0.4 {
		t.Fatalf("Analyze = %v, want 0.4", score)
	}
	if firstCalls != 0 {
		t.Errorf("exhausted provider was called %d times", firstCalls)
	}
	if secondCalls != 1 {
		t.Errorf("fallback called %d times, want 1", secondCalls)
	}
}

func TestCascadeNoProvidersFailsOpen(t *testing.T) {
	c := NewCascade(&fakeProviders{}, newFakeLedger(), fakePrompts{}, zap.NewNop())
	if score := c.Analyze(context.Background(), "نص"); score != 0.0 {
		t.Errorf("Analyze with no providers = %v, want 0.0", score)
	}
}

func TestCascadeProviderListErrorFailsOpen(t *testing.T) {
	c := NewCascade(&fakeProviders{err: errors.New("db down")}, newFakeLedger(), fakePrompts{}, zap.NewNop())
	if score := c.Analyze(context.Background(), "نص"); score != 0.0 {
		t.Errorf("Analyze with provider load error = %v, want 0.0", score)
	}
}

func TestCascadeAllFailedFailsOpen(t *testing.T) {
	providers := []models.Provider{provider(1, models.ProviderBlackbox, "only", 0)}
	ledger := newFakeLedger()
	c := newTestCascade(providers, ledger, map[int64]scriptedClassifier{
		1: {err: errors.New("connection reset by peer")},
	})

	if score := c.Analyze(context.Background(), "نص"); score != 0.0 {
		t.Errorf("Analyze with all providers failing = %v, want 0.0", score)
	}
	if got := ledger.entries[providers[0].Key()].status; got != models.StatusError {
		t.Errorf("status = %q, want %q", got, models.StatusError)
	}
}

func TestCascadeClampsScore(t *testing.T) {
	providers := []models.Provider{provider(1, models.ProviderBlackbox, "only", 0)}
	c := newTestCascade(providers, newFakeLedger(), map[int64]scriptedClassifier{
		1: {score: 1.7},
	})
	if score := c.Analyze(context.Background(), "نص"); score != 1.0 {
		t.Errorf("Analyze = %v, want clamped 1.0", score)
	}
}

func TestCascadePermanentErrorMarkedAndSkipped(t *testing.T) {
	providers := []models.Provider{
		provider(1, models.ProviderGoogleStudio, "broken", 0),
		provider(2, models.ProviderBlackbox, "fallback", 1),
	}
	ledger := newFakeLedger()
	c := newTestCascade(providers, ledger, map[int64]scriptedClassifier{
		1: {err: errors.New("400 API_KEY_INVALID: API key not valid")},
		2: {score: 0.2},
	})

	if score := c.Analyze(context.Background(), "نص"); score != 0.2 {
		t.Fatalf("Analyze = %v, want 0.2", score)
	}
	entry := ledger.entries[providers[0].Key()]
	if entry.status != models.StatusError {
		t.Errorf("status = %q, want %q", entry.status, models.StatusError)
	}
	if entry.lastError == "" || entry.lastError[:11] != "[PERMANENT]" {
		t.Errorf("last error %q not marked permanent", entry.lastError)
	}
}

func TestCascadeDailyQuotaBlocksNextRun(t *testing.T) {
	providers := []models.Provider{provider(1, models.ProviderGoogleStudio, "primary", 0)}
	ledger := newFakeLedger()
	calls := 0
	c := newTestCascade(providers, ledger, map[int64]scriptedClassifier{
		1: {err: errors.New("429 you exceeded your current quota"), calls: &calls},
	})

	c.Analyze(context.Background(), "نص")
	c.Analyze(context.Background(), "نص")

	if calls != 1 {
		t.Errorf("provider called %d times, want 1 (second run pre-skipped)", calls)
	}
}
