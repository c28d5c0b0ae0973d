package aiprovider

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/twuijri/Vex/internal/models"
)

// NewClassifier builds the backend adapter for one configured provider.
func NewClassifier(p models.Provider, prompts PromptSource, logger *zap.Logger) (Classifier, error) {
	switch p.Kind {
	case models.ProviderGoogleStudio:
		return newGoogleStudioClassifier(p, prompts, logger), nil
	case models.ProviderBlackbox:
		return newBlackboxClassifier(p, prompts, logger), nil
	case models.ProviderHuggingFace:
		return newHuggingFaceClassifier(p, logger), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %s", p.Kind)
	}
}

type errorKind int

const (
	errGeneric errorKind = iota
	errPermanent
	errDailyQuota
	errMinuteRate
)

// taxonomy holds the failure phrases one backend is known to emit. Vendors
// change wording; keeping one taxonomy per backend kind limits the blast
// radius of such a change to that backend.
type taxonomy struct {
	permanent []string
	// daily phrases require a confirm hit too, so a generic error that
	// merely mentions a limit is not misread as daily exhaustion.
	daily   []string
	confirm []string
	minute  []string
}

var baseMinute = []string{"429", "rate_limit", "rate limit", "too many requests"}

var taxonomies = map[models.ProviderKind]taxonomy{
	models.ProviderGoogleStudio: {
		permanent: []string{
			"api_key_invalid", "api key not valid", "invalid api key",
			"permission_denied", "not_found", "404",
		},
		daily: []string{
			"quota exceeded for the day", "daily request quota", "daily quota",
			"you exceeded your current quota",
		},
		confirm: []string{"quota", "1500", "exceeded"},
		minute:  append([]string{"resource_exhausted"}, baseMinute...),
	},
	models.ProviderBlackbox: {
		permanent: []string{
			"invalid api key", "incorrect api key", "unauthorized", "401",
			"not_found", "404",
		},
		daily:   []string{"insufficient_quota", "daily quota", "quota exceeded"},
		confirm: []string{"quota", "exceeded", "billing"},
		minute:  baseMinute,
	},
	models.ProviderHuggingFace: {
		permanent: []string{
			"authorization header is invalid", "invalid token", "unauthorized", "401",
			"not found", "404",
		},
		daily:   []string{"daily quota", "quota exceeded"},
		confirm: []string{"quota", "exceeded"},
		minute:  baseMinute,
	},
}

// classifyError buckets a backend failure by substring-matching the phrases
// that backend is known to return. Unrecognized errors are generic: the
// cascade moves on without pre-skipping the provider for the day.
func classifyError(kind models.ProviderKind, err error) errorKind {
	tx, ok := taxonomies[kind]
	if !ok {
		return errGeneric
	}
	msg := strings.ToLower(err.Error())

	if containsAny(msg, tx.permanent) {
		return errPermanent
	}
	if containsAny(msg, tx.daily) && containsAny(msg, tx.confirm) {
		return errDailyQuota
	}
	if containsAny(msg, tx.minute) {
		return errMinuteRate
	}
	return errGeneric
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// parseScore extracts the decimal abuse score a chat backend was prompted to
// reply with. Some models answer with a comma decimal or trailing prose.
func parseScore(raw string) (float64, error) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty model response")
	}
	score, err := strconv.ParseFloat(strings.Trim(fields[0], "`*"), 64)
	if err != nil {
		return 0, fmt.Errorf("malformed score %q: %w", fields[0], err)
	}
	return clamp(score), nil
}
