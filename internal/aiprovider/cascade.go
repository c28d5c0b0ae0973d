// Package aiprovider runs the abuse-classification cascade: configured
// backends are tried in priority order, each failure is classified and
// recorded in the daily usage ledger, and the first successful score wins.
package aiprovider

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/twuijri/Vex/internal/models"
)

// Classifier scores one text on a single backend. Implementations exist per
// models.ProviderKind.
type Classifier interface {
	ClassifyText(ctx context.Context, text string) (float64, error)
}

// Ledger is the persistent per-provider, per-day usage tracker.
type Ledger interface {
	Record(ctx context.Context, providerKey, status, lastError string) error
	IsExhausted(ctx context.Context, providerKey string, dailyLimit int) (bool, error)
}

// ProviderSource yields active providers in cascade order.
type ProviderSource interface {
	ListActive(ctx context.Context) ([]models.Provider, error)
}

// PromptSource supplies the operator's custom classification prompt, if any.
type PromptSource interface {
	PromptOverride(ctx context.Context) (string, error)
}

// Daily quota safety limits per backend kind. Conservative margins: a few
// under-counted requests from racing pipeline runs stay inside them.
var dailyLimits = map[models.ProviderKind]int{
	models.ProviderGoogleStudio: 1450,
	models.ProviderBlackbox:     99999, // No known hard limit; bounded by credit balance
	models.ProviderHuggingFace:  99999,
}

const defaultDailyLimit = 99999

// callTimeout bounds one backend call so the cascade always terminates.
const callTimeout = 30 * time.Second

// Cascade coordinates the provider failover chain.
type Cascade struct {
	providers ProviderSource
	ledger    Ledger
	prompts   PromptSource
	factory   func(p models.Provider, prompts PromptSource, logger *zap.Logger) (Classifier, error)
	logger    *zap.Logger
}

func NewCascade(providers ProviderSource, ledger Ledger, prompts PromptSource, logger *zap.Logger) *Cascade {
	return &Cascade{
		providers: providers,
		ledger:    ledger,
		prompts:   prompts,
		factory:   NewClassifier,
		logger:    logger,
	}
}

// Analyze returns the abuse probability of text in [0.0, 1.0].
//
// Providers are attempted in priority order; a provider whose ledger entry
// shows today's quota exhausted is skipped without a call. The first
// successful score is returned and no further providers are tried. When every
// provider is skipped or fails, Analyze returns 0.0: moderation is advisory,
// a degraded cascade must never block traffic.
func (c *Cascade) Analyze(ctx context.Context, text string) float64 {
	providers, err := c.providers.ListActive(ctx)
	if err != nil {
		c.logger.Error("Failed to load AI providers", zap.Error(err))
		return 0.0
	}
	if len(providers) == 0 {
		c.logger.Warn("No active AI providers configured")
		return 0.0
	}

	for _, p := range providers {
		key := p.Key()
		limit, ok := dailyLimits[p.Kind]
		if !ok {
			limit = defaultDailyLimit
		}

		exhausted, err := c.ledger.IsExhausted(ctx, key, limit)
		if err != nil {
			c.logger.Error("Ledger lookup failed", zap.String("provider", p.Name), zap.Error(err))
		} else if exhausted {
			c.logger.Info("Provider daily quota exhausted, skipping", zap.String("provider", p.Name))
			continue
		}

		classifier, err := c.factory(p, c.prompts, c.logger)
		if err != nil {
			c.logger.Error("Failed to build classifier", zap.String("provider", p.Name), zap.Error(err))
			c.record(ctx, key, models.StatusError, err.Error())
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, callTimeout)
		score, err := classifier.ClassifyText(callCtx, text)
		cancel()

		if err == nil {
			c.record(ctx, key, models.StatusOK, "")
			score = clamp(score)
			c.logger.Info("Provider returned score",
				zap.String("provider", p.Name),
				zap.Float64("score", score))
			return score
		}

		switch classifyError(p.Kind, err) {
		case errPermanent:
			// Bad credential or missing resource; never self-heals today,
			// but one bad provider must not degrade the rest of the chain.
			c.logger.Error("Provider permanent error",
				zap.String("provider", p.Name), zap.Error(err))
			c.record(ctx, key, models.StatusError, "[PERMANENT] "+err.Error())
		case errDailyQuota:
			c.logger.Warn("Provider daily quota hit",
				zap.String("provider", p.Name), zap.Error(err))
			c.record(ctx, key, models.StatusRateLimitDay, err.Error())
		case errMinuteRate:
			// No backoff: the next provider in the chain is the retry.
			c.logger.Warn("Provider minute rate limit, trying next",
				zap.String("provider", p.Name), zap.Error(err))
			c.record(ctx, key, models.StatusRateLimitMinute, err.Error())
		default:
			c.logger.Error("Provider error",
				zap.String("provider", p.Name), zap.Error(err))
			c.record(ctx, key, models.StatusError, err.Error())
		}
	}

	c.logger.Warn("All AI providers exhausted or failed, returning 0.0")
	return 0.0
}

func (c *Cascade) record(ctx context.Context, key, status, errText string) {
	if err := c.ledger.Record(ctx, key, status, errText); err != nil {
		c.logger.Error("Failed to record provider usage",
			zap.String("provider_key", key), zap.Error(err))
	}
}

func clamp(score float64) float64 {
	if score < 0.0 {
		return 0.0
	}
	if score > 1.0 {
		return 1.0
	}
	return score
}
