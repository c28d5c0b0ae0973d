package aiprovider

import (
	"context"
	"strings"
)

// defaultPrompt instructs chat backends to reply with a bare decimal score.
const defaultPrompt = "أنت نظام كشف المحتوى المسيء في مجموعات التيليجرام. " +
	"قيّم الرسالة التالية على مقياس من 0.0 إلى 1.0 حيث:\n" +
	"- 0.0 = رسالة طبيعية تماماً\n" +
	"- 1.0 = رسالة مسيئة جداً (شتم، تحرش، محتوى ضار)\n\n" +
	"الرسالة: «{text}»\n\n" +
	"أجب برقم عشري فقط بين 0.0 و 1.0، لا شيء آخر."

const maxPromptText = 500

// buildPrompt renders the classification prompt, preferring the operator's
// dashboard override when one is configured.
func buildPrompt(ctx context.Context, prompts PromptSource, text string) string {
	template := defaultPrompt
	if prompts != nil {
		if custom, err := prompts.PromptOverride(ctx); err == nil && custom != "" {
			template = custom
		}
	}
	runes := []rune(text)
	if len(runes) > maxPromptText {
		text = string(runes[:maxPromptText])
	}
	return strings.ReplaceAll(template, "{text}", text)
}
