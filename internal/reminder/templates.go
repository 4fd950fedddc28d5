// internal/reminder/templates.go
package reminder

import (
	"context"
	"strings"

	"docflow-workers/internal/common/logger"
)

// TemplateSource loads operator-managed templates keyed by escalation level.
type TemplateSource interface {
	LoadTemplates(ctx context.Context) (map[Level]string, error)
}

// Placeholder tokens substituted into every template.
const (
	tokenCustomerName = "{customerName}"
	tokenFormLabel    = "{formLabel}"
	tokenFormLink     = "{formLink}"
)

// DefaultTemplates returns the built-in fallback text. The map is complete
// over KnownLevels; templates_test.go enforces that so an unknown level can
// never silently resolve to empty text.
func DefaultTemplates() map[Level]string {
	return map[Level]string{
		LevelFirstMessage: "Hi {customerName}, to get started we need a few documents from you for {formLabel}. You can upload them here: {formLink}",
		LevelFirst:        "Hi {customerName}, just a quick reminder to upload your documents for {formLabel}: {formLink}",
		LevelSecond:       "Hi {customerName}, we still need your documents for {formLabel}. It only takes a few minutes: {formLink}",
		LevelFirstWeek:    "Hi {customerName}, your {formLabel} is still waiting on documents. Upload them here whenever you're ready: {formLink}",
		LevelSecondWeek:   "Hi {customerName}, a friendly nudge: {formLabel} can't move forward without your documents: {formLink}",
		LevelThirdWeek:    "Hi {customerName}, we'd hate for {formLabel} to stall. Please upload the remaining documents: {formLink}",
		LevelFourthWeek:   "Hi {customerName}, this is a final standing reminder about {formLabel}. Upload your documents here: {formLink}",
	}
}

// Templates resolves a level to its message text, preferring stored templates
// and falling back to the built-in defaults per level.
type Templates struct {
	byLevel map[Level]string
}

// LoadTemplates reads templates from the source. An unreadable store or a
// blank stored template falls back to the default text for that level rather
// than aborting sends.
func LoadTemplates(ctx context.Context, src TemplateSource, log logger.Logger) Templates {
	merged := DefaultTemplates()

	if src != nil {
		stored, err := src.LoadTemplates(ctx)
		if err != nil {
			log.Warn("template store unreadable, using built-in defaults", map[string]interface{}{
				"error": err.Error(),
			})
			return Templates{byLevel: merged}
		}
		for level, text := range stored {
			if strings.TrimSpace(text) == "" {
				continue
			}
			if _, known := merged[level]; !known {
				log.Warn("ignoring template for unknown level", map[string]interface{}{
					"level": string(level),
				})
				continue
			}
			merged[level] = text
		}
	}

	return Templates{byLevel: merged}
}

// ForLevel returns the template text for a level. Levels outside the closed
// set resolve to empty, but ParseLevel upstream makes that unreachable.
func (t Templates) ForLevel(level Level) string {
	return t.byLevel[level]
}

// RenderTemplate substitutes the placeholder tokens into a template.
func RenderTemplate(tmpl, customerName, formLabel, formLink string) string {
	out := strings.ReplaceAll(tmpl, tokenCustomerName, customerName)
	out = strings.ReplaceAll(out, tokenFormLabel, formLabel)
	out = strings.ReplaceAll(out, tokenFormLink, formLink)
	return out
}
