// internal/reminder/templates_test.go
package reminder

import (
	"context"
	"errors"
	"strings"
	"testing"

	"docflow-workers/internal/common/logger"

	"github.com/stretchr/testify/assert"
)

// ==========================
// Test Helper Functions
// ==========================

type stubTemplateSource struct {
	templates map[Level]string
	err       error
}

func (s *stubTemplateSource) LoadTemplates(_ context.Context) (map[Level]string, error) {
	return s.templates, s.err
}

// ==========================
// Template Tests
// ==========================

func TestDefaultTemplatesCoverEveryLevel(t *testing.T) {
	defaults := DefaultTemplates()

	for _, level := range KnownLevels() {
		text, ok := defaults[level]
		assert.True(t, ok, "missing default template for level %s", level)
		assert.NotEmpty(t, strings.TrimSpace(text))
		assert.Contains(t, text, tokenFormLink, "template for %s must carry the form link", level)
	}
	assert.Len(t, defaults, len(KnownLevels()))
}

func TestLoadTemplates_StoredOverridesDefaults(t *testing.T) {
	src := &stubTemplateSource{templates: map[Level]string{
		LevelFirst: "Custom nudge for {customerName}: {formLink}",
	}}

	tmpl := LoadTemplates(context.Background(), src, logger.NewTestLogger(t))

	assert.Equal(t, "Custom nudge for {customerName}: {formLink}", tmpl.ForLevel(LevelFirst))
	assert.Equal(t, DefaultTemplates()[LevelSecond], tmpl.ForLevel(LevelSecond))
}

func TestLoadTemplates_BlankStoredTemplateFallsBack(t *testing.T) {
	src := &stubTemplateSource{templates: map[Level]string{
		LevelSecond: "   ",
	}}

	tmpl := LoadTemplates(context.Background(), src, logger.NewTestLogger(t))

	assert.Equal(t, DefaultTemplates()[LevelSecond], tmpl.ForLevel(LevelSecond))
}

func TestLoadTemplates_UnreadableSourceFallsBack(t *testing.T) {
	src := &stubTemplateSource{err: errors.New("connection refused")}

	tmpl := LoadTemplates(context.Background(), src, logger.NewTestLogger(t))

	for _, level := range KnownLevels() {
		assert.Equal(t, DefaultTemplates()[level], tmpl.ForLevel(level))
	}
}

func TestLoadTemplates_UnknownLevelIgnored(t *testing.T) {
	src := &stubTemplateSource{templates: map[Level]string{
		Level("fifth_week"): "never used",
	}}

	tmpl := LoadTemplates(context.Background(), src, logger.NewTestLogger(t))

	assert.Empty(t, tmpl.ForLevel(Level("fifth_week")))
}

func TestRenderTemplate(t *testing.T) {
	tmpl := "Hi {customerName}, {formLabel} needs documents: {formLink}. Again: {formLink}"

	out := RenderTemplate(tmpl, "Dana Petrov", "Mortgage Application", "https://dfl.io/x1")

	assert.Equal(t, "Hi Dana Petrov, Mortgage Application needs documents: https://dfl.io/x1. Again: https://dfl.io/x1", out)
}

func TestRenderTemplate_MissingValuesLeaveNoTokens(t *testing.T) {
	out := RenderTemplate(DefaultTemplates()[LevelFirst], "", "KYC", "https://dfl.io/x2")

	assert.NotContains(t, out, tokenCustomerName)
	assert.NotContains(t, out, tokenFormLabel)
	assert.NotContains(t, out, tokenFormLink)
}
