package analysis

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFactLine_String(t *testing.T) {
	assert.Equal(t, "[08:05] woke up early", FactLine{Clock: "08:05", Content: "woke up early"}.String())
}

func TestBuildSummaryPrompt_fresh(t *testing.T) {
	p := buildSummaryPrompt(SummaryRequest{
		Date:  "2024-01-01",
		Facts: []FactLine{{"08:00", "coffee"}, {"12:30", "lunch with Bo"}},
	})

	assert.Contains(t, p, "2024-01-01")
	assert.Contains(t, p, "NOTES:\n[08:00] coffee\n\n[12:30] lunch with Bo")
	assert.NotContains(t, p, "REFERENCE DIARY")
	assert.NotContains(t, p, "Additional instruction")
}

func TestBuildSummaryPrompt_rewriteKeepsStyleSeparate(t *testing.T) {
	prior := "I met Bo and then went swimming."
	p := buildSummaryPrompt(SummaryRequest{
		Date:           "2024-01-01",
		Facts:          []FactLine{{"12:30", "lunch with Bo"}},
		StyleReference: prior,
		StyleDirective: "Keep it under 100 words.",
	})

	ref := strings.Index(p, "REFERENCE DIARY (style only")
	notes := strings.Index(p, "NOTES (the only source of facts)")
	assert.Greater(t, ref, 0)
	assert.Greater(t, notes, ref, "facts follow the style reference in their own section")
	assert.Contains(t, p[ref:notes], prior)
	assert.NotContains(t, p[notes:], prior, "prior summary never appears among the facts")
	assert.Contains(t, p, "Keep it under 100 words.")
	assert.Contains(t, p, "never keep anything from it that is absent from NOTES")
}

func TestBuildExtractionPrompt(t *testing.T) {
	p := buildExtractionPrompt(ExtractionRequest{
		Text:         "movie tomorrow",
		ActiveTitles: []string{"pay rent", "call mom"},
		DateContext:  "Today is 2024-01-01 (Monday).",
	})

	assert.True(t, strings.HasPrefix(p, "Today is 2024-01-01 (Monday).\n"))
	assert.Contains(t, p, "- pay rent\n- call mom\n")
	assert.True(t, strings.HasSuffix(p, "movie tomorrow"))

	bare := buildExtractionPrompt(ExtractionRequest{Text: "x"})
	assert.NotContains(t, bare, "already exist")
}

func TestBuildExtractionPrompt_boundsActiveTitles(t *testing.T) {
	titles := make([]string, maxActiveTitles+20)
	for i := range titles {
		titles[i] = fmt.Sprintf("todo-%03d", i)
	}
	text := strings.Repeat("dinner with Mia on Friday. ", 2000)
	p := buildExtractionPrompt(ExtractionRequest{Text: text, ActiveTitles: titles})

	assert.Contains(t, p, fmt.Sprintf("- todo-%03d\n", maxActiveTitles-1))
	assert.NotContains(t, p, fmt.Sprintf("- todo-%03d\n", maxActiveTitles))
	assert.True(t, strings.HasSuffix(p, text), "text is never cut")
}
