package analysis

import (
	"strings"
)

// Context sections are bounded; facts and the text to extract from never are.
const (
	maxStyleReferenceRunes = 4000
	maxActiveTitles        = 100
)

const summarySystemPrompt = "You are the reflection assistant of FragMind. " +
	"You turn the short notes a person wrote during one day into a single diary entry."

const extractionSystemPrompt = "You are the todo assistant of FragMind. " +
	"You extract every todo, plan, appointment, activity and scheduled event from a person's notes.\n" +
	"Rules:\n" +
	"1. Casual plans count: going out to eat, watching a film or meeting a friend are todos.\n" +
	"2. When a time is mentioned (\"tonight at eight\", \"tomorrow afternoon\"), resolve it to a concrete due_date.\n" +
	"3. Do not repeat todos that already exist.\n" +
	"Respond with JSON only: {\"items\": [{\"title\": \"short title\", \"due_date\": \"YYYY-MM-DDTHH:MM:SS\" or null}]}"

const summaryPrinciples = `Follow these principles:
1. Keep the writer's own feelings and opinions. Do not exaggerate or invent.
2. Write in the first person, restrained and natural, ordered by time or by theme.
3. Do not diagnose or lecture. Keep a gentle, self-reflective voice.
4. Merge repeated or similar notes instead of restating them.
`

// buildSummaryPrompt renders the user prompt. The style reference and the
// facts are emitted as separate, labelled sections.
func buildSummaryPrompt(req SummaryRequest) string {
	var b strings.Builder

	b.WriteString("Turn the notes written on ")
	b.WriteString(req.Date)
	b.WriteString(" into one fluent, coherent diary entry.\n\n")
	b.WriteString(summaryPrinciples)

	if d := strings.TrimSpace(req.StyleDirective); d != "" {
		b.WriteString("\nAdditional instruction from the writer:\n")
		b.WriteString(d)
		b.WriteString("\nHonor it while keeping the principles above.\n")
	}

	facts := renderFacts(req.Facts)
	if req.Rewrite() {
		b.WriteString("\n5. Rewrite mode. The writer may have edited or deleted some notes. ")
		b.WriteString("Use the NOTES section as the only source of facts. ")
		b.WriteString("The REFERENCE DIARY shows tone and style only: never keep anything from it that is absent from NOTES.\n")
		b.WriteString("\nREFERENCE DIARY (style only, not a source of facts):\n")
		b.WriteString(truncateRunes(req.StyleReference, maxStyleReferenceRunes))
		b.WriteString("\n\nNOTES (the only source of facts):\n")
		b.WriteString(facts)
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString("\nNOTES:\n")
	b.WriteString(facts)
	b.WriteString("\n")
	return b.String()
}

func renderFacts(facts []FactLine) string {
	lines := make([]string, len(facts))
	for i, f := range facts {
		lines[i] = f.String()
	}
	return strings.Join(lines, "\n\n")
}

// buildExtractionPrompt renders the user prompt for todo extraction.
func buildExtractionPrompt(req ExtractionRequest) string {
	var b strings.Builder
	if req.DateContext != "" {
		b.WriteString(req.DateContext)
		b.WriteString("\n")
	}
	if len(req.ActiveTitles) > 0 {
		b.WriteString("Todos that already exist (context only, do not return them again):\n")
		titles := req.ActiveTitles
		if len(titles) > maxActiveTitles {
			titles = titles[:maxActiveTitles]
		}
		for _, t := range titles {
			b.WriteString("- ")
			b.WriteString(t)
			b.WriteString("\n")
		}
	}
	b.WriteString("Extract the todos from the following text:\n")
	b.WriteString(req.Text)
	return b.String()
}
