package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/kimhsiao/fragmind/internal/diary"
	"github.com/kimhsiao/fragmind/internal/models"
	"github.com/kimhsiao/fragmind/internal/todo"
)

// Journal is everything recorded for one day.
type Journal struct {
	Date      string
	Summary   string
	Fragments []*models.Fragment
	Todos     []todo.BoardItem
}

// RenderMarkdown renders a journal. Sections without content are omitted.
func RenderMarkdown(j *Journal) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n", todo.DayLabel(j.Date))

	if j.Summary != "" {
		buf.WriteString("\n## Summary\n\n")
		buf.WriteString(strings.TrimSpace(j.Summary))
		buf.WriteString("\n")
	}

	if len(j.Fragments) > 0 {
		buf.WriteString("\n## Notes\n\n")
		for _, f := range j.Fragments {
			fmt.Fprintf(&buf, "- **%s** %s\n", f.Clock(), indent(f.Content))
		}
	}

	if len(j.Todos) > 0 {
		buf.WriteString("\n## Todos\n\n")
		for _, bi := range j.Todos {
			box := " "
			if bi.Item.Completed {
				box = "x"
			}
			fmt.Fprintf(&buf, "- [%s] %s", box, bi.Item.Title)
			if bi.TimeLabel != "" {
				fmt.Fprintf(&buf, " (%s)", bi.TimeLabel)
			}
			buf.WriteString("\n")
		}
	}

	if j.Summary == "" && len(j.Fragments) == 0 && len(j.Todos) == 0 {
		fmt.Fprintf(&buf, "\n%s\n", diary.NothingRecorded)
	}
	return buf.Bytes()
}

// indent keeps multi-line content inside its list item.
func indent(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "\n", "\n  ")
}
