package ui

import (
	"fmt"
	"io"
	"strings"
)

// Field is one labelled line of a summary block.
type Field struct {
	Label string
	Value string
}

// PrintSummary writes a titled block of aligned label/value lines, followed
// by extra (such as a change tree) when it is not empty.
func PrintSummary(w io.Writer, title string, fields []Field, extra string) {
	var b strings.Builder
	b.WriteString("\n" + stageStyle.Render(title) + "\n")
	for _, f := range fields {
		if f.Value == "" {
			continue
		}
		b.WriteString("  " + labelStyle.Render(f.Label) + valueStyle.Render(f.Value) + "\n")
	}
	if extra != "" {
		b.WriteString("\n" + extra + "\n")
	}
	fmt.Fprint(w, b.String())
}
