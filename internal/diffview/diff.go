// Package diffview renders a line-level diff between the original
// document and the resolved output, for the --diff flag.
package diffview

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sergi/go-diff/diffmatchpatch"
)

var (
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// Render produces a unified-style line diff from before to after.
// Unchanged lines are prefixed with two spaces, removals with "- " and
// additions with "+ ". Colors apply only when the terminal supports
// them; lipgloss degrades to plain text otherwise.
func Render(before, after string) string {
	dmp := diffmatchpatch.New()

	// Line-mode diff: map lines to runes, diff, then map back.
	beforeChars, afterChars, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(beforeChars, afterChars, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var b strings.Builder
	for _, d := range diffs {
		for _, line := range splitLines(d.Text) {
			switch d.Type {
			case diffmatchpatch.DiffDelete:
				b.WriteString(removedStyle.Render("- " + line))
			case diffmatchpatch.DiffInsert:
				b.WriteString(addedStyle.Render("+ " + line))
			case diffmatchpatch.DiffEqual:
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// splitLines splits text into lines without a trailing empty entry.
func splitLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
