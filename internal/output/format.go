// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"listshare/internal/service"
)

const (
	// ListSeparator is the separator line for list sections.
	ListSeparator = "------------"

	// CompletedMark follows the title of a list whose items are all done.
	CompletedMark = "✓"
)

// Printer writes styled output for one theme. Styling is dropped when w is
// not a terminal.
type Printer struct {
	w      io.Writer
	title  lipgloss.Style
	muted  lipgloss.Style
	done   lipgloss.Style
	check  lipgloss.Style
	accent lipgloss.Style
}

// NewPrinter returns a Printer for w using theme's palette.
func NewPrinter(w io.Writer, theme Theme) *Printer {
	r := lipgloss.NewRenderer(w)
	r.SetHasDarkBackground(theme == Dark)
	return &Printer{
		w:      w,
		title:  r.NewStyle().Bold(true),
		muted:  r.NewStyle().Faint(true),
		done:   r.NewStyle().Faint(true).Strikethrough(true),
		check:  r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "28", Dark: "42"}),
		accent: r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "25", Dark: "12"}),
	}
}

// ListLetter returns the letter for the 1-based position n: a..z, then aa, ab.
func ListLetter(n int) string {
	if n < 1 {
		return ""
	}
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('a' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

// ListLine writes one row of the lists overview.
// Format: "{LETTER:>4}  {TITLE}  {DONE}/{TOTAL}[ ✓]\n"
func (p *Printer) ListLine(pos int, l service.List) {
	done := 0
	for _, item := range l.Items {
		if item.Completed {
			done++
		}
	}
	line := fmt.Sprintf("%4s  %s  %s", p.accent.Render(ListLetter(pos)), normalizeListTitle(l.Title),
		p.muted.Render(fmt.Sprintf("%d/%d", done, len(l.Items))))
	if l.AllCompleted() {
		line += " " + p.check.Render(CompletedMark)
	}
	fmt.Fprintln(p.w, line)
}

// ListHeader writes a list section header.
func (p *Printer) ListHeader(pos int, l service.List) {
	title := normalizeListTitle(l.Title)
	if pos > 0 {
		title = ListLetter(pos) + "  " + title
	}
	if l.AllCompleted() {
		title += " " + p.check.Render(CompletedMark)
	}
	fmt.Fprintln(p.w, ListSeparator)
	fmt.Fprintln(p.w, p.title.Render(title))
	fmt.Fprintln(p.w, ListSeparator)
}

// Item writes one item of a list section.
// Format: "    {N:>4}  [ ] {CONTENT}\n"
func (p *Printer) Item(num int, item service.ListItem) {
	box := "[ ]"
	content := normalizeContent(item.Content)
	if item.Completed {
		box = p.check.Render("[x]")
		content = p.done.Render(content)
	}
	fmt.Fprintf(p.w, "    %4d  %s %s\n", num, box, content)
}

// List writes a list header followed by its items.
func (p *Printer) List(pos int, l service.List) {
	p.ListHeader(pos, l)
	if len(l.Items) == 0 {
		fmt.Fprintln(p.w, p.muted.Render("    (no items)"))
		return
	}
	for i, item := range l.Items {
		p.Item(i+1, item)
	}
}

// Muted writes a faint informational line.
func (p *Printer) Muted(format string, args ...any) {
	fmt.Fprintln(p.w, p.muted.Render(fmt.Sprintf(format, args...)))
}

// normalizeContent normalizes item content for display.
// - Empty or whitespace-only content becomes "(empty)"
// - Newlines are replaced with spaces
func normalizeContent(content string) string {
	content = strings.ReplaceAll(content, "\r", " ")
	content = strings.ReplaceAll(content, "\n", " ")
	if strings.TrimSpace(content) == "" {
		return "(empty)"
	}
	return content
}

// normalizeListTitle normalizes a list title for display.
// Empty or whitespace-only titles become "(untitled)".
func normalizeListTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
