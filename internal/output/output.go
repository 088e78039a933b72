// Package output provides consistent CLI output formatting: status lines,
// contact tables, and JSON for scripts.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Aman-CERP/addressbook/internal/contact"
)

// Writer provides formatted output for CLI.
type Writer struct {
	out      io.Writer
	useColor bool
	styles   Styles
}

// New creates a new output Writer.
// Color is enabled only when out is a terminal and NO_COLOR is unset.
func New(out io.Writer) *Writer {
	useColor := IsTTY(out) && !DetectNoColor()
	return &Writer{
		out:      out,
		useColor: useColor,
		styles:   GetStyles(!useColor),
	}
}

// Status prints a status message with an icon.
// Errors from writing are intentionally ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Statusf prints a formatted status message with an icon.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Success prints a success message with checkmark.
func (w *Writer) Success(msg string) {
	w.Status("✅", w.styles.Success.Render(msg))
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status("⚠️ ", w.styles.Warning.Render(msg))
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.Status("❌", w.styles.Error.Render(msg))
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Header prints a bold section title.
func (w *Writer) Header(title string) {
	_, _ = fmt.Fprintln(w.out, w.styles.Header.Render(title))
}

// Code prints a block with indentation.
func (w *Writer) Code(content string) {
	_, _ = fmt.Fprintln(w.out)
	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		_, _ = fmt.Fprintf(w.out, "  %s\n", line)
	}
	_, _ = fmt.Fprintln(w.out)
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}

// JSON writes v as indented JSON followed by a newline.
func (w *Writer) JSON(v any) error {
	enc := json.NewEncoder(w.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Contacts prints contacts as an aligned table.
func (w *Writer) Contacts(contacts []contact.Contact) {
	if len(contacts) == 0 {
		w.Status("", w.styles.Dim.Render("No contacts."))
		return
	}
	_, _ = fmt.Fprint(w.out, renderTable(contacts, w.styles))
}

// Duplicates prints each duplicate group under a numbered heading.
func (w *Writer) Duplicates(groups [][]contact.Contact) {
	if len(groups) == 0 {
		w.Success("No duplicates found")
		return
	}
	for i, group := range groups {
		w.Header(fmt.Sprintf("Group %d (%d contacts)", i+1, len(group)))
		_, _ = fmt.Fprint(w.out, renderTable(group, w.styles))
		if i < len(groups)-1 {
			w.Newline()
		}
	}
}

var tableColumns = []string{"ID", "NAME", "PHONE", "EMAIL"}

// renderTable lays contacts out in left-aligned columns.
// Widths are measured before styling so ANSI codes never skew alignment.
func renderTable(contacts []contact.Contact, styles Styles) string {
	rows := make([][]string, 0, len(contacts))
	for _, c := range contacts {
		rows = append(rows, []string{c.ID, c.Name, orDash(c.Phone), orDash(c.Email)})
	}

	widths := make([]int, len(tableColumns))
	for i, h := range tableColumns {
		widths[i] = len([]rune(h))
	}
	for _, row := range rows {
		for i, cell := range row {
			if n := len([]rune(cell)); n > widths[i] {
				widths[i] = n
			}
		}
	}

	var b strings.Builder
	writeRow(&b, tableColumns, widths, func(_ int, s string) string { return styles.Label.Render(s) })
	for _, row := range rows {
		writeRow(&b, row, widths, func(i int, s string) string {
			if i == 0 {
				return styles.ID.Render(s)
			}
			return s
		})
	}
	return b.String()
}

func writeRow(b *strings.Builder, cells []string, widths []int, style func(int, string) string) {
	for i, cell := range cells {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(style(i, cell))
		if i < len(cells)-1 {
			b.WriteString(strings.Repeat(" ", widths[i]-len([]rune(cell))))
		}
	}
	b.WriteByte('\n')
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
