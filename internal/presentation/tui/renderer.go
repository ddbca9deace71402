package tui

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/formwork-dev/formwork/pkg/domain"
)

// NewRenderer returns a function that renders markdown using glamour.
// Outside a TTY (pipes, CI) the markdown passes through untouched.
func NewRenderer() func(string) (string, error) {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return func(markdown string) (string, error) {
			return markdown, nil
		}
	}

	r, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	)

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// ValidationReport formats a validation outcome as markdown: a verdict
// line plus one bullet per message, field errors sorted by path.
func ValidationReport(name string, errs domain.Errors) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", name)
	if errs.IsZero() {
		b.WriteString("**Valid** — no errors.\n")
		return b.String()
	}

	b.WriteString("**Invalid**\n\n")

	paths := make([]string, 0, len(errs.FieldErrors))
	for p := range errs.FieldErrors {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		for _, msg := range errs.FieldErrors[p] {
			fmt.Fprintf(&b, "- `%s`: %s\n", p, msg)
		}
	}
	for _, msg := range errs.FormErrors {
		fmt.Fprintf(&b, "- %s\n", msg)
	}
	return b.String()
}
