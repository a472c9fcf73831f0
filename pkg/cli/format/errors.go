package format

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rzbill/gcu/pkg/types"
	"golang.org/x/term"
)

// DefaultWidth is used when the output is not a terminal.
const DefaultWidth = 80

// TerminalWidth returns the width of the terminal behind f.
func TerminalWidth(f *os.File) int {
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return DefaultWidth
	}
	return width
}

// WriteError prints err as "Error: <message>". With details set, the
// individual violations of a schema validation or dependency error follow,
// one per line and wrapped to width, plus a note on partially committed
// changes.
func WriteError(w io.Writer, err error, details bool, width int) {
	fmt.Fprintf(w, "%s %s\n", ErrorColor.Sprint("Error:"), err.Error())
	if !details {
		return
	}

	var e *types.Error
	if !errors.As(err, &e) {
		return
	}
	if len(e.Details) > 0 {
		fmt.Fprintln(w, HighlightColor.Sprint(headingFor(e.Kind)))
		for _, d := range e.Details {
			for i, line := range wrap(d, width-4) {
				if i == 0 {
					fmt.Fprintf(w, "  - %s\n", line)
				} else {
					fmt.Fprintf(w, "    %s\n", line)
				}
			}
		}
	}
	if e.Kind == types.KindStoreCommit {
		fmt.Fprintln(w, WarningColor.Sprintf("%d change(s) in namespace %s were committed before the failure and were not reverted",
			e.Committed, types.NamespaceName(e.Namespace)))
	}
}

func headingFor(kind types.ErrorKind) string {
	switch kind {
	case types.KindSchemaValidation:
		return "Violations:"
	case types.KindUnresolvableDependency:
		return "Dependency cycle:"
	default:
		return "Details:"
	}
}

// wrap splits s into lines of at most width runes, breaking on spaces.
// Words longer than width are kept whole.
func wrap(s string, width int) []string {
	if width < 20 {
		width = 20
	}
	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{s}
	}
	var lines []string
	line := words[0]
	for _, word := range words[1:] {
		if len([]rune(line))+1+len([]rune(word)) > width {
			lines = append(lines, line)
			line = word
			continue
		}
		line += " " + word
	}
	return append(lines, line)
}
