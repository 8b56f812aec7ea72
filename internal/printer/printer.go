// Package printer formats classifyctl output.
package printer

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
)

// Out and Err are where the printer writes. Tests swap them.
var (
	Out io.Writer = os.Stdout
	Err io.Writer = os.Stderr
)

// Success prints a green line prefixed with a check mark.
func Success(format string, a ...any) {
	green.Fprintf(Out, "✓ %s\n", fmt.Sprintf(format, a...))
}

// Warning prints a yellow line.
func Warning(format string, a ...any) {
	yellow.Fprintf(Out, "! %s\n", fmt.Sprintf(format, a...))
}

// Step prints a progress line.
func Step(format string, a ...any) {
	cyan.Fprintf(Out, "→ %s\n", fmt.Sprintf(format, a...))
}

// Field prints an aligned "key: value" line.
func Field(key, value string) {
	fmt.Fprintf(Out, "  %-12s %s\n", key+":", value)
}

// Error prints a red title, an explanation and optional suggestions to Err,
// and returns an error carrying only the title.
func Error(title, explanation string, suggestions ...string) error {
	red.Fprintf(Err, "%s\n\n", title)
	if explanation != "" {
		fmt.Fprintf(Err, "%s\n", explanation)
	}
	if len(suggestions) > 0 {
		fmt.Fprintln(Err)
		for _, s := range suggestions {
			fmt.Fprintf(Err, "  %s\n", s)
		}
	}
	return fmt.Errorf("%s", title)
}
