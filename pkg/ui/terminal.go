// Package ui renders the crawl report on the terminal and raises desktop notifications.
package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Rule separates the sections of the console report
var Rule = strings.Repeat("=", 70)

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		return fmt.Sprintf(colorString, text)
	}
}

// Console writes the operator-facing report and reads confirmations
type Console struct {
	out   io.Writer
	in    *bufio.Reader
	color bool
}

// NewConsole creates a console on the given streams. Colors are off; use
// WithColor or NewTerminalConsole to enable them.
func NewConsole(in io.Reader, out io.Writer) *Console {
	if in == nil {
		in = strings.NewReader("")
	}
	return &Console{out: out, in: bufio.NewReader(in)}
}

// NewTerminalConsole creates a console on stdin/stdout, coloring output when
// stdout is a terminal.
func NewTerminalConsole() *Console {
	return NewConsole(os.Stdin, os.Stdout).WithColor(term.IsTerminal(int(os.Stdout.Fd())))
}

// WithColor toggles ANSI colors
func (c *Console) WithColor(enabled bool) *Console {
	c.color = enabled
	return c
}

func (c *Console) paint(fn func(string) string, text string) string {
	if !c.color {
		return text
	}
	return fn(text)
}

func (c *Console) printf(format string, args ...interface{}) {
	fmt.Fprintf(c.out, format, args...)
}

// Banner prints the title block naming the provider in use
func (c *Console) Banner(provider string) {
	c.printf("%s\n", Rule)
	title := "📈 STOCK MARKET DATA CRAWLER"
	if provider != "" {
		title += " (" + provider + ")"
	}
	c.printf("%s\n", c.paint(Cyan, title))
	c.printf("%s\n", Rule)
}

// PrintError prints an error message in red
func (c *Console) PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = msg + ": " + fmt.Sprintf("%v", args[0])
	}
	c.printf("%s\n", c.paint(Red, msg))
}

// PrintSuccess prints a success message in green
func (c *Console) PrintSuccess(msg string) {
	c.printf("%s\n", c.paint(Green, msg))
}

// PrintInfo prints a label/value pair
func (c *Console) PrintInfo(label string, value string) {
	c.printf("%s: %s\n", c.paint(Cyan, label), c.paint(Yellow, value))
}

// PrintWarning prints a warning message in yellow
func (c *Console) PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = msg + ": " + fmt.Sprintf("%v", args[0])
	}
	c.printf("%s\n", c.paint(Yellow, msg))
}

// Confirm asks to continue and accepts yes or y in any case. EOF or a read
// error counts as no.
func (c *Console) Confirm() bool {
	c.printf("\n%s\n", Rule)
	c.printf("Continue? (yes/no): ")
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		c.printf("\n")
		return false
	}
	return IsAffirmative(line)
}

// IsAffirmative reports whether answer is yes or y, ignoring case and
// surrounding whitespace.
func IsAffirmative(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "yes", "y":
		return true
	}
	return false
}
