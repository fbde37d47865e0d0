// Package symbols reads and filters ticker symbol lists.
package symbols

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"
)

// Load reads path as UTF-8, dropping a leading byte order mark, and returns
// the trimmed non-blank lines in file order.
func Load(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open symbol file: %w", err)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			line = strings.TrimPrefix(line, "\ufeff")
			first = false
		}
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read symbol file: %w", err)
	}
	return lines, nil
}

// StripHeader drops the first entry when it is a SYMBOL or TICKER column header
func StripHeader(lines []string) []string {
	if len(lines) == 0 {
		return lines
	}
	switch strings.ToUpper(lines[0]) {
	case "SYMBOL", "TICKER":
		return lines[1:]
	}
	return lines
}

// IsValid reports whether s is non-empty and consists only of letters,
// digits, '-' and '.'. Dot-only names pass; storage refuses the paths they
// would escape to.
func IsValid(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '.' {
			return false
		}
	}
	return true
}

// Filter keeps the valid symbols, preserving order and duplicates
func Filter(lines []string) []string {
	valid := make([]string, 0, len(lines))
	for _, s := range lines {
		if IsValid(s) {
			valid = append(valid, s)
		}
	}
	return valid
}

// Remaining returns the symbols not yet processed, preserving order and
// duplicates.
func Remaining(valid []string, processed func(string) bool) []string {
	out := make([]string, 0, len(valid))
	for _, s := range valid {
		if !processed(s) {
			out = append(out, s)
		}
	}
	return out
}
