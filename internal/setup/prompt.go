// Package setup holds the interactive terminal flows: the first-run config
// wizard and the add-reminder form.
package setup

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Prompter asks line-oriented questions over an io.Reader/Writer pair. In
// production these are os.Stdin and os.Stdout; tests inject buffers.
type Prompter struct {
	scanner *bufio.Scanner
	w       io.Writer
}

// NewPrompter creates a Prompter wired to the given reader and writer.
func NewPrompter(r io.Reader, w io.Writer) *Prompter {
	return &Prompter{scanner: bufio.NewScanner(r), w: w}
}

// line prints the prompt and returns the trimmed answer. ok is false at EOF.
func (p *Prompter) line(format string, args ...any) (string, bool) {
	_, _ = fmt.Fprintf(p.w, format, args...)
	if !p.scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(p.scanner.Text()), true
}

// String prompts for a text value. An empty answer returns defaultVal. An
// empty defaultVal makes the field required and the prompt repeats.
func (p *Prompter) String(label, defaultVal string) string {
	for {
		var val string
		var ok bool
		if defaultVal != "" {
			val, ok = p.line("  %s [%s]: ", label, defaultVal)
		} else {
			val, ok = p.line("  %s: ", label)
		}
		if !ok {
			return defaultVal
		}
		if val != "" {
			return val
		}
		if defaultVal != "" {
			return defaultVal
		}
		_, _ = fmt.Fprintf(p.w, "  (required, please enter a value)\n")
	}
}

// Optional prompts for a text value that may be left blank. Blank returns nil.
func (p *Prompter) Optional(label string) *string {
	val, ok := p.line("  %s (optional): ", label)
	if !ok || val == "" {
		return nil
	}
	return &val
}

// Float prompts for a number within [lo, hi]. Blank returns nil; invalid
// input repeats the prompt.
func (p *Prompter) Float(label string, lo, hi float64) *float64 {
	for {
		val, ok := p.line("  %s (optional): ", label)
		if !ok || val == "" {
			return nil
		}
		f, err := strconv.ParseFloat(val, 64)
		if err == nil && f >= lo && f <= hi {
			return &f
		}
		_, _ = fmt.Fprintf(p.w, "  (enter a number between %g and %g)\n", lo, hi)
	}
}

// Int prompts for an integer within [lo, hi], returning defaultVal on blank.
func (p *Prompter) Int(label string, defaultVal, lo, hi int) int {
	for {
		val, ok := p.line("  %s [%d]: ", label, defaultVal)
		if !ok || val == "" {
			return defaultVal
		}
		n, err := strconv.Atoi(val)
		if err == nil && n >= lo && n <= hi {
			return n
		}
		_, _ = fmt.Fprintf(p.w, "  (enter a whole number between %d and %d)\n", lo, hi)
	}
}

// Confirm asks a yes/no question. defaultYes decides a blank answer.
func (p *Prompter) Confirm(label string, defaultYes bool) bool {
	hint := "[y/N]"
	if defaultYes {
		hint = "[Y/n]"
	}
	answer, ok := p.line("  %s %s: ", label, hint)
	if !ok || answer == "" {
		return defaultYes
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes"
}

// Select presents a numbered list and returns the zero-based index picked.
func (p *Prompter) Select(label string, options []string) (int, error) {
	if len(options) == 0 {
		return -1, fmt.Errorf("no options to select from")
	}

	_, _ = fmt.Fprintf(p.w, "  %s:\n", label)
	for i, opt := range options {
		_, _ = fmt.Fprintf(p.w, "    %d) %s\n", i+1, opt)
	}

	for {
		val, ok := p.line("  Choice [1-%d]: ", len(options))
		if !ok {
			return -1, fmt.Errorf("no input")
		}
		n, err := strconv.Atoi(val)
		if err != nil || n < 1 || n > len(options) {
			_, _ = fmt.Fprintf(p.w, "  (enter a number between 1 and %d)\n", len(options))
			continue
		}
		return n - 1, nil
	}
}
