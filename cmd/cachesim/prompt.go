package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// Prompts shown when a value is not supplied on the command line.
const (
	promptSets      = "Enter number of cache sets (1/32/64/128/256/512): "
	promptAssoc     = "Enter set associativity (1/2/4): "
	promptBlockSize = "Enter block size: "
	promptTrace     = "Enter the filename to check: "
	msgInitializing = "Initializing cache..."
)

// InputFormatError reports a configuration value that is not an integer.
type InputFormatError struct {
	Field string
	Input string
}

func (e *InputFormatError) Error() string {
	if e.Input == "" {
		return fmt.Sprintf("no value given for %s", e.Field)
	}
	return fmt.Sprintf("invalid %s: %q is not an integer", e.Field, e.Input)
}

// prompter reads whitespace-separated answers, so several answers may be
// given on one line.
type prompter struct {
	scanner *bufio.Scanner
	out     io.Writer
	asked   bool
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	scanner := bufio.NewScanner(in)
	scanner.Split(bufio.ScanWords)

	return &prompter{scanner: scanner, out: out}
}

// token prints prompt and returns the next word of input. It returns "" at
// the end of input.
func (p *prompter) token(prompt string) string {
	p.asked = true
	_, _ = fmt.Fprint(p.out, prompt)

	if !p.scanner.Scan() {
		return ""
	}

	return p.scanner.Text()
}

// integer prompts for an integer-valued field.
func (p *prompter) integer(prompt, field string) (int, error) {
	word := p.token(prompt)

	n, err := strconv.Atoi(word)
	if err != nil {
		return 0, &InputFormatError{Field: field, Input: word}
	}

	return n, nil
}
