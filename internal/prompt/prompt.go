// Package prompt asks the operator for the settings an interactive run leaves
// open: directories, yes/no switches, column positions and whether to resume.
// It reads answers line by line and re-asks until an answer is valid.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrNoInput is returned when input ends before a valid answer was given.
var ErrNoInput = errors.New("prompt: no more input")

// Prompter is not safe for concurrent use.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// New returns a Prompter reading answers from in and writing questions to out.
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

func (p *Prompter) ask(question string) (string, error) {
	fmt.Fprint(p.out, question+" ")
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		if err == io.EOF {
			return "", ErrNoInput
		}
		return "", fmt.Errorf("prompt: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// YesNo asks until the answer is y, yes, n or no (any case).
func (p *Prompter) YesNo(question string) (bool, error) {
	for {
		a, err := p.ask(question)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(a) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(p.out, "Please answer y or n.")
	}
}

// Index asks for an integer in [min, max].
func (p *Prompter) Index(question string, min, max int) (int, error) {
	for {
		a, err := p.ask(fmt.Sprintf("%s (%d-%d)", question, min, max))
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(a)
		if err == nil && n >= min && n <= max {
			return n, nil
		}
		fmt.Fprintf(p.out, "Please enter a number between %d and %d.\n", min, max)
	}
}

// Path asks for a non-empty path. Surrounding quotes, as left by dragging a
// folder into a terminal, are removed.
func (p *Prompter) Path(question string) (string, error) {
	for {
		a, err := p.ask(question)
		if err != nil {
			return "", err
		}
		a = strings.Trim(a, `"'`)
		if a != "" {
			return a, nil
		}
		fmt.Fprintln(p.out, "Please enter a path.")
	}
}

// List prints items as a 1-based numbered list.
func (p *Prompter) List(items []string) {
	for i, it := range items {
		fmt.Fprintf(p.out, "%d. %s\n", i+1, it)
	}
}

// ConfirmResume asks whether to continue from n completed files. Its
// signature matches progress.Confirm.
func (p *Prompter) ConfirmResume(n int) (bool, error) {
	return p.YesNo(fmt.Sprintf("%d file(s) were completed by a previous run. Continue where it left off? (y/n)", n))
}
