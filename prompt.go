package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// prompter reads answers for the interactive modes one line at a time.
type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func newPrompter(r io.Reader, w io.Writer) *prompter {
	return &prompter{in: bufio.NewScanner(r), out: w}
}

// ask prints label and returns the trimmed answer, or "" at end of input.
func (p *prompter) ask(label string) string {
	fmt.Fprint(p.out, label)
	if !p.in.Scan() {
		return ""
	}
	return strings.TrimSpace(p.in.Text())
}

// askInt returns def when the answer is blank or not a positive number.
func (p *prompter) askInt(label string, def int) int {
	n, err := strconv.Atoi(p.ask(label))
	if err != nil || n < 1 {
		return def
	}
	return n
}

func (p *prompter) confirm(label string) bool {
	return strings.EqualFold(p.ask(label), "y")
}
