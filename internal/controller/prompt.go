package controller

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// LinePrompter asks questions over plain line-based I/O.
type LinePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewLinePrompter creates a LinePrompter.
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{in: bufio.NewReader(in), out: out}
}

// Choose implements Prompter. Options are numbered from 1; an empty or
// unrecognized answer declines.
func (p *LinePrompter) Choose(ctx context.Context, message string, options []string) (int, error) {
	if err := ctx.Err(); err != nil {
		return -1, err
	}

	_, _ = fmt.Fprintf(p.out, "%s\n", message)
	for i, option := range options {
		_, _ = fmt.Fprintf(p.out, "  %d) %s\n", i+1, option)
	}

	_, _ = fmt.Fprint(p.out, "> ")

	answer, err := p.readLine()
	if err != nil {
		return -1, err
	}

	n, err := strconv.Atoi(answer)
	if err != nil || n < 1 || n > len(options) {
		return -1, nil
	}

	return n - 1, nil
}

// Input implements Prompter.
func (p *LinePrompter) Input(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	_, _ = fmt.Fprintf(p.out, "%s ", prompt)

	return p.readLine()
}

func (p *LinePrompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read answer: %w", err)
	}

	return strings.TrimSpace(line), nil
}
