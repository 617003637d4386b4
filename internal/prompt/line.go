package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Line asks questions over plain line-based I/O. It is used when stdin is
// piped and in tests. Typing "q" or reaching EOF cancels.
type Line struct {
	in  *bufio.Reader
	out io.Writer
}

// NewLine returns a Line chooser reading in and writing prompts to out.
func NewLine(in io.Reader, out io.Writer) *Line {
	return &Line{in: bufio.NewReader(in), out: out}
}

func (l *Line) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", ErrCancelled
	}

	input, err := l.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && strings.TrimSpace(input) != "" {
			return strings.TrimSpace(input), nil
		}

		if errors.Is(err, io.EOF) {
			return "", ErrCancelled
		}

		return "", fmt.Errorf("read input: %w", err)
	}

	return strings.TrimSpace(input), nil
}

// Choose implements Chooser.
func (l *Line) Choose(ctx context.Context, title string, options []Option) (string, error) {
	if len(options) == 0 {
		return "", ErrCancelled
	}

	fmt.Fprintln(l.out, title)

	for i, opt := range options {
		fmt.Fprintf(l.out, "  [%d] %s\n", i+1, opt.display())
	}

	for {
		fmt.Fprintf(l.out, "Select [1-%d, q to cancel]: ", len(options))

		input, err := l.readLine(ctx)
		if err != nil {
			return "", err
		}

		switch {
		case input == "":
			continue
		case strings.EqualFold(input, "q"):
			return "", ErrCancelled
		}

		num, err := strconv.Atoi(input)
		if err != nil || num < 1 || num > len(options) {
			fmt.Fprintf(l.out, "Invalid selection. Enter a number between 1 and %d\n", len(options))
			continue
		}

		return options[num-1].value(), nil
	}
}

// Input implements Chooser.
func (l *Line) Input(ctx context.Context, title, placeholder string) (string, error) {
	if placeholder != "" {
		fmt.Fprintf(l.out, "%s (%s): ", title, placeholder)
	} else {
		fmt.Fprintf(l.out, "%s: ", title)
	}

	input, err := l.readLine(ctx)
	if err != nil {
		return "", err
	}

	if input == "" {
		return "", ErrCancelled
	}

	return input, nil
}

// Confirm implements Chooser.
func (l *Line) Confirm(ctx context.Context, title string, defaultYes bool) (bool, error) {
	hint := "y/N"
	if defaultYes {
		hint = "Y/n"
	}

	fmt.Fprintf(l.out, "%s [%s]: ", title, hint)

	input, err := l.readLine(ctx)
	if err != nil {
		return false, err
	}

	switch strings.ToLower(input) {
	case "":
		return defaultYes, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

var _ Chooser = (*Line)(nil)
