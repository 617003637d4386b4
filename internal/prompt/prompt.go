// Package prompt asks the user to pick from a list or type a value.
//
// Every question goes through a Chooser so the orchestrator never depends on
// a particular widget toolkit. A cancelled question is reported as
// ErrCancelled, which callers treat as a normal outcome rather than a
// failure.
package prompt

import (
	"context"
	"errors"
)

// ErrCancelled is returned when the user backs out of a question.
var ErrCancelled = errors.New("prompt cancelled")

// ErrUnavailable is returned when no interactive input is possible.
var ErrUnavailable = errors.New("interactive input unavailable")

// IsCancelled reports whether err is a user cancellation.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// Option is one entry of a choice list.
type Option struct {
	Label string

	// Detail is an optional description shown next to the label.
	Detail string

	// Value is what Choose returns; Label when empty.
	Value string
}

func (o Option) value() string {
	if o.Value != "" {
		return o.Value
	}

	return o.Label
}

func (o Option) display() string {
	if o.Detail == "" {
		return o.Label
	}

	return o.Label + " (" + o.Detail + ")"
}

// Options builds plain options from labels.
func Options(labels ...string) []Option {
	opts := make([]Option, len(labels))
	for i, l := range labels {
		opts[i] = Option{Label: l}
	}

	return opts
}

// Chooser asks questions.
type Chooser interface {
	// Choose returns the Value of the picked option.
	Choose(ctx context.Context, title string, options []Option) (string, error)

	// Input returns free text. An empty answer is a cancellation.
	Input(ctx context.Context, title, placeholder string) (string, error)

	// Confirm asks a yes/no question.
	Confirm(ctx context.Context, title string, defaultYes bool) (bool, error)
}

// Disabled is the Chooser used with --no-input: every question fails with
// ErrUnavailable.
type Disabled struct{}

// Choose implements Chooser.
func (Disabled) Choose(context.Context, string, []Option) (string, error) {
	return "", ErrUnavailable
}

// Input implements Chooser.
func (Disabled) Input(context.Context, string, string) (string, error) {
	return "", ErrUnavailable
}

// Confirm implements Chooser.
func (Disabled) Confirm(context.Context, string, bool) (bool, error) {
	return false, ErrUnavailable
}
