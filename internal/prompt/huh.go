package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

// Huh asks questions with charmbracelet/huh forms on a terminal.
type Huh struct {
	// Output receives the rendered form; stderr keeps stdout clean for
	// --json and piped output.
	Output io.Writer
}

// NewHuh returns a Huh chooser rendering to out.
func NewHuh(out io.Writer) *Huh {
	return &Huh{Output: out}
}

func (h *Huh) run(ctx context.Context, field huh.Field) error {
	form := huh.NewForm(huh.NewGroup(field)).
		WithShowHelp(true).
		WithProgramOptions(tea.WithOutput(h.Output))

	err := form.RunWithContext(ctx)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, huh.ErrUserAborted), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrCancelled
	default:
		return fmt.Errorf("run prompt: %w", err)
	}
}

// Choose implements Chooser.
func (h *Huh) Choose(ctx context.Context, title string, options []Option) (string, error) {
	if len(options) == 0 {
		return "", ErrCancelled
	}

	opts := make([]huh.Option[string], len(options))
	for i, o := range options {
		opts[i] = huh.NewOption(o.display(), o.value())
	}

	var picked string

	if err := h.run(ctx, huh.NewSelect[string]().Title(title).Options(opts...).Value(&picked)); err != nil {
		return "", err
	}

	return picked, nil
}

// Input implements Chooser.
func (h *Huh) Input(ctx context.Context, title, placeholder string) (string, error) {
	var value string

	if err := h.run(ctx, huh.NewInput().Title(title).Placeholder(placeholder).Value(&value)); err != nil {
		return "", err
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return "", ErrCancelled
	}

	return value, nil
}

// Confirm implements Chooser.
func (h *Huh) Confirm(ctx context.Context, title string, defaultYes bool) (bool, error) {
	value := defaultYes

	if err := h.run(ctx, huh.NewConfirm().Title(title).Affirmative("Yes").Negative("No").Value(&value)); err != nil {
		return false, err
	}

	return value, nil
}

var _ Chooser = (*Huh)(nil)
