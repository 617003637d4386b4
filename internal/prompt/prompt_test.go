package prompt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/pebble-dev/pebblectl/internal/terminal"
)

func TestIsCancelled(t *testing.T) {
	if !IsCancelled(ErrCancelled) {
		t.Fatal("IsCancelled(ErrCancelled) = false, want true")
	}

	if !IsCancelled(fmt.Errorf("pick platform: %w", ErrCancelled)) {
		t.Fatal("IsCancelled(wrapped) = false, want true")
	}

	if IsCancelled(errors.New("not cancelled")) {
		t.Fatal("IsCancelled(unrelated error) = true, want false")
	}
}

func TestLine_Choose(t *testing.T) {
	options := []Option{
		{Label: "basalt", Detail: "Pebble Time"},
		{Label: "Emery", Value: "emery"},
	}

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "first", input: "1\n", want: "basalt"},
		{name: "value overrides label", input: "2\n", want: "emery"},
		{name: "retries invalid", input: "9\nabc\n\n2\n", want: "emery"},
		{name: "quit", input: "q\n", wantErr: ErrCancelled},
		{name: "eof", input: "", wantErr: ErrCancelled},
		{name: "answer without newline", input: "1", want: "basalt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer

			got, err := NewLine(strings.NewReader(tt.input), &out).Choose(context.Background(), "Platform", options)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Choose() error = %v, want %v", err, tt.wantErr)
			}

			if got != tt.want {
				t.Fatalf("Choose() = %q, want %q", got, tt.want)
			}

			if !strings.Contains(out.String(), "[1] basalt (Pebble Time)") {
				t.Fatalf("output missing option list:\n%s", out.String())
			}
		})
	}
}

func TestLine_ChooseEmpty(t *testing.T) {
	_, err := NewLine(strings.NewReader("1\n"), &bytes.Buffer{}).Choose(context.Background(), "x", nil)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("Choose(nil) error = %v, want ErrCancelled", err)
	}
}

func TestLine_ChooseCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLine(strings.NewReader("1\n"), &bytes.Buffer{}).Choose(ctx, "x", Options("a"))
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("Choose() error = %v, want ErrCancelled", err)
	}
}

func TestLine_Input(t *testing.T) {
	var out bytes.Buffer

	l := NewLine(strings.NewReader("  192.168.1.20 \n\n"), &out)

	got, err := l.Input(context.Background(), "Phone IP", "192.168.0.10")
	if err != nil {
		t.Fatalf("Input() error = %v", err)
	}

	if got != "192.168.1.20" {
		t.Fatalf("Input() = %q", got)
	}

	if !strings.Contains(out.String(), "Phone IP (192.168.0.10): ") {
		t.Fatalf("prompt = %q", out.String())
	}

	if _, err := l.Input(context.Background(), "Phone IP", ""); !errors.Is(err, ErrCancelled) {
		t.Fatalf("empty Input() error = %v, want ErrCancelled", err)
	}
}

func TestLine_Confirm(t *testing.T) {
	tests := []struct {
		input      string
		defaultYes bool
		want       bool
	}{
		{input: "y\n", want: true},
		{input: "YES\n", want: true},
		{input: "n\n", defaultYes: true, want: false},
		{input: "\n", defaultYes: true, want: true},
		{input: "\n", defaultYes: false, want: false},
		{input: "maybe\n", want: false},
	}

	for _, tt := range tests {
		got, err := NewLine(strings.NewReader(tt.input), &bytes.Buffer{}).Confirm(context.Background(), "Set as default?", tt.defaultYes)
		if err != nil {
			t.Fatalf("Confirm(%q) error = %v", tt.input, err)
		}

		if got != tt.want {
			t.Errorf("Confirm(%q, %v) = %v, want %v", tt.input, tt.defaultYes, got, tt.want)
		}
	}
}

func TestDisabled(t *testing.T) {
	var c Chooser = Disabled{}

	if _, err := c.Choose(context.Background(), "x", Options("a")); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Choose() error = %v", err)
	}

	if _, err := c.Confirm(context.Background(), "x", true); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Confirm() error = %v", err)
	}
}

func TestForTerminal(t *testing.T) {
	tty := &terminal.Info{IsTTY: true, StdinIsTTY: true}
	piped := &terminal.Info{IsTTY: true}

	if _, ok := ForTerminal(tty, true, nil, nil).(Disabled); !ok {
		t.Error("noInput should disable prompts")
	}

	if _, ok := ForTerminal(tty, false, nil, nil).(*Huh); !ok {
		t.Error("interactive terminal should use huh forms")
	}

	if _, ok := ForTerminal(piped, false, strings.NewReader(""), &bytes.Buffer{}).(*Line); !ok {
		t.Error("piped stdin should use line prompts")
	}
}
