package display

import (
	"context"
	"fmt"
	"strings"
)

// Button is a watch button and the keysym the emulator maps it to.
type Button struct {
	Name   string
	Keysym uint32
}

// Emulator buttons, mapped to the arrow keys.
var (
	ButtonBack   = Button{Name: "back", Keysym: 0xff51}
	ButtonUp     = Button{Name: "up", Keysym: 0xff52}
	ButtonSelect = Button{Name: "select", Keysym: 0xff53}
	ButtonDown   = Button{Name: "down", Keysym: 0xff54}
)

// Buttons lists every button.
var Buttons = []Button{ButtonBack, ButtonUp, ButtonSelect, ButtonDown}

// ButtonNames returns the button names in Buttons order.
func ButtonNames() []string {
	names := make([]string, len(Buttons))
	for i, b := range Buttons {
		names[i] = b.Name
	}

	return names
}

// ParseButton resolves a button name.
func ParseButton(name string) (Button, error) {
	for _, b := range Buttons {
		if strings.EqualFold(b.Name, strings.TrimSpace(name)) {
			return b, nil
		}
	}

	return Button{}, fmt.Errorf("unknown button %q (want back, up, select or down)", name)
}

// Press sends a key-down followed by a key-up for b.
func Press(ctx context.Context, conn Conn, b Button) error {
	if err := conn.SendKey(ctx, b.Keysym, true); err != nil {
		return err
	}

	return conn.SendKey(ctx, b.Keysym, false)
}
