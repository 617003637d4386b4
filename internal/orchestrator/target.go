package orchestrator

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/pebble-dev/pebblectl/internal/config"
	clierrors "github.com/pebble-dev/pebblectl/internal/errors"
	"github.com/pebble-dev/pebblectl/internal/prompt"
	"github.com/pebble-dev/pebblectl/internal/runner"
)

// SelectPlatform resolves the emulator platform: the explicit value, then
// the saved default, then a choice from the platform list. A chosen
// platform may be saved as the new default.
func (o *Orchestrator) SelectPlatform(ctx context.Context, explicit string) (runner.Platform, error) {
	if explicit != "" {
		p, ok := runner.LookupPlatform(explicit)
		if !ok {
			return runner.Platform{}, clierrors.UnknownPlatform(explicit, runner.PlatformIDs())
		}

		return p, nil
	}

	if o.Settings != nil {
		if p, ok := runner.LookupPlatform(o.Settings.DefaultPlatform()); ok {
			return p, nil
		}
	}

	options := make([]prompt.Option, len(runner.Platforms))
	for i, p := range runner.Platforms {
		options[i] = prompt.Option{Label: p.Name, Detail: p.ID, Value: p.ID}
	}

	id, err := o.chooser().Choose(ctx, "Select a platform", options)
	if err != nil {
		return runner.Platform{}, o.promptError(err, "platform", "--emulator")
	}

	p, ok := runner.LookupPlatform(id)
	if !ok {
		return runner.Platform{}, clierrors.UnknownPlatform(id, runner.PlatformIDs())
	}

	if err := o.offerDefault(ctx, config.KeyDefaultPlatform, p.ID, "Set "+p.Name+" as the default platform?"); err != nil {
		return runner.Platform{}, err
	}

	return p, nil
}

// SelectPhone resolves the phone address: the explicit value, then the saved
// address, then free text. A typed address may be saved.
func (o *Orchestrator) SelectPhone(ctx context.Context, explicit string) (string, error) {
	if explicit != "" {
		return validPhoneIP(explicit)
	}

	if o.Settings != nil {
		if saved := strings.TrimSpace(o.Settings.PhoneIP()); saved != "" {
			return validPhoneIP(saved)
		}
	}

	typed, err := o.chooser().Input(ctx, "Phone IP address", "192.168.1.20")
	if err != nil {
		return "", o.promptError(err, "phone IP", "--phone")
	}

	ip, err := validPhoneIP(typed)
	if err != nil {
		return "", err
	}

	if err := o.offerDefault(ctx, config.KeyPhoneIP, ip, "Remember "+ip+" as the phone IP?"); err != nil {
		return "", err
	}

	return ip, nil
}

func validPhoneIP(s string) (string, error) {
	s = strings.TrimSpace(s)
	if net.ParseIP(s) == nil {
		return "", clierrors.InvalidArgument("phone IP", s, "an IPv4 or IPv6 address")
	}

	return s, nil
}

// offerDefault asks whether to persist value under key. Declining or being
// unable to ask leaves the configuration untouched.
func (o *Orchestrator) offerDefault(ctx context.Context, key, value, question string) error {
	if o.Settings == nil {
		return nil
	}

	save, err := o.chooser().Confirm(ctx, question, false)
	if err != nil || !save {
		return nil
	}

	if err := o.Settings.Set(key, value); err != nil {
		return clierrors.ConfigFailed("save "+key, err)
	}

	o.out().Success("Saved %s = %s", key, value)

	return nil
}

// promptError keeps cancellation as-is and turns a missing terminal into a
// usage error naming the flag to pass instead.
func (o *Orchestrator) promptError(err error, what, flag string) error {
	if errors.Is(err, prompt.ErrUnavailable) {
		return clierrors.CannotPrompt(what, flag)
	}

	return err
}
