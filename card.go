package audiocore

import (
	"context"
	"fmt"

	"github.com/gopulse/audiocore/avformat"
	"github.com/gopulse/audiocore/internal/device"
	"github.com/gopulse/audiocore/internal/mixer"
)

// Card is the owner of a probed ProfileSet and the Sources/Sinks its active
// profile instantiates — a level of the object model the distilled spec
// presupposes (every Mapping/Profile belongs to some card) without
// formally naming (SPEC_FULL.md SUPPLEMENTED FEATURES). It is grounded on
// original_source/'s per-card module: one hardware Backend, the profile set
// probed against it, and the devices each active profile's mappings
// create.
type Card struct {
	Index      uint32
	Name       string
	DriverName string

	ProfileSet *ProfileSet
	Profile    *Profile

	Sources map[string]*Source
	Sinks   map[string]*Sink

	Backend mixer.Backend

	Hooks *Hooks
}

// NewCard wraps an already-loaded ProfileSet under a fresh Card with empty
// device tables; SetProfile populates Sources/Sinks from it.
func NewCard(index uint32, name, driverName string, profiles *ProfileSet, backend mixer.Backend, hooks *Hooks) *Card {
	return &Card{
		Index:      index,
		Name:       name,
		DriverName: driverName,
		ProfileSet: profiles,
		Sources:    map[string]*Source{},
		Sinks:      map[string]*Sink{},
		Backend:    backend,
		Hooks:      hooks,
	}
}

// SetProfile switches the card's active profile: every device the outgoing
// profile owns is suspended, devices the new profile doesn't carry forward
// are unlinked, newSource/newSink instantiate the mappings the new profile
// names that aren't already running, and everything that remains is
// resumed — the same suspend/reconfigure/resume shape §4.1's UpdateRate
// uses for a single device, generalized to every device a card owns.
func (c *Card) SetProfile(name string, newSource func(m *Mapping) (*Source, error), newSink func(m *Mapping) (*Sink, error)) error {
	const op = "audiocore.Card.SetProfile"
	profile, ok := c.ProfileSet.Profiles[name]
	if !ok {
		return avformat.NewError(op, avformat.NoEntity, fmt.Errorf("unknown profile %q", name))
	}

	for _, src := range c.Sources {
		if err := src.Suspend(device.CauseUser, true); err != nil {
			return err
		}
	}
	for _, snk := range c.Sinks {
		if err := snk.Suspend(device.CauseUser, true); err != nil {
			return err
		}
	}

	wantSources := make(map[string]bool, len(profile.InputMappings))
	for _, mname := range profile.InputMappings {
		wantSources[mname] = true
	}
	wantSinks := make(map[string]bool, len(profile.OutputMappings))
	for _, mname := range profile.OutputMappings {
		wantSinks[mname] = true
	}

	for mname, src := range c.Sources {
		if !wantSources[mname] {
			src.Unlink(nil)
			delete(c.Sources, mname)
		}
	}
	for mname, snk := range c.Sinks {
		if !wantSinks[mname] {
			snk.Unlink(nil)
			delete(c.Sinks, mname)
		}
	}

	for _, mname := range profile.InputMappings {
		if _, exists := c.Sources[mname]; exists {
			continue
		}
		m, ok := c.ProfileSet.Mappings[mname]
		if !ok {
			continue
		}
		src, err := newSource(m)
		if err != nil {
			return avformat.NewError(op, avformat.NotSupported, fmt.Errorf("mapping %q: %w", mname, err))
		}
		c.Sources[mname] = src
	}
	for _, mname := range profile.OutputMappings {
		if _, exists := c.Sinks[mname]; exists {
			continue
		}
		m, ok := c.ProfileSet.Mappings[mname]
		if !ok {
			continue
		}
		snk, err := newSink(m)
		if err != nil {
			return avformat.NewError(op, avformat.NotSupported, fmt.Errorf("mapping %q: %w", mname, err))
		}
		c.Sinks[mname] = snk
	}

	c.Profile = profile

	for _, src := range c.Sources {
		if err := src.Suspend(device.CauseUser, false); err != nil {
			return err
		}
	}
	for _, snk := range c.Sinks {
		if err := snk.Suspend(device.CauseUser, false); err != nil {
			return err
		}
	}

	c.Hooks.notify(EventDeviceChanged, c.Index)
	return nil
}

// SelectPort activates named port on dev (a device owned by this card) and
// threads the port-changed notification through Hooks (§4.1, §4.5).
func (c *Card) SelectPort(ctx context.Context, dev *device.Device, name string, save bool) error {
	port, ok := dev.Ports[name]
	if !ok {
		return avformat.NewError("audiocore.Card.SelectPort", avformat.NoEntity, fmt.Errorf("unknown port %q", name))
	}
	dp, ok := port.Binding.(*DevicePort)
	if !ok {
		return avformat.NewError("audiocore.Card.SelectPort", avformat.Invalid, fmt.Errorf("port %q has no path binding", name))
	}
	if err := dp.Select(ctx, dev, save); err != nil {
		return err
	}
	c.Hooks.notify(EventPortChanged, dev.Index)
	return nil
}
