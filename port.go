package audiocore

import (
	"context"
	"fmt"

	"github.com/gopulse/audiocore/internal/device"
	"github.com/gopulse/audiocore/internal/mixer"
)

// DevicePort is the root package's exported view of §4.5's device port: a
// named, selectable I/O point bound to a mixer path and (optionally) one of
// that path's settings. It embeds the shared device.Port that
// internal/device's active-port selection and latency-offset logic
// actually drives, and adds the path/setting binding plus the owning Card
// that device.Port leaves opaque in its Binding field.
type DevicePort struct {
	*device.Port

	Direction mixer.Direction
	Path      *mixer.Path
	Setting   *mixer.Setting

	Card *Card

	// Profiles lists the profile names that admit this port (§4.5 "each
	// profile of a card announces which ports it admits").
	Profiles []string
}

// NewDevicePort names and wraps path/setting into a device.Port the device
// core can store directly in its Ports map, with Binding pointing back at
// the DevicePort so the owning DevicePort can be recovered later.
func NewDevicePort(path *mixer.Path, setting *mixer.Setting, priority uint32) *DevicePort {
	dp := &DevicePort{
		Path:    path,
		Setting: setting,
	}
	dp.Port = &device.Port{
		Name:      portName(path, setting),
		Priority:  priority,
		Available: device.AvailableUnknown,
		Binding:   dp,
	}
	dp.Direction = path.Direction
	return dp
}

// portName follows §6: "<path-name>;<setting-name>" when the path has more
// than one setting, else just the path name.
func portName(path *mixer.Path, setting *mixer.Setting) string {
	if setting == nil || len(path.Settings) <= 1 {
		return path.Name
	}
	return path.Name + ";" + setting.Name
}

// Select activates the port's path/setting on the hardware, then (through
// dev.SetPort's deferred round trip to the IO thread when the device has
// DeferredVolume) makes it dev's active port (§4.1, §4.5, §8 property 9).
func (p *DevicePort) Select(ctx context.Context, dev *device.Device, save bool) error {
	if err := p.Path.Select(p.Setting, dev.GetMute()); err != nil {
		return fmt.Errorf("audiocore: port %q: %w", p.Name, err)
	}
	return dev.SetPort(ctx, p.Name, save)
}

// RefreshAvailability re-reads the bound path's jacks and updates Available
// to the strongest signal they report (§4.5 "availability is updated from
// jack events"). A port whose path has no jacks is left Unknown.
func (p *DevicePort) RefreshAvailability() {
	if p.Path == nil || len(p.Path.Jacks) == 0 {
		return
	}
	best := device.AvailableUnknown
	for _, j := range p.Path.Jacks {
		switch j.Availability() {
		case mixer.AvailableYes:
			best = device.AvailableYes
		case mixer.AvailableNo:
			if best == device.AvailableUnknown {
				best = device.AvailableNo
			}
		}
	}
	p.Available = best
}

// AdmitsProfile reports whether name is one of the profiles that make this
// port selectable (§4.5).
func (p *DevicePort) AdmitsProfile(name string) bool {
	for _, n := range p.Profiles {
		if n == name {
			return true
		}
	}
	return false
}
