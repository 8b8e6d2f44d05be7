package device

import (
	"time"

	"github.com/gopulse/audiocore/avformat"
)

// Driver is the table of per-device hooks described in §9: every field is
// optional, nulled out on Unlink, and guarded by the Flags that claim the
// corresponding hardware capability exists. A systems-language rendition of
// this spec represents a device driver as a value satisfying an interface
// with only-sometimes-present methods; Go has no optional-interface-method
// story, so (matching the reference's own "table of function pointers")
// this is a struct of nilable funcs instead.
type Driver struct {
	// SetVolume is consulted after the core has computed RealVolume; it may
	// itself adjust SoftVolume (non-flat mode, §4.1).
	SetVolume func(d *Device) error
	// GetVolume requests a hardware readback; only called when refresh is
	// requested and HasHWVolume is set.
	GetVolume func(d *Device) (avformat.ChannelVolume, error)
	// SetMute pushes Device.Mute to hardware.
	SetMute func(d *Device) error
	// SetPort activates the named port; invoked on the IO thread when
	// DeferredVolume is set, otherwise on the control thread.
	SetPort func(d *Device, portName string) error
	// UpdateRate asks the driver to reconfigure hardware for a new rate.
	UpdateRate func(d *Device, rate uint32) error
	// UpdateRequestedLatency notifies the driver the negotiated latency changed.
	UpdateRequestedLatency func(d *Device, latency time.Duration) error
	// GetFormats returns the formats the driver can negotiate, used during
	// stream creation's req_formats/nego_formats exchange (§3 Lifecycle).
	GetFormats func(d *Device) []avformat.SampleSpec
	// SetState is called on every state transition so the driver can start
	// or stop hardware IO.
	SetState func(d *Device, s State) error
	// WriteVolume commits one applied deferred-volume change to hardware
	// (§4.1 "Apply rule").
	WriteVolume func(d *Device, v avformat.ChannelVolume) error
	// RequestRewind asks the device's mixer to rerun its mix from nbytes
	// back (§4.4 request_rewind, forwarded from a sink input).
	RequestRewind func(d *Device, nbytes int) error
}

// NewHook and FixateHook run during New(); either may veto creation (§3
// Lifecycle, §7).
type NewHook func(candidate *NewData) error
type FixateHook func(candidate *NewData) error
type PutHook func(d *Device)
type UnlinkHook func(d *Device)

// Hooks are core-wide, not per-device: every device creation/removal runs
// through them (§9 "Global-ish state").
type Hooks struct {
	New    []NewHook
	Fixate []FixateHook
	Put    []PutHook
	Unlink []UnlinkHook
}
