package audiocore

import (
	"github.com/gopulse/audiocore/avformat"
	"github.com/gopulse/audiocore/internal/device"
	"github.com/gopulse/audiocore/internal/stream"
)

// Source is the root package's capture-device type: a device.Device plus
// the card-facing identity and hook wiring a capture side needs (§3, §4.1).
// Every method it exposes beyond the embedded Device is either bookkeeping
// (NewOutput, Post) or a Hooks.Notify call point; the device core itself
// carries the state machine and volume algebra.
type Source struct {
	*device.Device
	Hooks *Hooks
}

// NewSource builds a capture device from data and fires EventDeviceNew
// (§3 Lifecycle, §4.1 New).
func NewSource(index uint32, data *device.NewData, deviceHooks *device.Hooks, hooks *Hooks) (*Source, error) {
	d, err := device.New(index, data, deviceHooks)
	if err != nil {
		return nil, err
	}
	s := &Source{Device: d, Hooks: hooks}
	hooks.notify(EventDeviceNew, index)
	return s, nil
}

// Put finalizes creation (§4.1 Put).
func (s *Source) Put(deviceHooks *device.Hooks) error {
	if err := s.Device.Put(deviceHooks); err != nil {
		return err
	}
	s.Hooks.notify(EventDeviceChanged, s.Index)
	return nil
}

// NewOutput attaches a new source output to this source, negotiating
// formats the way §3 Lifecycle describes (§4.3).
func (s *Source) NewOutput(index uint32, reqFormats, negoFormats []avformat.SampleSpec, flags stream.Flags) (*stream.SourceOutput, error) {
	o, err := stream.NewSourceOutput(index, s.Device, reqFormats, negoFormats, flags)
	if err != nil {
		return nil, err
	}
	s.Hooks.notify(EventStreamNew, index)
	return o, nil
}

// Post delivers one captured chunk (already in the source's own sample
// spec) to every attached output's push pipeline (§2 "Data flow
// (capture)", §4.3). Outputs are served one after another, each with its
// own resample/volume handling; an output whose Push fails does not stop
// delivery to the others.
func (s *Source) Post(chunk []byte) {
	for _, a := range s.Device.AttachedStreams() {
		if o, ok := a.(*stream.SourceOutput); ok {
			_ = o.Push(append([]byte(nil), chunk...))
		}
	}
}

// IsMonitor reports whether this source captures a sink's mix rather than
// hardware input (§3 "Monitor source").
func (s *Source) IsMonitor() bool { return s.Device.MonitorOf != nil }
