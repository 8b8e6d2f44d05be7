package audiocore

import (
	"github.com/gopulse/audiocore/avformat"
	"github.com/gopulse/audiocore/internal/device"
	"github.com/gopulse/audiocore/internal/stream"
)

// Sink is the root package's playback-device type, symmetric to Source
// (§3, §4.1, §4.4).
type Sink struct {
	*device.Device
	Hooks *Hooks
}

// NewSink builds a playback device from data and fires EventDeviceNew.
func NewSink(index uint32, data *device.NewData, deviceHooks *device.Hooks, hooks *Hooks) (*Sink, error) {
	d, err := device.New(index, data, deviceHooks)
	if err != nil {
		return nil, err
	}
	snk := &Sink{Device: d, Hooks: hooks}
	hooks.notify(EventDeviceNew, index)
	return snk, nil
}

// Put finalizes creation (§4.1 Put).
func (snk *Sink) Put(deviceHooks *device.Hooks) error {
	if err := snk.Device.Put(deviceHooks); err != nil {
		return err
	}
	snk.Hooks.notify(EventDeviceChanged, snk.Index)
	return nil
}

// NewInput attaches a new sink input to this sink (§3 Lifecycle, §4.4).
func (snk *Sink) NewInput(index uint32, reqFormats, negoFormats []avformat.SampleSpec, flags stream.Flags, maxBlock int) (*stream.SinkInput, error) {
	i, err := stream.NewSinkInput(index, snk.Device, reqFormats, negoFormats, flags, maxBlock)
	if err != nil {
		return nil, err
	}
	snk.Hooks.notify(EventStreamNew, index)
	return i, nil
}

// Render mixes every attached input's Peek result into one playback
// period: it drives the peek/drop protocol for nbytes (device sample
// spec), handing each stream's chunk and post-peek volume to mix. The
// actual summing arithmetic is the injected primitive — §1 puts the mixing
// math itself out of scope, only the protocol that drives it is this
// package's job.
func (snk *Sink) Render(nbytes int, mix func(chunk []byte, volume avformat.ChannelVolume)) {
	for _, a := range snk.Device.AttachedStreams() {
		in, ok := a.(*stream.SinkInput)
		if !ok {
			continue
		}
		chunk, volume, err := in.Peek(nbytes)
		if err != nil {
			continue
		}
		mix(chunk, volume)
		in.Drop(len(chunk))
	}
}
