package stream

import (
	"fmt"

	"github.com/gopulse/audiocore/avformat"
	"github.com/gopulse/audiocore/internal/device"
)

// SourceOutputDriver is the per-stream hook table an implementor wires up,
// mirroring device.Driver's "optional function pointers" shape (§9).
type SourceOutputDriver struct {
	// Push delivers one resampled, volume-adjusted chunk downstream.
	Push func(o *SourceOutput, chunk []byte) error
	// ProcessRewind lets the stream itself implement rewinding instead of
	// relying on the delay queue (§4.3 push step 2).
	ProcessRewind func(o *SourceOutput, nbytes int) error
	Moving        func(o *SourceOutput, dest *device.Device) error
	Kill          func(o *SourceOutput)
	Suspend       func(o *SourceOutput, on bool) error
	UpdateRate    func(o *SourceOutput) error
	// MoveFail is given a chance to redirect the stream elsewhere instead of
	// letting it be killed (§4.3, §7).
	MoveFail func(o *SourceOutput) (redirect *device.Device, ok bool)
}

// SourceOutput is the capture-side per-stream consumer from §4.3.
type SourceOutput struct {
	Core

	// DirectOnInput is a weak reference to a sink input whose monitor path
	// delivers chunks directly to this output, bypassing the normal
	// broadcast (§3). Invariant: DirectOnInput.Core.Device == Device.MonitorOf.
	DirectOnInput *SinkInput

	delay  *ChunkQueue
	Driver SourceOutputDriver
}

// NewSourceOutput builds a source output attached to src, negotiating spec
// against the device's advertised format the way §3 Lifecycle describes.
// reqFormats is tried in order against negoFormats (the device's
// advertised formats); the first match wins.
func NewSourceOutput(index uint32, src *device.Device, reqFormats []avformat.SampleSpec, negoFormats []avformat.SampleSpec, flags Flags) (*SourceOutput, error) {
	const op = "stream.NewSourceOutput"
	spec, err := negotiateFormat(reqFormats, negoFormats, src.SampleSpec)
	if err != nil {
		return nil, avformat.NewError(op, avformat.NotSupported, err)
	}
	cmap := avformat.DefaultMapFor(spec.Channels)
	if flags.Has(FixFormat) || flags.Has(FixRate) || flags.Has(FixChannels) {
		spec = src.SampleSpec
		cmap = src.ChannelMap
	}

	o := &SourceOutput{Core: newCore(index, spec, cmap)}
	o.Flags = flags
	o.Core.Device = src
	if flags.Has(StartCorked) {
		o.State = Corked
	} else {
		o.State = Running
	}
	o.delay = NewChunkQueue(0)

	if err := src.Attach(o); err != nil {
		return nil, err
	}
	return o, nil
}

// negotiateFormat tries each of reqFormats against negoFormats (falling back
// to deviceSpec if negoFormats is empty) and returns the first match.
func negotiateFormat(req, nego []avformat.SampleSpec, deviceSpec avformat.SampleSpec) (avformat.SampleSpec, error) {
	if len(req) == 0 {
		return deviceSpec, nil
	}
	if len(nego) == 0 {
		nego = []avformat.SampleSpec{deviceSpec}
	}
	for _, r := range req {
		for _, n := range nego {
			if r.Format == n.Format && (r.Rate == 0 || r.Rate == n.Rate) && (r.Channels == 0 || r.Channels == n.Channels) {
				out := n
				if r.Rate != 0 {
					out.Rate = r.Rate
				}
				return out, nil
			}
		}
	}
	return avformat.SampleSpec{}, fmt.Errorf("no requested format negotiable against device formats")
}

// Kill implements device.AttachedStream.
func (o *SourceOutput) Kill() {
	if o.State == Unlinked {
		return
	}
	o.State = Unlinked
	if o.Core.Device != nil {
		o.Core.Device.Detach(o.Index(), o.Corked())
		o.Core.Device = nil
	}
	if o.Driver.Kill != nil {
		o.Driver.Kill(o)
	}
}

// Suspend implements device.AttachedStream.
func (o *SourceOutput) Suspend(on bool) error {
	if o.Driver.Suspend != nil {
		return o.Driver.Suspend(o, on)
	}
	return nil
}

// UpdateRate implements device.AttachedStream: a corked output gets a
// chance to re-resample before the device resumes at its new rate (§4.1).
func (o *SourceOutput) UpdateRate(rate uint32) error {
	if o.Driver.UpdateRate != nil {
		return o.Driver.UpdateRate(o)
	}
	return nil
}

// Cork pauses or resumes delivery without detaching from the device.
func (o *SourceOutput) Cork(on bool) {
	if on && o.State == Running {
		o.State = Corked
	} else if !on && o.State == Corked {
		o.State = Running
	}
	if o.Core.Device != nil {
		o.Core.Device.UpdateStatus()
	}
}

// Push implements §4.3's push contract: chunk arrives in the device's
// sample spec; it is queued for backpressure, drained down to a limit, and
// each drained piece has mute/soft-volume/device-factor/resample applied
// before being handed to the implementor's Push.
func (o *SourceOutput) Push(chunk []byte) error {
	if o.State != Running || o.Driver.Push == nil {
		return nil
	}

	o.delay.Push(chunk)

	limit := 0
	if o.Driver.ProcessRewind == nil && o.Core.Device != nil {
		limit = o.Core.Device.SampleSpec.FrameSize() * o.Core.Device.MaxRewind
	}
	// A monitor source must never let the delay queue hold more than the
	// monitored sink has actually buffered, or a rewind could loop back data
	// that the sink itself is still free to change (§4.3 step 2).
	if o.Core.Device != nil && o.Core.Device.MonitorOf != nil && o.DirectOnInput != nil {
		if unplayed := o.DirectOnInput.UnplayedLen(); unplayed < limit {
			limit = unplayed
		}
	}

	excess := o.delay.Len() - limit
	for excess > 0 {
		piece := o.delay.Drop(excess)
		if err := o.deliver(piece); err != nil {
			return err
		}
		excess = o.delay.Len() - limit
	}
	return nil
}

func (o *SourceOutput) deliver(piece []byte) error {
	if o.Core.Device != nil && o.Mute {
		piece = make([]byte, len(piece))
	} else if o.Resampler == nil && o.VolumeFactorDevice != nil {
		piece = applyVolume(piece, o.Spec, fuse(o.SoftVolume, o.VolumeFactorDevice))
	} else {
		piece = applyVolume(piece, o.Spec, o.SoftVolume)
		if o.Resampler != nil {
			piece = o.Resampler.Resample(piece)
		}
		if o.VolumeFactorDevice != nil {
			piece = applyVolume(piece, o.Spec, o.VolumeFactorDevice)
		}
	}
	return o.Driver.Push(o, piece)
}

// fuse combines two channel-volume layers into the single pass §4.3 allows
// when there is no resampler between soft_volume and volume_factor_device.
func fuse(a, b avformat.ChannelVolume) avformat.ChannelVolume {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	out := make(avformat.ChannelVolume, n)
	for i := range out {
		av, bv := avformat.Norm, avformat.Norm
		if i < len(a) {
			av = a[i]
		}
		if i < len(b) {
			bv = b[i]
		}
		out[i] = av.Multiply(bv)
	}
	return out
}
