package stream

import (
	"github.com/gopulse/audiocore/avformat"
	"github.com/gopulse/audiocore/internal/device"
)

// SinkInputDriver is the per-stream hook table for the playback side (§4.4),
// symmetric to SourceOutputDriver but pull-driven.
type SinkInputDriver struct {
	// Pop fills tchunk with up to ilength bytes of stream-format audio. A
	// non-nil error (or a corked stream) is treated as an underrun.
	Pop func(i *SinkInput, ilength int) (tchunk []byte, err error)
	// ProcessUnderrun is consulted once the render queue runs dry; it
	// returns true only once every valid byte has actually been played.
	ProcessUnderrun func(i *SinkInput) bool
	// ProcessRewind asks the implementor to rewind its own buffered state by
	// amount bytes (stream sample spec), returning how much it could.
	ProcessRewind func(i *SinkInput, amount int) (int, error)
	Moving        func(i *SinkInput, dest *device.Device) error
	Kill          func(i *SinkInput)
	Suspend       func(i *SinkInput, on bool) error
	UpdateRate    func(i *SinkInput) error
	MoveFail      func(i *SinkInput) (redirect *device.Device, ok bool)
}

// SyncGroup is the sync group from §3, kept as a member list: sink inputs in the same
// group must start/stop together, and none of them may be moved
// individually.
type SyncGroup struct {
	members []*SinkInput
}

// Join adds i to g and points i at g.
func (g *SyncGroup) Join(i *SinkInput) {
	g.members = append(g.members, i)
	i.sync = g
}

// Cork corks or uncorks every member together (§3 "must start/stop together").
func (g *SyncGroup) Cork(on bool) {
	for _, m := range g.members {
		m.Cork(on)
	}
}

// SinkInput is the playback-side per-stream producer from §4.4.
type SinkInput struct {
	Core

	maxBlock int

	render *ChunkQueue

	RewriteNBytes    int // -1 means "drop everything buffered"
	RewriteFlush     bool
	DontRewindRender bool

	PlayingFor  int
	UnderrunFor int
	Drained     bool

	sync *SyncGroup

	Driver SinkInputDriver
}

// NewSinkInput builds a sink input attached to sink, negotiating format the
// same way NewSourceOutput does (§3 Lifecycle).
func NewSinkInput(index uint32, sink *device.Device, reqFormats, negoFormats []avformat.SampleSpec, flags Flags, maxBlock int) (*SinkInput, error) {
	const op = "stream.NewSinkInput"
	spec, err := negotiateFormat(reqFormats, negoFormats, sink.SampleSpec)
	if err != nil {
		return nil, avformat.NewError(op, avformat.NotSupported, err)
	}
	cmap := avformat.DefaultMapFor(spec.Channels)
	if flags.Has(FixFormat) || flags.Has(FixRate) || flags.Has(FixChannels) {
		spec = sink.SampleSpec
		cmap = sink.ChannelMap
	}

	i := &SinkInput{Core: newCore(index, spec, cmap), maxBlock: maxBlock}
	i.Flags = flags
	i.Core.Device = sink
	if flags.Has(StartCorked) {
		i.State = Corked
	} else {
		i.State = Running
	}
	i.render = NewChunkQueue(0)

	if err := sink.Attach(i); err != nil {
		return nil, err
	}
	return i, nil
}

func (i *SinkInput) coreOf() *Core { return &i.Core }

// Kill implements device.AttachedStream.
func (i *SinkInput) Kill() {
	if i.State == Unlinked {
		return
	}
	i.State = Unlinked
	if i.Core.Device != nil {
		i.Core.Device.Detach(i.Index(), i.Corked())
		i.Core.Device = nil
	}
	if i.Driver.Kill != nil {
		i.Driver.Kill(i)
	}
}

// Suspend implements device.AttachedStream.
func (i *SinkInput) Suspend(on bool) error {
	if i.Driver.Suspend != nil {
		return i.Driver.Suspend(i, on)
	}
	return nil
}

// UpdateRate implements device.AttachedStream: a corked input gets a chance
// to re-resample before the device resumes at its new rate (§4.1).
func (i *SinkInput) UpdateRate(rate uint32) error {
	if i.Driver.UpdateRate != nil {
		return i.Driver.UpdateRate(i)
	}
	return nil
}

// UnplayedLen reports how many bytes are buffered in the render queue but
// not yet consumed by Drop — used by a direct-on-input monitor source to
// cap its own delay queue (§4.3 step 2).
func (i *SinkInput) UnplayedLen() int {
	return i.render.Len()
}

// Cork pauses or resumes rendering without detaching from the device.
// Forbidden to call piecemeal on a synced member; use SyncGroup.Cork.
func (i *SinkInput) Cork(on bool) {
	if on && i.State == Running {
		i.State = Corked
	} else if !on && i.State == Corked {
		i.State = Running
	}
	if i.Core.Device != nil {
		i.Core.Device.UpdateStatus()
	}
}

// requestLength returns how many input-domain bytes Peek should pull from
// the implementor for slength device-domain bytes, capped at maxBlock
// (§4.4 "ilength").
func (i *SinkInput) requestLength(slength int) int {
	ilength := slength
	if i.Resampler != nil {
		ilength = i.Resampler.Request(slength)
	}
	if i.maxBlock > 0 && ilength > i.maxBlock {
		ilength = i.maxBlock
	}
	return ilength
}

// fill repeatedly calls Driver.Pop until the render queue holds at least
// slength bytes or an underrun occurs (§4.4 Peek contract).
func (i *SinkInput) fill(slength int) {
	for i.render.Len() < slength {
		ilength := i.requestLength(slength)
		if ilength <= 0 {
			i.underrun(slength)
			return
		}
		if i.State == Corked || i.Driver.Pop == nil {
			i.underrun(slength)
			return
		}
		tchunk, err := i.Driver.Pop(i, ilength)
		if err != nil || len(tchunk) == 0 {
			i.underrun(slength)
			return
		}

		i.PlayingFor += len(tchunk)
		i.UnderrunFor = 0
		i.Drained = false

		piece := tchunk
		for len(piece) > 0 {
			n := len(piece)
			if i.maxBlock > 0 && n > i.maxBlock {
				n = i.maxBlock
			}
			sub := piece[:n]
			piece = piece[n:]

			if i.Mute {
				sub = make([]byte, len(sub))
			} else if i.Resampler == nil && i.VolumeFactorDevice != nil {
				sub = applyVolume(sub, i.Spec, fuse(i.SoftVolume, i.VolumeFactorDevice))
			} else {
				sub = applyVolume(sub, i.Spec, i.SoftVolume)
				if i.Resampler != nil {
					sub = i.Resampler.Resample(sub)
					if i.VolumeFactorDevice != nil {
						sub = applyVolume(sub, i.Spec, i.VolumeFactorDevice)
					}
				}
			}
			i.render.Push(sub)
		}
	}
}

func (i *SinkInput) underrun(slength int) {
	i.render.Silence(slength)
	i.PlayingFor = 0
	i.UnderrunFor += slength
	i.Drained = true
}

// Peek implements §4.4's peek contract: fills the render queue, returns up
// to slength bytes, and a volume the device's mixer should apply on top —
// unity (already applied, channel maps differ), muted, or SoftVolume
// (channel maps equal, let the mixer apply it).
func (i *SinkInput) Peek(slength int) (chunk []byte, volume avformat.ChannelVolume, err error) {
	i.fill(slength)

	chunk = i.render.Peek(slength)

	switch {
	case i.Core.Device != nil && !mapsEqualPublic(i.Map, i.Core.Device.ChannelMap):
		volume = avformat.Uniform(len(i.SoftVolume), avformat.Norm)
	case i.Mute:
		volume = avformat.Uniform(len(i.SoftVolume), avformat.Muted)
	default:
		volume = i.SoftVolume
	}
	return chunk, volume, nil
}

// Drop implements §4.4 drop: advances the render queue's read pointer.
func (i *SinkInput) Drop(nbytes int) {
	i.render.Drop(nbytes)
}

// ProcessUnderrun implements §4.4: true only when the render queue is empty
// and the implementor confirms every valid byte has played; the queue is
// then silenced so later peeks never rewind into already-played data.
func (i *SinkInput) ProcessUnderrun() bool {
	if i.render.Len() != 0 {
		return false
	}
	if i.Driver.ProcessUnderrun == nil || !i.Driver.ProcessUnderrun(i) {
		return false
	}
	i.render.Clear()
	return true
}

// RequestRewind implements §4.4 request_rewind: merges with any outstanding
// request, caps at PlayingFor (can't rewind past what's already been
// emitted), and forwards the device-domain amount to the device so the
// mixer reruns from the right point.
func (i *SinkInput) RequestRewind(nbytes int, rewrite, flush, dontRewindRender bool) {
	if rewrite {
		if nbytes < 0 || i.RewriteNBytes < 0 {
			i.RewriteNBytes = -1
		} else if nbytes > i.RewriteNBytes {
			i.RewriteNBytes = nbytes
		}
	}
	if flush {
		i.RewriteFlush = true
	}
	if dontRewindRender {
		i.DontRewindRender = true
	}
	if nbytes > i.PlayingFor {
		nbytes = i.PlayingFor
	}
	if i.Core.Device != nil {
		_ = i.Core.Device.RequestRewind(nbytes)
	}
}

// ProcessRewind implements §4.4's rewind protocol.
func (i *SinkInput) ProcessRewind(nbytes int) error {
	if nbytes > 0 && !i.DontRewindRender {
		i.render.Rewind(nbytes)
	}

	if i.RewriteNBytes != 0 {
		maxRewrite := nbytes + i.render.Len()
		rewriteReq := i.RewriteNBytes
		if rewriteReq < 0 || rewriteReq > maxRewrite {
			rewriteReq = maxRewrite
		}
		if i.Driver.ProcessRewind != nil && rewriteReq > 0 {
			amount, err := i.Driver.ProcessRewind(i, rewriteReq)
			if err != nil {
				return avformat.NewError("stream.SinkInput.ProcessRewind", avformat.NotImplemented, err)
			}
			i.render.Rewind(amount)
		}
		if i.RewriteFlush {
			i.render.Clear()
		}
		if i.Resampler != nil {
			i.Resampler.Reset()
		}
	}

	i.RewriteNBytes = 0
	i.RewriteFlush = false
	i.DontRewindRender = false
	return nil
}

func mapsEqualPublic(a, b avformat.ChannelMap) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
