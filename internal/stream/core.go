package stream

import (
	"time"

	"github.com/gopulse/audiocore/avformat"
	"github.com/gopulse/audiocore/internal/device"
)

// Resampler is the external collaborator §1 carves out of scope: only its
// operations are referenced here.
type Resampler interface {
	Method() string
	// Request returns how many input bytes are needed to produce outLen
	// output bytes, used by the sink-input peek pipeline.
	Request(outLen int) int
	Resample(in []byte) (out []byte)
	Reset()
}

// Core is the state shared by SourceOutput and SinkInput (§3). Field names
// avoid colliding with the device.AttachedStream accessor methods
// (ChannelMap, Volume, VolumeFactor) that both stream types expose.
type Core struct {
	index uint32

	Spec                    avformat.SampleSpec
	Map                     avformat.ChannelMap
	RequestedResampleMethod string
	ActualResampleMethod    string
	Resampler               Resampler

	// Device is the back-edge to the attached device; nullable while the
	// stream is in flight between start_move and finish_move (§3).
	Device *device.Device

	ClientIndex uint32
	ModuleIndex uint32

	StreamVolume       avformat.ChannelVolume
	Factor             avformat.ChannelVolume
	VolumeFactorDevice avformat.ChannelVolume
	ReferenceRatio     avformat.ChannelVolume
	RealRatio          avformat.ChannelVolume
	SoftVolume         avformat.ChannelVolume

	// namedFactors lets named layers (e.g. a per-application ducking
	// adjustment) multiply into Factor and be independently removed by key
	// (§3, sink input only, but kept here since nothing source-output
	// specific depends on its absence).
	namedFactors map[string]avformat.ChannelVolume

	Mute       bool
	SaveVolume bool
	SaveMute   bool

	Flags Flags
	State State

	RequestedLatency time.Duration

	// thread_info shadow (§5): written only by the IO thread.
	ThreadAttached         bool
	ThreadSoftVolume       avformat.ChannelVolume
	ThreadMuted            bool
	ThreadRequestedLatency time.Duration
}

func newCore(index uint32, spec avformat.SampleSpec, cmap avformat.ChannelMap) Core {
	return Core{
		index:        index,
		Spec:         spec,
		Map:          cmap,
		StreamVolume: avformat.Uniform(int(spec.Channels), avformat.Norm),
		Factor:       avformat.Uniform(int(spec.Channels), avformat.Norm),
		State:        Init,
		namedFactors: make(map[string]avformat.ChannelVolume),
	}
}

// Index returns the stream's stable numeric index.
func (c *Core) Index() uint32 { return c.index }

// Corked implements device.AttachedStream.
func (c *Core) Corked() bool { return c.State == Corked }

// KillOnSuspend implements device.AttachedStream.
func (c *Core) KillOnSuspend() bool { return c.Flags.Has(KillOnSuspend) }

// ChannelMap implements device.AttachedStream.
func (c *Core) ChannelMap() avformat.ChannelMap { return c.Map }

// Volume implements device.AttachedStream.
func (c *Core) Volume() avformat.ChannelVolume { return c.StreamVolume }

// VolumeFactor implements device.AttachedStream.
func (c *Core) VolumeFactor() avformat.ChannelVolume { return c.Factor }

// RefRatio implements device.AttachedStream.
func (c *Core) RefRatio() avformat.ChannelVolume { return c.ReferenceRatio }

// SetVolume implements device.AttachedStream: it sets the user-visible
// stream volume directly, used by the volume-on-move recursion (§4.3) to
// fix up a stream's audible volume without going through device.SetVolume.
func (c *Core) SetVolume(v avformat.ChannelVolume) { c.StreamVolume = v }

// OriginDevice implements device.AttachedStream.
func (c *Core) OriginDevice() *device.Device { return c.Device }

func (c *Core) device() *device.Device     { return c.Device }
func (c *Core) setDevice(d *device.Device) { c.Device = d }

func (c *Core) SetRealRatio(v avformat.ChannelVolume)      { c.RealRatio = v }
func (c *Core) SetReferenceRatio(v avformat.ChannelVolume) { c.ReferenceRatio = v }
func (c *Core) SetSoftVolume(v avformat.ChannelVolume)     { c.SoftVolume = v }

// AddVolumeFactor installs or replaces a named contribution and recomputes
// Factor as the product of every named layer (§3).
func (c *Core) AddVolumeFactor(key string, v avformat.ChannelVolume) {
	c.namedFactors[key] = v
	c.recomputeVolumeFactor()
}

// RemoveVolumeFactor drops a named contribution.
func (c *Core) RemoveVolumeFactor(key string) {
	delete(c.namedFactors, key)
	c.recomputeVolumeFactor()
}

func (c *Core) recomputeVolumeFactor() {
	factor := avformat.Uniform(int(c.Spec.Channels), avformat.Norm)
	for _, v := range c.namedFactors {
		for i := range factor {
			if i < len(v) {
				factor[i] = factor[i].Multiply(v[i])
			}
		}
	}
	c.Factor = factor
}

// deviceBackref is implemented by SourceOutput and SinkInput so shared move
// logic in move.go can read/write the nullable device back-edge regardless
// of which concrete stream type it's working with.
type deviceBackref interface {
	device() *device.Device
	setDevice(*device.Device)
}
