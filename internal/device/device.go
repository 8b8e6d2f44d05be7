// Package device implements the shared source/sink device core from §3/§4.1:
// identity, flags, the volume triple, the state machine, ports, and the
// flat-volume / deferred-volume / rate-switching algorithms. Source and Sink
// are thin wrappers the stream package and the root package build on top of
// this shared Device.
package device

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/gopulse/audiocore/avformat"
	"github.com/gopulse/audiocore/internal/asyncq"
	"github.com/gopulse/audiocore/internal/ioloop"
)

// NewData is the builder passed to New, mirroring §3 Lifecycle's
// "new_data builder" pattern.
type NewData struct {
	Name       string
	Properties map[string]string
	DriverName string
	CardIndex  int32
	ModuleIndex int32

	SampleSpec    avformat.SampleSpec
	ChannelMap    avformat.ChannelMap
	DefaultRate   uint32
	AlternateRate uint32

	Flags Flags

	// Volume, if non-nil, is the user-requested reference volume. Must be
	// nil when Flags has SharedVolume set (§4.1 New preconditions).
	Volume *avformat.ChannelVolume
	Mute   bool

	BaseVolume   avformat.Volume
	NVolumeSteps uint32
	MaxAttached  int
	// MaxRewind is the device's rewindable history, in frames (§4.3 step 2).
	MaxRewind int

	Ports      map[string]*Port
	ActivePort string

	ShareMaster *Device
	MonitorOf   *Device

	Driver Driver

	FixedLatency time.Duration
	MinLatency   time.Duration
	MaxLatency   time.Duration

	nameExists func(string) bool
}

// SetNameExists installs the registry-membership check New uses to fail
// when Name collides with an existing device (§3 Lifecycle).
func (d *NewData) SetNameExists(f func(string) bool) { d.nameExists = f }

// Device is the shared source/sink core described in §3.
type Device struct {
	Index       uint32
	Name        string
	Properties  map[string]string
	DriverName  string
	CardIndex   int32
	ModuleIndex int32

	SampleSpec    avformat.SampleSpec
	ChannelMap    avformat.ChannelMap
	DefaultRate   uint32
	AlternateRate uint32

	Flags Flags

	ReferenceVolume avformat.ChannelVolume
	RealVolume      avformat.ChannelVolume
	Mute            bool

	SaveVolume bool
	SaveMute   bool
	SavePort   bool

	BaseVolume   avformat.Volume
	NVolumeSteps uint32
	MaxAttached  int
	MaxRewind    int

	State         State
	SuspendCauses SuspendCause

	Ports      map[string]*Port
	ActivePort string

	Streams      *streamSet
	CorkedCount  int

	MonitorOf     *Device
	ShareMaster   *Device
	sharingChildren []*Device

	RequestedLatency time.Duration
	MinLatency       time.Duration
	MaxLatency       time.Duration
	FixedLatency     time.Duration

	Driver Driver

	Queue    *asyncq.Queue
	Deferred *ioloop.DeferredQueue

	// mixerDirty is set from the IO thread (hardware-originated mixer
	// changes) and cleared from the control thread on resume (§5); an
	// atomic.Bool is required since both sides touch it without a lock.
	mixerDirty atomic.Bool
}

const (
	// AbsoluteMinLatency and AbsoluteMaxLatency bound every requested latency (§6).
	AbsoluteMinLatency = 500 * time.Microsecond
	AbsoluteMaxLatency = 10 * time.Second
	// DefaultFixedLatency is used by devices without DynamicLatency (§6).
	DefaultFixedLatency = 250 * time.Millisecond
)

// New validates candidate and returns a Device in state Init. It fails if
// the name is already registered, the sample spec or channel map is
// invalid, or a NewHook/FixateHook rejects the candidate (§3, §7).
func New(index uint32, data *NewData, hooks *Hooks) (*Device, error) {
	const op = "device.New"
	if data.nameExists != nil && data.nameExists(data.Name) {
		return nil, avformat.NewError(op, avformat.Invalid, fmt.Errorf("name %q already registered", data.Name))
	}
	if !data.SampleSpec.Valid() {
		return nil, avformat.NewError(op, avformat.Invalid, fmt.Errorf("invalid sample spec"))
	}
	if data.ChannelMap == nil {
		data.ChannelMap = avformat.DefaultMapFor(data.SampleSpec.Channels)
	}
	if !data.ChannelMap.CompatibleWith(data.SampleSpec) {
		return nil, avformat.NewError(op, avformat.Invalid, fmt.Errorf("channel map incompatible with sample spec"))
	}
	if data.Flags.Has(SharedVolume) && data.Volume != nil {
		return nil, avformat.NewError(op, avformat.Invalid, fmt.Errorf("a shared-volume device must not also set an explicit volume"))
	}

	if hooks != nil {
		for _, h := range hooks.New {
			if err := h(data); err != nil {
				return nil, avformat.NewError(op, avformat.NotSupported, err)
			}
		}
		for _, h := range hooks.Fixate {
			if err := h(data); err != nil {
				return nil, avformat.NewError(op, avformat.NotSupported, err)
			}
		}
	}

	d := &Device{
		Index:         index,
		Name:          data.Name,
		Properties:    data.Properties,
		DriverName:    data.DriverName,
		CardIndex:     data.CardIndex,
		ModuleIndex:   data.ModuleIndex,
		SampleSpec:    data.SampleSpec,
		ChannelMap:    data.ChannelMap,
		DefaultRate:   data.DefaultRate,
		AlternateRate: data.AlternateRate,
		Flags:         data.Flags,
		Mute:          data.Mute,
		BaseVolume:    data.BaseVolume,
		NVolumeSteps:  data.NVolumeSteps,
		MaxAttached:   data.MaxAttached,
		MaxRewind:     data.MaxRewind,
		State:         Init,
		Ports:         data.Ports,
		ShareMaster:   data.ShareMaster,
		MonitorOf:     data.MonitorOf,
		Driver:        data.Driver,
		Streams:       newStreamSet(),
		FixedLatency:  data.FixedLatency,
		MinLatency:    data.MinLatency,
		MaxLatency:    data.MaxLatency,
	}
	if d.Properties == nil {
		d.Properties = map[string]string{}
	}

	if data.Volume != nil {
		d.ReferenceVolume = append(avformat.ChannelVolume(nil), (*data.Volume)...)
	} else {
		d.ReferenceVolume = avformat.Uniform(int(d.SampleSpec.Channels), avformat.Norm)
	}
	d.RealVolume = append(avformat.ChannelVolume(nil), d.ReferenceVolume...)

	// decibel volume enabled iff not sharing (§4.1 New post-conditions).
	if d.Flags.Has(SharedVolume) {
		d.Flags &^= DecibelVolume
	}

	if d.ShareMaster != nil {
		d.ShareMaster.sharingChildren = append(d.ShareMaster.sharingChildren, d)
	}

	d.ActivePort = data.ActivePort
	if d.ActivePort == "" {
		d.ActivePort = d.highestPriorityPort()
	}

	if d.Flags.Has(DeferredVolume) {
		d.Queue = asyncq.New(16)
		d.Deferred = &ioloop.DeferredQueue{Safety: 10 * time.Millisecond, ExtraDelay: 0}
	}

	return d, nil
}

func (d *Device) highestPriorityPort() string {
	var best string
	var bestPriority uint32
	first := true
	for name, p := range d.Ports {
		if first || p.Priority > bestPriority {
			best, bestPriority, first = name, p.Priority, false
		}
	}
	return best
}

// Put finalizes volume initialization (copying the sharing root's volume
// down to this device if it shares) and transitions Init to Suspended or
// Idle depending on whether any suspend cause is already set (§3, §4.1).
func (d *Device) Put(hooks *Hooks) error {
	if d.State != Init {
		return avformat.NewError("device.Put", avformat.BadState, fmt.Errorf("device not in Init"))
	}
	if d.Flags.Has(SharedVolume) {
		root := d.ShareRoot()
		d.ReferenceVolume = avformat.Remap(root.ReferenceVolume, root.ChannelMap, d.ChannelMap, d.ReferenceVolume)
		d.RealVolume = avformat.Remap(root.RealVolume, root.ChannelMap, d.ChannelMap, d.RealVolume)
	}
	if d.SuspendCauses.Any() {
		d.State = Suspended
	} else {
		d.State = Idle
	}
	if d.Driver.SetState != nil {
		if err := d.Driver.SetState(d, d.State); err != nil {
			return avformat.NewError("device.Put", avformat.NotImplemented, err)
		}
	}
	if hooks != nil {
		for _, h := range hooks.Put {
			h(d)
		}
	}
	return nil
}

// ShareRoot walks ShareMaster edges until it reaches a non-sharing device,
// capped at 100 hops as a cycle guard (§8 property 1, §9).
func (d *Device) ShareRoot() *Device {
	cur := d
	for i := 0; i < 100; i++ {
		if cur.ShareMaster == nil {
			return cur
		}
		cur = cur.ShareMaster
	}
	return cur
}

// Unlink removes the device from service: it transitions to Unlinked and
// nulls out the driver table so queued IO-thread messages referring to it
// become no-ops (§3, §5).
func (d *Device) Unlink(hooks *Hooks) {
	if d.State == Unlinked {
		return
	}
	d.State = Unlinked
	d.Driver = Driver{}
	if hooks != nil {
		for _, h := range hooks.Unlink {
			h(d)
		}
	}
}

// UpdateStatus resolves the device's open state to Running if any
// non-corked stream is attached, else Idle (§4.1).
func (d *Device) UpdateStatus() {
	if !d.State.Opened() {
		return
	}
	if d.Streams.len()-d.CorkedCount > 0 {
		d.State = Running
	} else {
		d.State = Idle
	}
}

// Attach inserts s into the device's ordered stream set and updates status.
func (d *Device) Attach(s AttachedStream) error {
	if d.MaxAttached > 0 && d.Streams.len() >= d.MaxAttached {
		return avformat.NewError("device.Attach", avformat.TooLarge, fmt.Errorf("max %d streams per device", d.MaxAttached))
	}
	d.Streams.add(s)
	if s.Corked() {
		d.CorkedCount++
	}
	d.UpdateStatus()
	return nil
}

// Detach removes a stream and updates status.
func (d *Device) Detach(index uint32, wasCorked bool) {
	d.Streams.remove(index)
	if wasCorked && d.CorkedCount > 0 {
		d.CorkedCount--
	}
	d.UpdateStatus()
}

// Suspend updates the suspend-cause bitmask and drives the state machine
// when the resulting any-cause-set status flips (§4.1). Monitor sources only
// accept the passthrough cause; every other cause is rejected.
func (d *Device) Suspend(cause SuspendCause, on bool) error {
	if d.MonitorOf != nil && cause != CausePassthrough {
		return avformat.NewError("device.Suspend", avformat.NotSupported, fmt.Errorf("monitor sources only suspend for passthrough"))
	}
	before := d.SuspendCauses.Any()
	if on {
		d.SuspendCauses |= cause
	} else {
		d.SuspendCauses &^= cause
	}
	after := d.SuspendCauses.Any()
	if before == after {
		return nil
	}
	if after {
		d.killSuspendVictims()
		d.State = Suspended
	} else {
		d.UpdateStatus()
		if d.State == Suspended {
			d.State = Idle
			d.UpdateStatus()
		}
	}
	if d.Driver.SetState != nil {
		if err := d.Driver.SetState(d, d.State); err != nil {
			return avformat.NewError("device.Suspend", avformat.NotImplemented, err)
		}
	}
	return nil
}

func (d *Device) killSuspendVictims() {
	for _, s := range d.Streams.list() {
		if s.KillOnSuspend() {
			s.Kill()
		} else {
			s.Suspend(true)
		}
	}
}

// SetMute sets the device mute flag and, if HasHWMute, pushes it to hardware.
func (d *Device) SetMute(mute, save bool) error {
	d.Mute = mute
	d.SaveMute = save
	if d.Flags.Has(HasHWMute) && d.Driver.SetMute != nil {
		if err := d.Driver.SetMute(d); err != nil {
			return avformat.NewError("device.SetMute", avformat.NotImplemented, err)
		}
	}
	return nil
}

// GetMute returns the device mute flag.
func (d *Device) GetMute() bool { return d.Mute }

// SetPort activates the named port. With DeferredVolume set, the switch is
// posted to the IO thread and SetPort blocks for acknowledgement; otherwise
// it runs inline (§4.1, §4.5, §5, §8 property 9).
func (d *Device) SetPort(ctx context.Context, name string, save bool) error {
	const op = "device.SetPort"
	p, ok := d.Ports[name]
	if !ok {
		return avformat.NewError(op, avformat.NoEntity, fmt.Errorf("unknown port %q", name))
	}
	if d.ActivePort == name {
		return nil
	}
	apply := func() error {
		if d.Driver.SetPort != nil {
			return d.Driver.SetPort(d, name)
		}
		return nil
	}
	var err error
	if d.Flags.Has(DeferredVolume) && d.Queue != nil {
		err = d.Queue.Send(ctx, opSetPort, name)
	} else {
		err = apply()
	}
	if err != nil {
		return avformat.NewError(op, avformat.NotImplemented, err)
	}
	d.ActivePort = name
	d.SavePort = save
	d.RequestedLatency = clampLatency(d.RequestedLatency + p.LatencyOffset)
	return nil
}

const opSetPort = 1

func clampLatency(l time.Duration) time.Duration {
	if l < AbsoluteMinLatency {
		return AbsoluteMinLatency
	}
	if l > AbsoluteMaxLatency {
		return AbsoluteMaxLatency
	}
	return l
}

// RequestLatency folds a new stream's requested latency into the device's
// negotiated latency: the minimum across attached streams (§6), clamped to
// the device's own fixed latency when it lacks DynamicLatency.
func (d *Device) RequestLatency(wanted time.Duration) time.Duration {
	if !d.Flags.Has(DynamicLatency) {
		return clampLatency(d.FixedLatency)
	}
	if d.RequestedLatency == 0 || wanted < d.RequestedLatency {
		d.RequestedLatency = wanted
	}
	return clampLatency(d.RequestedLatency)
}

// UpdateRate implements §4.1's rate-switching rule: refused while Running;
// otherwise the requested rate must, for non-passthrough streams, be a
// multiple of 4000 or of 11025 matching the family of DefaultRate or
// AlternateRate.
func (d *Device) UpdateRate(rate uint32, passthrough bool) error {
	const op = "device.UpdateRate"
	if d.State == Running {
		return avformat.NewError(op, avformat.BadState, fmt.Errorf("device is running"))
	}
	if !passthrough {
		of4000, of11025 := avformat.RateMultipleOf(rate)
		if !of4000 && !of11025 {
			return avformat.NewError(op, avformat.NotSupported, fmt.Errorf("rate %d matches neither 4000 nor 11025 family", rate))
		}
		if d.AlternateRate == d.DefaultRate {
			log.Printf("device %s: alternate_rate == default_rate, proceeding against a single rate family", d.Name)
		}
		defOf4000, defOf11025 := avformat.RateMultipleOf(d.DefaultRate)
		altOf4000, altOf11025 := avformat.RateMultipleOf(d.AlternateRate)
		matchesDefault := (of4000 && defOf4000) || (of11025 && defOf11025)
		matchesAlternate := (of4000 && altOf4000) || (of11025 && altOf11025)
		if !matchesDefault && !matchesAlternate {
			return avformat.NewError(op, avformat.NotSupported, fmt.Errorf("rate %d matches neither default nor alternate family", rate))
		}
	}

	prevCauses := d.SuspendCauses
	if err := d.Suspend(CauseIO, true); err != nil {
		return err
	}
	if d.Driver.UpdateRate != nil {
		if err := d.Driver.UpdateRate(d, rate); err != nil {
			d.Suspend(CauseIO, prevCauses.Any())
			return avformat.NewError(op, avformat.NotImplemented, err)
		}
	}
	d.SampleSpec.Rate = rate
	if err := d.Suspend(CauseIO, false); err != nil {
		return err
	}
	for _, s := range d.Streams.list() {
		if s.Corked() {
			_ = s.UpdateRate(rate)
		}
	}
	return nil
}

// RequestRewind forwards a sink input's capped rewind request into the
// device domain so the mixer reruns its mix from this point (§4.4).
func (d *Device) RequestRewind(nbytes int) error {
	if d.Driver.RequestRewind == nil {
		return nil
	}
	if err := d.Driver.RequestRewind(d, nbytes); err != nil {
		return avformat.NewError("device.RequestRewind", avformat.NotImplemented, err)
	}
	return nil
}

// MixerDirty reports and clears the atomic "mixer may have changed
// externally" flag from §5, consuming it the way the reference does on
// resume: the active port / volume / mute are expected to be re-applied by
// the caller when this returns true. CompareAndSwap means a concurrent
// MarkMixerDirty racing with this call is never lost and never double-cleared.
func (d *Device) MixerDirty() bool {
	return d.mixerDirty.CompareAndSwap(true, false)
}

// MarkMixerDirty sets the flag from any context (typically the IO thread).
func (d *Device) MarkMixerDirty() { d.mixerDirty.Store(true) }
