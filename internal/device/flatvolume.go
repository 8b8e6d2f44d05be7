package device

import (
	"context"
	"fmt"

	"github.com/gopulse/audiocore/avformat"
)

// collectSubtree returns root and every device sharing volume with it,
// transitively, in a stable order (root first).
func collectSubtree(root *Device) []*Device {
	all := []*Device{root}
	for _, c := range root.sharingChildren {
		all = append(all, collectSubtree(c)...)
	}
	return all
}

// SetVolume implements §4.1's set_volume: it walks to the sharing root; if
// v is supplied, interprets it relative to the root's channel map (a mono
// volume broadcasts to every channel); otherwise, in flat mode, it
// resynchronizes the device's volume from its attached streams. It then
// recomputes reference, real and soft volumes down the sharing tree.
func (d *Device) SetVolume(v avformat.ChannelVolume, sendMsg, save bool) error {
	const op = "device.SetVolume"
	root := d.ShareRoot()

	if v != nil {
		if len(v) == 1 {
			v = avformat.Uniform(int(root.SampleSpec.Channels), v[0])
		}
		if !v.CompatibleWith(root.SampleSpec) {
			return avformat.NewError(op, avformat.Invalid, fmt.Errorf("volume channel count mismatch"))
		}
		root.ReferenceVolume = append(avformat.ChannelVolume(nil), v...)
	} else if !root.Flags.Has(FlatVolume) {
		return avformat.NewError(op, avformat.Invalid, fmt.Errorf("volume required in non-flat mode"))
	}

	root.SaveVolume = save

	if root.Flags.Has(FlatVolume) {
		root.recomputeFlat()
	} else {
		root.recomputeNonFlat()
	}

	if sendMsg && root.Flags.Has(HasHWVolume) && root.Driver.SetVolume != nil {
		if err := root.Driver.SetVolume(root); err != nil {
			return avformat.NewError(op, avformat.NotImplemented, err)
		}
	}
	return nil
}

// recomputeFlat is the flat-volume core algorithm from §4.1.
func (root *Device) recomputeFlat() {
	subtree := collectSubtree(root)

	var streams []AttachedStream
	for _, dev := range subtree {
		streams = append(streams, dev.Streams.list()...)
	}

	if len(streams) == 0 {
		// No streams: hold reference, real tracks it.
		root.RealVolume = append(avformat.ChannelVolume(nil), root.ReferenceVolume...)
	} else {
		acc := avformat.Uniform(int(root.SampleSpec.Channels), avformat.Muted)
		for _, s := range streams {
			remapped := avformat.Remap(s.Volume(), s.ChannelMap(), root.ChannelMap, acc)
			for i := range acc {
				if remapped[i] > acc[i] {
					acc[i] = remapped[i]
				}
			}
		}
		root.RealVolume = acc
	}

	for _, child := range root.sharingChildren {
		child.RealVolume = avformat.Remap(root.RealVolume, root.ChannelMap, child.ChannelMap, child.RealVolume)
		child.ReferenceVolume = avformat.Remap(root.ReferenceVolume, root.ChannelMap, child.ChannelMap, child.ReferenceVolume)
	}

	for _, dev := range subtree {
		for _, s := range dev.Streams.list() {
			applyStreamFlatRatios(s, dev, root)
		}
	}
}

func applyStreamFlatRatios(s AttachedStream, origin, root *Device) {
	channels := int(origin.SampleSpec.Channels)
	if origin != root {
		s.SetRealRatio(avformat.Uniform(channels, avformat.Norm))
		s.SetSoftVolume(append(avformat.ChannelVolume(nil), s.VolumeFactor()...))
		return
	}

	vol := s.Volume()
	realRatio := make(avformat.ChannelVolume, len(vol))
	refRatio := make(avformat.ChannelVolume, len(vol))
	soft := make(avformat.ChannelVolume, len(vol))
	for i := range vol {
		if i >= len(root.RealVolume) || root.RealVolume[i] == avformat.Muted {
			realRatio[i] = avformat.Norm
			soft[i] = avformat.Muted
		} else {
			realRatio[i] = vol[i].Divide(root.RealVolume[i])
			factor := avformat.Norm
			if i < len(s.VolumeFactor()) {
				factor = s.VolumeFactor()[i]
			}
			soft[i] = realRatio[i].Multiply(factor)
		}
		if i < len(root.ReferenceVolume) && root.ReferenceVolume[i] != avformat.Muted {
			refRatio[i] = vol[i].Divide(root.ReferenceVolume[i])
		} else {
			refRatio[i] = avformat.Norm
		}
	}
	s.SetRealRatio(realRatio)
	s.SetReferenceRatio(refRatio)
	s.SetSoftVolume(soft)
}

// recomputeNonFlat implements §4.1's non-flat mode: RealVolume tracks
// ReferenceVolume, and each stream's SoftVolume is VolumeFactor * RealRatio,
// where RealRatio defaults to the stream's own volume.
func (root *Device) recomputeNonFlat() {
	root.RealVolume = append(avformat.ChannelVolume(nil), root.ReferenceVolume...)
	for _, s := range root.Streams.list() {
		realRatio := s.Volume()
		s.SetRealRatio(realRatio)
		soft := make(avformat.ChannelVolume, len(realRatio))
		factor := s.VolumeFactor()
		for i := range soft {
			f := avformat.Norm
			if i < len(factor) {
				f = factor[i]
			}
			soft[i] = realRatio[i].Multiply(f)
		}
		s.SetSoftVolume(soft)
	}
}

// GetVolume returns the device's reference volume, optionally requesting a
// hardware readback first (§4.1).
func (d *Device) GetVolume(ctx context.Context, forceRefresh bool) (avformat.ChannelVolume, error) {
	if forceRefresh && d.Flags.Has(HasHWVolume) && d.Driver.GetVolume != nil {
		v, err := d.Driver.GetVolume(d)
		if err != nil {
			return nil, avformat.NewError("device.GetVolume", avformat.NotImplemented, err)
		}
		if err := d.SetVolume(v, false, d.SaveVolume); err != nil {
			return nil, err
		}
	}
	return append(avformat.ChannelVolume(nil), d.ReferenceVolume...), nil
}
