package device

import "github.com/gopulse/audiocore/avformat"

// AttachedStream is the subset of a source-output/sink-input's behavior the
// device core needs: enough to drive the state machine, the flat-volume
// algorithm and suspend propagation without this package importing the
// stream package (which imports this one for the device back-edge).
type AttachedStream interface {
	Index() uint32
	Corked() bool
	KillOnSuspend() bool
	Kill()
	Suspend(on bool) error
	// UpdateRate gives a corked stream a chance to re-resample after the
	// device's sample rate changes underneath it (§4.1).
	UpdateRate(rate uint32) error

	// ChannelMap and Volume report the stream's own map/volume, used by the
	// flat-volume algorithm's remap step.
	ChannelMap() avformat.ChannelMap
	Volume() avformat.ChannelVolume
	VolumeFactor() avformat.ChannelVolume
	// RefRatio reports the stream's current reference_ratio (named to avoid
	// colliding with the ReferenceRatio field implementers carry).
	RefRatio() avformat.ChannelVolume

	// OriginDevice is the device this stream is currently attached to. The
	// flat-volume algorithm compares it against the sharing root being
	// recomputed to decide whether the stream's contribution was already
	// folded in by a child's own recomputation.
	OriginDevice() *Device

	SetVolume(avformat.ChannelVolume)
	SetRealRatio(avformat.ChannelVolume)
	SetReferenceRatio(avformat.ChannelVolume)
	SetSoftVolume(avformat.ChannelVolume)
}

// streamSet is an insertion-ordered collection keyed by stable index (§3
// "ordered set by stable index").
type streamSet struct {
	order []uint32
	byIdx map[uint32]AttachedStream
}

func newStreamSet() *streamSet {
	return &streamSet{byIdx: make(map[uint32]AttachedStream)}
}

func (s *streamSet) add(st AttachedStream) {
	if _, exists := s.byIdx[st.Index()]; exists {
		return
	}
	s.order = append(s.order, st.Index())
	s.byIdx[st.Index()] = st
}

func (s *streamSet) remove(index uint32) {
	if _, ok := s.byIdx[index]; !ok {
		return
	}
	delete(s.byIdx, index)
	for i, idx := range s.order {
		if idx == index {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *streamSet) list() []AttachedStream {
	out := make([]AttachedStream, 0, len(s.order))
	for _, idx := range s.order {
		out = append(out, s.byIdx[idx])
	}
	return out
}

func (s *streamSet) len() int { return len(s.order) }

// AttachedStreams returns every stream currently attached to d, in stable
// insertion order (§3 "ordered set by stable index").
func (d *Device) AttachedStreams() []AttachedStream { return d.Streams.list() }

// AttachedCount returns the number of streams currently attached to d.
func (d *Device) AttachedCount() int { return d.Streams.len() }
