package avformat

// ChannelPosition names one channel's role within a ChannelMap, drawn from
// the fixed enumeration in §3.
type ChannelPosition byte

const (
	PositionMono ChannelPosition = iota
	PositionFrontLeft
	PositionFrontRight
	PositionFrontCenter
	PositionRearLeft
	PositionRearRight
	PositionRearCenter
	PositionLFE
	PositionSideLeft
	PositionSideRight
	PositionTopCenter
	PositionTopFrontLeft
	PositionTopFrontRight
	PositionTopFrontCenter
	PositionTopRearLeft
	PositionTopRearRight
	PositionTopRearCenter
	positionCount
)

func (p ChannelPosition) String() string {
	switch p {
	case PositionMono:
		return "mono"
	case PositionFrontLeft:
		return "front-left"
	case PositionFrontRight:
		return "front-right"
	case PositionFrontCenter:
		return "front-center"
	case PositionRearLeft:
		return "rear-left"
	case PositionRearRight:
		return "rear-right"
	case PositionRearCenter:
		return "rear-center"
	case PositionLFE:
		return "lfe"
	case PositionSideLeft:
		return "side-left"
	case PositionSideRight:
		return "side-right"
	case PositionTopCenter:
		return "top-center"
	case PositionTopFrontLeft:
		return "top-front-left"
	case PositionTopFrontRight:
		return "top-front-right"
	case PositionTopFrontCenter:
		return "top-front-center"
	case PositionTopRearLeft:
		return "top-rear-left"
	case PositionTopRearRight:
		return "top-rear-right"
	case PositionTopRearCenter:
		return "top-rear-center"
	default:
		return "unknown"
	}
}

// PositionMask is a bitmask over ChannelPosition, used by mixer element
// override-maps (§4.2, §6).
type PositionMask uint32

func (p ChannelPosition) Mask() PositionMask { return 1 << uint(p) }

// Named masks from the path config grammar (§6). "all" covers every position
// this enumeration knows about; the directional groups follow common
// loudspeaker layout conventions.
var (
	MaskAll       = PositionMask(1<<positionCount - 1)
	MaskAllLeft   = PositionFrontLeft.Mask() | PositionRearLeft.Mask() | PositionSideLeft.Mask() | PositionTopFrontLeft.Mask() | PositionTopRearLeft.Mask()
	MaskAllRight  = PositionFrontRight.Mask() | PositionRearRight.Mask() | PositionSideRight.Mask() | PositionTopFrontRight.Mask() | PositionTopRearRight.Mask()
	MaskAllFront  = PositionFrontLeft.Mask() | PositionFrontRight.Mask() | PositionFrontCenter.Mask() | PositionTopFrontLeft.Mask() | PositionTopFrontRight.Mask() | PositionTopFrontCenter.Mask()
	MaskAllRear   = PositionRearLeft.Mask() | PositionRearRight.Mask() | PositionRearCenter.Mask() | PositionTopRearLeft.Mask() | PositionTopRearRight.Mask() | PositionTopRearCenter.Mask()
	MaskAllCenter = PositionFrontCenter.Mask() | PositionRearCenter.Mask() | PositionTopCenter.Mask() | PositionTopFrontCenter.Mask() | PositionTopRearCenter.Mask()
	MaskAllSide   = PositionSideLeft.Mask() | PositionSideRight.Mask()
	MaskAllTop    = PositionTopCenter.Mask() | PositionTopFrontLeft.Mask() | PositionTopFrontRight.Mask() | PositionTopFrontCenter.Mask() | PositionTopRearLeft.Mask() | PositionTopRearRight.Mask() | PositionTopRearCenter.Mask()
	MaskAllNoLFE  = MaskAll &^ PositionLFE.Mask()
)

// ChannelMap assigns an abstract position to each channel of a sample buffer.
type ChannelMap []ChannelPosition

// Valid reports whether m has between 1 and 32 channels and, if it names
// PositionMono, names only that.
func (m ChannelMap) Valid() bool {
	if len(m) == 0 || len(m) > 32 {
		return false
	}
	if len(m) > 1 {
		for _, p := range m {
			if p == PositionMono {
				return false
			}
		}
	}
	return true
}

// CompatibleWith reports whether m's channel count matches spec's, the
// notion of "compatible" used throughout §3 for channel volumes and maps.
func (m ChannelMap) CompatibleWith(spec SampleSpec) bool {
	return len(m) == int(spec.Channels)
}

// StereoMap and MonoMap are the two canonical maps streams request most often.
var (
	MonoMap   = ChannelMap{PositionMono}
	StereoMap = ChannelMap{PositionFrontLeft, PositionFrontRight}
)

// DefaultMapFor derives a plausible channel map for a bare channel count,
// used when a device or stream supplies a sample spec without a map.
func DefaultMapFor(channels byte) ChannelMap {
	switch channels {
	case 1:
		return ChannelMap{PositionMono}
	case 2:
		return ChannelMap{PositionFrontLeft, PositionFrontRight}
	case 4:
		return ChannelMap{PositionFrontLeft, PositionFrontRight, PositionRearLeft, PositionRearRight}
	case 6:
		return ChannelMap{PositionFrontLeft, PositionFrontRight, PositionFrontCenter, PositionLFE, PositionRearLeft, PositionRearRight}
	default:
		m := make(ChannelMap, channels)
		for i := range m {
			m[i] = PositionFrontLeft
		}
		return m
	}
}

// Mask returns the OR of every position m names.
func (m ChannelMap) Mask() PositionMask {
	var mask PositionMask
	for _, p := range m {
		mask |= p.Mask()
	}
	return mask
}

// IndexOf returns the first channel index carrying position p, or -1.
func (m ChannelMap) IndexOf(p ChannelPosition) int {
	for i, q := range m {
		if q == p {
			return i
		}
	}
	return -1
}
