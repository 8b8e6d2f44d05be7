package avformat

// Sample encodings, numbered the way the PulseAudio native protocol numbers
// them so that a driver backend can pass these values straight through.
const (
	EncodingUint8 = 0
	EncodingInt16LE = 3
	EncodingInt16BE = 4
	EncodingFloat32LE = 5
	EncodingFloat32BE = 6
	EncodingInt32LE = 7
	EncodingInt32BE = 8
)

// Sample rate bounds, §6.
const (
	MinRate = 8000
	// MaxRate is the configured ceiling; a Core can lower it but never raise it.
	MaxRate = 384000
)

// SampleSpec is (encoding, rate, channel count), §3.
type SampleSpec struct {
	Format   byte
	Channels byte
	Rate     uint32
}

// BytesPerSample returns the width of a single sample in this format, or 0
// for an unrecognized encoding.
func (s SampleSpec) BytesPerSample() int {
	switch s.Format {
	case EncodingUint8:
		return 1
	case EncodingInt16LE, EncodingInt16BE:
		return 2
	case EncodingInt32LE, EncodingInt32BE, EncodingFloat32LE, EncodingFloat32BE:
		return 4
	default:
		return 0
	}
}

// FrameSize is the number of bytes in one sample across all channels.
func (s SampleSpec) FrameSize() int {
	return s.BytesPerSample() * int(s.Channels)
}

// Valid reports whether the spec is usable: known format, at least one
// channel, and a rate within [MinRate, MaxRate].
func (s SampleSpec) Valid() bool {
	if s.BytesPerSample() == 0 {
		return false
	}
	if s.Channels == 0 || s.Channels > 32 {
		return false
	}
	if s.Rate < MinRate || s.Rate > MaxRate {
		return false
	}
	return true
}

// BytesToUsec converts a byte count in this format to microseconds.
func (s SampleSpec) BytesToUsec(n int64) int64 {
	fs := int64(s.FrameSize())
	if fs == 0 || s.Rate == 0 {
		return 0
	}
	return n * 1000000 / fs / int64(s.Rate)
}

// UsecToBytes converts a duration in microseconds to a byte count, rounded
// down to a whole number of frames.
func (s SampleSpec) UsecToBytes(usec int64) int64 {
	fs := int64(s.FrameSize())
	frames := usec * int64(s.Rate) / 1000000
	return frames * fs
}

// RateMultipleOf reports whether rate is a multiple of 4000 and whether it
// is a multiple of 11025, the two rate families of §4.1, §6.
func RateMultipleOf(rate uint32) (of4000, of11025 bool) {
	return rate%4000 == 0, rate%11025 == 0
}
