package avformat

import (
	"encoding/binary"
	"math"
)

// ApplyVolume is the "volume-apply primitive over a memory chunk" that §1
// names as the boundary of this module's Non-goals: the server core decides
// *what* volume to apply and *when*; this function is the one place that
// actually multiplies samples, so a real implementation can be swapped in
// (SIMD, lookup tables, whatever) without touching the core's volume
// algebra. It mutates a copy of chunk and returns it; sample i belongs to
// channel i modulo spec.Channels, and channels past the end of cv are left
// at unity.
func ApplyVolume(chunk []byte, spec SampleSpec, cv ChannelVolume) []byte {
	if len(cv) == 0 || cv.IsUnity() {
		return chunk
	}
	frame := spec.FrameSize()
	if frame == 0 || len(chunk) < spec.BytesPerSample() {
		return chunk
	}
	out := make([]byte, len(chunk))
	copy(out, chunk)

	bps := spec.BytesPerSample()
	channels := int(spec.Channels)
	if channels == 0 {
		channels = 1
	}
	nSamples := len(out) / bps

	for i := 0; i < nSamples; i++ {
		ch := i % channels
		var v Volume = Norm
		if ch < len(cv) {
			v = cv[ch]
		}
		if v == Norm {
			continue
		}
		off := i * bps
		s := out[off : off+bps]
		applySample(s, spec.Format, v)
	}
	return out
}

func applySample(s []byte, format byte, v Volume) {
	switch format {
	case EncodingUint8:
		centered := int32(s[0]) - 128
		s[0] = byte(clampInt32(scaleInt32(centered, v), -128, 127) + 128)
	case EncodingInt16LE:
		x := int32(int16(binary.LittleEndian.Uint16(s)))
		binary.LittleEndian.PutUint16(s, uint16(int16(clampInt32(scaleInt32(x, v), -32768, 32767))))
	case EncodingInt16BE:
		x := int32(int16(binary.BigEndian.Uint16(s)))
		binary.BigEndian.PutUint16(s, uint16(int16(clampInt32(scaleInt32(x, v), -32768, 32767))))
	case EncodingInt32LE:
		x := int32(binary.LittleEndian.Uint32(s))
		binary.LittleEndian.PutUint32(s, uint32(scaleInt32(x, v)))
	case EncodingInt32BE:
		x := int32(binary.BigEndian.Uint32(s))
		binary.BigEndian.PutUint32(s, uint32(scaleInt32(x, v)))
	case EncodingFloat32LE:
		bits := binary.LittleEndian.Uint32(s)
		f := math.Float32frombits(bits) * float32(v) / float32(Norm)
		binary.LittleEndian.PutUint32(s, math.Float32bits(f))
	case EncodingFloat32BE:
		bits := binary.BigEndian.Uint32(s)
		f := math.Float32frombits(bits) * float32(v) / float32(Norm)
		binary.BigEndian.PutUint32(s, math.Float32bits(f))
	}
}

func scaleInt32(x int32, v Volume) int32 {
	return int32((int64(x) * int64(v)) / int64(Norm))
}

func clampInt32(x, lo, hi int32) int32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// IsUnity reports whether every channel is Norm (a no-op gain), letting
// callers skip the copy-and-scan entirely on the common "no adjustment"
// path.
func (cv ChannelVolume) IsUnity() bool {
	for _, v := range cv {
		if v != Norm {
			return false
		}
	}
	return true
}
