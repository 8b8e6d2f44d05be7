package stream

import "github.com/gopulse/audiocore/avformat"

// applyVolume multiplies chunk (in spec's format) by cv in place, delegating
// the actual sample arithmetic to avformat.ApplyVolume: the mixing math
// itself is out of this module's scope (§1), but something has to call the
// primitive at the right point in the push/peek pipeline.
func applyVolume(chunk []byte, spec avformat.SampleSpec, cv avformat.ChannelVolume) []byte {
	return avformat.ApplyVolume(chunk, spec, cv)
}
