// Package stream implements the source-output and sink-input stream cores
// from §3/§4.3/§4.4: identity, the volume quadruple, flags, state machine,
// the move protocol, and the push (capture) / peek-drop (playback)
// pipelines built on a resampler and delay/render queues.
package stream

// Flags are the per-stream creation-time flags from §3, named the way
// CreatePlaybackStream/CreateRecordStream's request flags are in the
// PulseAudio native protocol (NoRemap, FixFormat, ...).
type Flags uint32

const (
	DontMove Flags = 1 << iota
	DontInhibitAutoSuspend
	KillOnSuspend
	StartCorked
	VariableRate
	NoRemap
	NoRemix
	FixFormat
	FixRate
	FixChannels
	Passthrough
	NoCreateOnSuspend
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }
