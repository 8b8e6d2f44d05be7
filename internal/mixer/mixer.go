// Package mixer implements the port-and-path mixer abstraction from §4.2: a
// path is an ordered graph of hardware mixer elements probed against a
// Backend and reduced to one logical volume slider, one logical mute
// switch, and an optional pick-list of named settings. Path sets collect
// every path applicable to one device direction, probe them, and condense
// away redundant ones.
package mixer

import "github.com/gopulse/audiocore/avformat"

// Direction is playback or capture, as an ALSA mixer element understands it
// (§6 "direction = playback|capture").
type Direction int

const (
	Playback Direction = iota
	Capture
)

func (d Direction) Opposite() Direction {
	if d == Playback {
		return Capture
	}
	return Playback
}

// Requirement is the presence constraint an element/jack/option declares in
// its config stanza (§6 "required / required-any / required-absent").
type Requirement int

const (
	RequireIgnore Requirement = iota
	RequireSwitch
	RequireVolume
	RequireEnumeration
	RequireAny
)

// Availability mirrors §4.5's jack-derived port status.
type Availability int

const (
	AvailableUnknown Availability = iota
	AvailableYes
	AvailableNo
)

// millibel is the unit dB ranges and DecibelFix tables are expressed in
// (hundredths of a dB), matching ALSA's own convention so a Backend can pass
// values straight through without conversion.
type millibel = int64

// channelMask is shorthand for the per-element/per-channel position mask
// computed during probing (§4.2 "Compute per-channel position masks").
type channelMask = avformat.PositionMask
