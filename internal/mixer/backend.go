package mixer

// Backend is the hardware mixer driver binding §1 carves out of scope: a
// path prober only ever calls these methods, never touches a device node
// directly. internal/alsamixer implements this over ALSA control-device
// ioctls; a test double can implement it over plain maps.
type Backend interface {
	// Element resolves name to a control handle, or reports it absent.
	Element(name string) (ElementHandle, bool)
	// Jack resolves name to a plug-detect handle, or reports it absent.
	Jack(name string) (JackHandle, bool)
}

// ElementHandle is one resolved hardware mixer control (§4.2 "Element
// probe").
type ElementHandle interface {
	// HasSwitch/HasVolume/HasEnum report whether this control exposes that
	// facet in the given direction.
	HasSwitch(d Direction) bool
	HasVolume(d Direction) bool
	HasEnum() bool

	GetSwitch(d Direction) (bool, error)
	SetSwitch(d Direction, on bool) error

	// VolumeRange returns the integer hardware step range [min,max].
	VolumeRange(d Direction) (min, max int64, err error)
	// HasDB reports whether the control has its own calibrated dB range.
	HasDB(d Direction) bool
	// DBRange returns [minDB,maxDB] in millibel.
	DBRange(d Direction) (minDB, maxDB millibel, err error)
	// DBAt returns the dB value (millibel) the control reports at step.
	DBAt(d Direction, step int64) (millibel, error)
	// StepNearestDB returns the step whose dB is closest to target,
	// rounding in dir (+1 up, -1 down), used by the deferred "nearest
	// selectable dB" rule (§4.2 Set-volume algorithm).
	StepNearestDB(d Direction, target millibel, dir int) (int64, error)

	GetVolume(d Direction) (int64, error)
	SetVolume(d Direction, step int64) error

	// EnumCount/EnumName enumerate the hardware's option strings for a
	// SELECT-style switch or an enumeration control.
	EnumCount() int
	EnumName(i int) (string, error)
	EnumCurrent() (int, error)
	SetEnum(i int) error

	// ChannelCount and HasChannel let the prober build the per-channel
	// position masks described in §4.2.
	ChannelCount(d Direction) int
	HasChannel(d Direction, alsaChannel int) bool
}

// JackHandle is one plug-detect control (§4.2 "jacks").
type JackHandle interface {
	Plugged() (bool, error)
}
