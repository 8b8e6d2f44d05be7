package mixer

import (
	"fmt"

	"github.com/gopulse/audiocore/avformat"
)

// SwitchUse is how a path uses an element's on/off switch (§4.2, §6).
type SwitchUse int

const (
	SwitchIgnore SwitchUse = iota
	SwitchMute
	SwitchOn
	SwitchOff
	SwitchSelect
)

// VolumeUse is how a path uses an element's volume control (§4.2, §6).
type VolumeUse int

const (
	VolumeIgnore VolumeUse = iota
	VolumeMerge
	VolumeOff
	VolumeZero
	VolumeConstant
)

// EnumUse is how a path uses an element's enumeration control (§4.2, §6).
type EnumUse int

const (
	EnumIgnore EnumUse = iota
	EnumSelect
)

// Element is one `[Element <alsa-name>]` stanza: config plus, after Probe,
// the hardware facts needed by Path's get/set-volume algorithms.
type Element struct {
	AlsaName string

	SwitchUse         SwitchUse
	VolumeUse         VolumeUse
	ConstantValue     int64
	EnumUse           EnumUse
	Direction         Direction
	DirectionTryOther bool
	VolumeLimit       int64 // §6 "max hw step allowed"; 0 (the zero value) means unconstrained
	OverrideMap       map[int][2]channelMask

	Required      Requirement
	RequireAny    bool
	RequireAbsent bool

	DBFix *DBFix

	Options []*Option

	// --- probed state ---
	handle    ElementHandle
	present   bool
	hasSwitch bool
	hasVolume bool
	hasDB     bool
	minStep   int64
	maxStep   int64
	minDB     millibel
	maxDB     millibel
}

// Present reports whether the element resolved to a real hardware control.
func (e *Element) Present() bool { return e.present }

// HasDB reports whether this element's volume is dB-calibrated (possibly
// via a DBFix table).
func (e *Element) HasDB() bool { return e.hasDB }

// errDriverBroken marks an element rejected because the hardware reported
// self-contradictory dB data (§4.2, §7 "driver broken data").
type errDriverBroken struct {
	element string
	reason  string
}

func (e errDriverBroken) Error() string {
	return fmt.Sprintf("mixer: element %q: driver broken: %s", e.element, e.reason)
}

// Probe resolves e against backend in the path's direction, implementing
// §4.2's "Element probe" algorithm. A missing `required` element is an
// error the caller sees (Path.Probe turns it into path rejection). A
// missing optional element, or one whose hardware reports
// self-contradictory dB data, is degraded to all-IGNORE and returns nil,
// matching §7's "driver broken data is logged and the element is dropped
// from the path" policy. Any other backend error while reading the volume
// or dB range is returned as is.
func (e *Element) Probe(backend Backend, pathDirection Direction) error {
	h, ok := backend.Element(e.AlsaName)
	if !ok {
		if e.Required != RequireIgnore {
			return fmt.Errorf("mixer: required element %q not found", e.AlsaName)
		}
		e.degradeToIgnore()
		return nil
	}
	e.handle = h
	e.present = true

	dir := pathDirection
	if e.SwitchUse != SwitchIgnore {
		if !h.HasSwitch(dir) && e.DirectionTryOther && h.HasSwitch(dir.Opposite()) {
			dir = dir.Opposite()
			e.Direction = dir
		}
		e.hasSwitch = h.HasSwitch(dir)
		if !e.hasSwitch {
			e.SwitchUse = SwitchIgnore
		}
	}

	if e.VolumeUse == VolumeMerge || e.VolumeUse == VolumeZero || e.VolumeUse == VolumeOff {
		e.hasVolume = h.HasVolume(dir)
		if !e.hasVolume {
			e.VolumeUse = VolumeIgnore
		} else if err := e.probeVolumeRange(h, dir); err != nil {
			var broken errDriverBroken
			if asErrDriverBroken(err, &broken) {
				e.degradeToIgnore()
				return nil
			}
			return err
		}
	}

	if e.EnumUse == EnumSelect || e.SwitchUse == SwitchSelect {
		n := h.EnumCount()
		for _, opt := range e.Options {
			opt.hwIndex = -1
			for i := 0; i < n; i++ {
				name, err := h.EnumName(i)
				if err == nil && name == opt.AlsaName {
					opt.hwIndex = i
					opt.present = true
					break
				}
			}
		}
	}

	return nil
}

func (e *Element) probeVolumeRange(h ElementHandle, dir Direction) error {
	minStep, maxStep, err := h.VolumeRange(dir)
	if err != nil {
		return err
	}
	e.minStep, e.maxStep = minStep, maxStep

	if e.DBFix != nil {
		if e.DBFix.MinStep < minStep || e.DBFix.MaxStep > maxStep {
			return errDriverBroken{e.AlsaName, "decibel fix step range exceeds hardware range"}
		}
		e.minStep, e.maxStep = e.DBFix.MinStep, e.DBFix.MaxStep
		e.minDB, e.maxDB = e.DBFix.At(e.minStep), e.DBFix.At(e.maxStep)
		e.hasDB = true
		return nil
	}

	if !h.HasDB(dir) {
		e.hasDB = false
		return nil
	}
	minDB, maxDB, err := h.DBRange(dir)
	if err != nil {
		return err
	}
	atMin, err := h.DBAt(dir, minStep)
	if err != nil {
		return err
	}
	atMax, err := h.DBAt(dir, maxStep)
	if err != nil {
		return err
	}
	if atMin != minDB || atMax != maxDB {
		return errDriverBroken{e.AlsaName, "dB-at-step endpoints disagree with reported dB range"}
	}
	e.minDB, e.maxDB = minDB, maxDB
	e.hasDB = true
	return nil
}

func (e *Element) degradeToIgnore() {
	e.SwitchUse = SwitchIgnore
	e.VolumeUse = VolumeIgnore
	e.EnumUse = EnumIgnore
	e.present = false
}

func asErrDriverBroken(err error, out *errDriverBroken) bool {
	b, ok := err.(errDriverBroken)
	if ok {
		*out = b
	}
	return ok
}

// Mask returns the per-channel position mask this element covers for a
// sample spec with the given channel count (§4.2 "Compute per-channel
// position masks"). An explicit override-map entry for that channel count
// wins; otherwise the element is treated as covering every position (the
// common case for a single full-range volume/mute control).
func (e *Element) Mask(channels int) channelMask {
	if m, ok := e.OverrideMap[channels]; ok {
		return m[0] | m[1]
	}
	return avformat.MaskAll
}
