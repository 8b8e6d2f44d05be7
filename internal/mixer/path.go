package mixer

import (
	"fmt"

	"github.com/gopulse/audiocore/avformat"
)

// Setting is a named permutation of a path's SELECT-style options (§4.2,
// §6 "synthesize Cartesian settings"), keyed by the owning element's name.
type Setting struct {
	Name        string
	Description string
	Priority    uint32
	Choices     map[string]*Option
}

// Path is an ordered graph of elements exposing one logical volume slider,
// mute switch, and settings pick-list (§4.2).
type Path struct {
	Name                 string
	Description          string
	DescriptionKey       string
	Priority             uint32
	MuteDuringActivation bool
	EldDevice            int
	Direction            Direction

	Elements []*Element
	Jacks    []*Jack
	Settings []*Setting

	HasVolume bool
	HasDB     bool
	HasMute   bool
	MinDB     millibel
	MaxDB     millibel
}

// Probe resolves every element and jack against backend and computes the
// path-level invariants from §4.2. A required element/jack missing, or a
// required_any group with nothing present, rejects the whole path.
func (p *Path) Probe(backend Backend) error {
	for _, e := range p.Elements {
		if err := e.Probe(backend, p.Direction); err != nil {
			return fmt.Errorf("mixer: path %q: %w", p.Name, err)
		}
	}
	for _, j := range p.Jacks {
		if err := j.Probe(backend); err != nil {
			return fmt.Errorf("mixer: path %q: %w", p.Name, err)
		}
	}

	if !p.requiredAnySatisfied() {
		return fmt.Errorf("mixer: path %q: no required-any element/jack/option present", p.Name)
	}

	p.demoteNonDBMergeElements()
	p.computeInvariants()
	return nil
}

func (p *Path) requiredAnySatisfied() bool {
	any := false
	satisfied := false
	for _, e := range p.Elements {
		if e.RequireAny {
			any = true
			if e.Present() {
				satisfied = true
			}
		}
		for _, o := range e.Options {
			if o.RequireAny {
				any = true
				if o.Present() {
					satisfied = true
				}
			}
		}
	}
	for _, j := range p.Jacks {
		if j.RequireAny {
			any = true
			if j.Present() {
				satisfied = true
			}
		}
	}
	return !any || satisfied
}

// demoteNonDBMergeElements implements §4.2: "If an earlier MERGE element
// lacks dB but a later one has dB, the earlier element is demoted to
// VOLUME_ZERO so that all variable gain is concentrated in dB-capable
// elements."
func (p *Path) demoteNonDBMergeElements() {
	sawDBMerge := false
	for i := len(p.Elements) - 1; i >= 0; i-- {
		e := p.Elements[i]
		if e.VolumeUse != VolumeMerge {
			continue
		}
		if e.hasDB {
			sawDBMerge = true
		} else if sawDBMerge {
			e.VolumeUse = VolumeZero
		}
	}
}

func (p *Path) computeInvariants() {
	p.HasVolume = false
	p.HasMute = false
	allDB := true
	var minDB, maxDB millibel

	for _, e := range p.Elements {
		if e.VolumeUse == VolumeMerge {
			p.HasVolume = true
			if e.hasDB {
				minDB += e.minDB
				maxDB += e.maxDB
			} else {
				allDB = false
			}
		}
		if e.SwitchUse == SwitchMute {
			p.HasMute = true
		}
	}
	p.HasDB = p.HasVolume && allDB
	if p.HasDB {
		p.MinDB, p.MaxDB = minDB, maxDB
	}
}

// GetVolume implements §4.2's get-volume algorithm: read each MERGE
// element's channel volume (dB or linear); on a dB path multiply the
// volumes of the elements covering each channel, otherwise take the first
// element's volume; fill uncovered channels with NORM.
func (p *Path) GetVolume(cmap avformat.ChannelMap) (avformat.ChannelVolume, error) {
	channels := len(cmap)
	out := avformat.Uniform(channels, avformat.Norm)
	covered := make([]bool, channels)

	var first avformat.ChannelVolume
	combined := avformat.Uniform(channels, avformat.Norm)

	for _, e := range p.Elements {
		if e.VolumeUse != VolumeMerge || !e.present {
			continue
		}
		v, err := e.readVolume(p.HasDB)
		if err != nil {
			return nil, fmt.Errorf("mixer: path %q: element %q: %w", p.Name, e.AlsaName, err)
		}
		mask := e.Mask(channels)
		perChan := avformat.Uniform(channels, v)
		if first == nil {
			first = perChan
		}
		for c, pos := range cmap {
			if mask&pos.Mask() == 0 {
				continue
			}
			covered[c] = true
			if p.HasDB {
				combined[c] = combined[c].Multiply(perChan[c])
			} else {
				combined[c] = perChan[c]
			}
		}
	}

	if first == nil {
		return out, nil
	}
	if !p.HasDB {
		for c := 0; c < channels; c++ {
			if covered[c] {
				out[c] = first[c]
			}
		}
		return out, nil
	}
	for c := 0; c < channels; c++ {
		if covered[c] {
			out[c] = combined[c]
		}
	}
	return out, nil
}

// readVolume returns e's current setting as a linear Volume, through the
// dB path if asDB is set, otherwise from the raw hardware step fraction.
func (e *Element) readVolume(asDB bool) (avformat.Volume, error) {
	step, err := e.handle.GetVolume(e.Direction)
	if err != nil {
		return 0, err
	}
	if !asDB || !e.hasDB {
		return avformat.VolumeFromHardware(step, e.minStep, e.maxStep), nil
	}
	var db millibel
	if e.DBFix != nil {
		db = e.DBFix.At(step)
	} else {
		v, err := e.handle.DBAt(e.Direction, step)
		if err != nil {
			return 0, err
		}
		db = v
	}
	return avformat.FromDB(float64(db) / 100), nil
}

// SetVolume implements §4.2's set-volume algorithm: for each MERGE element,
// compute the per-channel target from the volume remaining after earlier
// elements absorbed their share, clamp to the element's max dB (including
// VolumeLimit), and round toward +inf for playback / -inf for capture
// (or to the nearest selectable dB when deferred is set).
func (p *Path) SetVolume(v avformat.ChannelVolume, deferred bool) error {
	remaining := append(avformat.ChannelVolume(nil), v...)
	absorbed := avformat.Uniform(len(v), avformat.Norm)

	for _, e := range p.Elements {
		if e.VolumeUse != VolumeMerge || !e.present {
			continue
		}
		target := remaining.Max()
		if err := e.writeVolume(target, p.Direction, deferred); err != nil {
			return fmt.Errorf("mixer: path %q: element %q: %w", p.Name, e.AlsaName, err)
		}
		applied, err := e.readVolume(p.HasDB)
		if err != nil {
			return err
		}
		for c := range remaining {
			absorbed[c] = absorbed[c].Multiply(applied)
			if applied != avformat.Muted {
				remaining[c] = remaining[c].Divide(applied)
			}
		}
	}
	return nil
}

func (e *Element) writeVolume(target avformat.Volume, dir Direction, deferred bool) error {
	if !e.hasDB {
		step := target.ToHardware(e.minStep, e.maxStep)
		return e.handle.SetVolume(dir, step)
	}

	db := target.ToDB() * 100 // to millibel
	maxDB := e.maxDB
	if e.VolumeLimit > 0 && e.VolumeLimit < e.maxStep-e.minStep {
		limitDB := e.dbAtStep(e.minStep + e.VolumeLimit)
		if limitDB < maxDB {
			maxDB = limitDB
		}
	}
	if db > float64(maxDB) {
		db = float64(maxDB)
	}
	if db < float64(e.minDB) {
		db = float64(e.minDB)
	}

	roundDir := 1
	if dir == Capture {
		roundDir = -1
	}

	// Round up for playback, down for capture; when deferred, also try the
	// opposite direction and keep whichever step lands closer to the target.
	step, err := e.handle.StepNearestDB(dir, millibel(db), roundDir)
	if err != nil {
		return err
	}
	if deferred {
		other, err := e.handle.StepNearestDB(dir, millibel(db), -roundDir)
		if err != nil {
			return err
		}
		if absMillibel(e.dbAtStep(other)-millibel(db)) < absMillibel(e.dbAtStep(step)-millibel(db)) {
			step = other
		}
	}
	return e.handle.SetVolume(dir, step)
}

// Select activates path as a whole: its switches are driven to the fixed
// positions their use demands (SwitchOn/SwitchOff), its constant-volume
// elements are written, and setting's SELECT choices are applied, in the
// order the reference implementation's pa_alsa_path_select uses. When
// MuteDuringActivation is set, every SwitchMute element is muted first and
// restored to deviceMuted's complement only once everything else has
// settled, so a path switch never pops (§4.2, §6 "mute-during-activation").
func (p *Path) Select(setting *Setting, deviceMuted bool) error {
	if p.MuteDuringActivation {
		for _, e := range p.Elements {
			if e.SwitchUse == SwitchMute && e.present {
				_ = e.handle.SetSwitch(e.Direction, false)
			}
		}
	}

	for _, e := range p.Elements {
		if !e.present {
			continue
		}
		switch e.SwitchUse {
		case SwitchOff:
			if err := e.handle.SetSwitch(e.Direction, false); err != nil {
				return fmt.Errorf("mixer: path %q: element %q: %w", p.Name, e.AlsaName, err)
			}
		case SwitchOn:
			if err := e.handle.SetSwitch(e.Direction, true); err != nil {
				return fmt.Errorf("mixer: path %q: element %q: %w", p.Name, e.AlsaName, err)
			}
		}

		switch e.VolumeUse {
		case VolumeOff:
			if err := e.writeVolume(avformat.Muted, e.Direction, false); err != nil {
				return fmt.Errorf("mixer: path %q: element %q: %w", p.Name, e.AlsaName, err)
			}
		case VolumeZero:
			if err := e.writeVolume(avformat.Norm, e.Direction, false); err != nil {
				return fmt.Errorf("mixer: path %q: element %q: %w", p.Name, e.AlsaName, err)
			}
		case VolumeConstant:
			if !e.hasDB {
				if err := e.handle.SetVolume(e.Direction, e.ConstantValue); err != nil {
					return fmt.Errorf("mixer: path %q: element %q: %w", p.Name, e.AlsaName, err)
				}
			}
		}
	}

	if setting != nil {
		if err := setting.selectOn(p); err != nil {
			return err
		}
	}

	if p.MuteDuringActivation {
		for _, e := range p.Elements {
			if e.SwitchUse == SwitchMute && e.present {
				if err := e.handle.SetSwitch(e.Direction, !deviceMuted); err != nil {
					return fmt.Errorf("mixer: path %q: element %q: %w", p.Name, e.AlsaName, err)
				}
			}
		}
	}
	return nil
}

// selectOn applies every SELECT-style choice in s: a switch-use SELECT
// element is driven to its option's boolean position (there is no
// three-way ALSA switch, so "selected" reads as on), an enumeration-use
// SELECT element is driven to the option's enumerated index.
func (s *Setting) selectOn(p *Path) error {
	for _, e := range p.Elements {
		opt, ok := s.Choices[e.AlsaName]
		if !ok || !opt.present || !e.present {
			continue
		}
		switch {
		case e.SwitchUse == SwitchSelect:
			if err := e.handle.SetSwitch(e.Direction, true); err != nil {
				return fmt.Errorf("mixer: setting %q: element %q: %w", s.Name, e.AlsaName, err)
			}
		case e.EnumUse == EnumSelect:
			if err := e.handle.SetEnum(opt.hwIndex); err != nil {
				return fmt.Errorf("mixer: setting %q: element %q: %w", s.Name, e.AlsaName, err)
			}
		}
	}
	return nil
}

// GetMute implements §4.2's mute readback: true iff any SwitchMute element
// currently reports its switch off (muted).
func (p *Path) GetMute() (bool, error) {
	for _, e := range p.Elements {
		if e.SwitchUse != SwitchMute || !e.present {
			continue
		}
		on, err := e.handle.GetSwitch(e.Direction)
		if err != nil {
			return false, fmt.Errorf("mixer: path %q: element %q: %w", p.Name, e.AlsaName, err)
		}
		if !on {
			return true, nil
		}
	}
	return false, nil
}

// SetMute drives every SwitchMute element to the switch position
// corresponding to muted (§4.2).
func (p *Path) SetMute(muted bool) error {
	for _, e := range p.Elements {
		if e.SwitchUse != SwitchMute || !e.present {
			continue
		}
		if err := e.handle.SetSwitch(e.Direction, !muted); err != nil {
			return fmt.Errorf("mixer: path %q: element %q: %w", p.Name, e.AlsaName, err)
		}
	}
	return nil
}

func (e *Element) dbAtStep(step int64) millibel {
	if e.DBFix != nil {
		return e.DBFix.At(step)
	}
	db, err := e.handle.DBAt(e.Direction, step)
	if err != nil {
		return e.maxDB
	}
	return db
}
