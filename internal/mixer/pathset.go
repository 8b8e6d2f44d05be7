package mixer

import "fmt"

// PathSet is every path applicable to one device direction, after probing
// and condensation (§4.2).
type PathSet struct {
	Direction Direction
	Paths     []*Path
}

// ProbePathSet runs Path.Probe over every candidate, keeping only the ones that
// succeed, then condenses and synthesizes settings (§4.2).
func ProbePathSet(direction Direction, candidates []*Path, backend Backend) (*PathSet, error) {
	ps := &PathSet{Direction: direction}
	for _, p := range candidates {
		p.Direction = direction
		if err := p.Probe(backend); err != nil {
			continue // §7: a rejected path is dropped, not fatal to the set.
		}
		ps.Paths = append(ps.Paths, p)
	}
	ps.Condense()
	ps.deduplicateOptionNames()
	for _, p := range ps.Paths {
		p.Settings = synthesizeSettings(p)
	}
	return ps, nil
}

// Condense implements §4.2's path-set condensation: remove any path that is
// a subset of another path in the set (§8 property 8: no path is a strict
// subset of any other after condensation).
func (ps *PathSet) Condense() {
	kept := make([]*Path, 0, len(ps.Paths))
	for i, a := range ps.Paths {
		subsumed := false
		for j, b := range ps.Paths {
			if i == j {
				continue
			}
			if isSubsetPath(a, b) && !(isSubsetPath(b, a) && i < j) {
				subsumed = true
				break
			}
		}
		if !subsumed {
			kept = append(kept, a)
		}
	}
	ps.Paths = kept
}

// isSubsetPath implements "a ⊆ b" from §4.2.
func isSubsetPath(a, b *Path) bool {
	if len(a.Jacks) > len(b.Jacks) {
		return false
	}
	bJacks := make(map[string]*Jack, len(b.Jacks))
	for _, j := range b.Jacks {
		bJacks[j.Name] = j
	}
	for _, aj := range a.Jacks {
		if !aj.present {
			continue
		}
		bj, ok := bJacks[aj.Name]
		if !ok || !bj.present {
			return false
		}
		if aj.StatePlugged != bj.StatePlugged || aj.StateUnplugged != bj.StateUnplugged {
			return false
		}
	}

	bElems := make(map[string]*Element, len(b.Elements))
	for _, e := range b.Elements {
		bElems[e.AlsaName] = e
	}
	for _, ae := range a.Elements {
		be, ok := bElems[ae.AlsaName]
		if !ok {
			if ae.present {
				return false
			}
			continue
		}
		if !elementSubset(ae, be) {
			return false
		}
	}
	return true
}

func elementSubset(a, b *Element) bool {
	if !volumeUseSubset(a, b) {
		return false
	}
	if !switchUseSubset(a, b) {
		return false
	}
	for _, ao := range a.Options {
		if !ao.present {
			continue
		}
		found := false
		for _, bo := range b.Options {
			if bo.present && bo.AlsaName == ao.AlsaName {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func volumeUseSubset(a, b *Element) bool {
	switch {
	case a.VolumeUse == VolumeIgnore:
		return true
	case a.VolumeUse == VolumeConstant:
		return b.VolumeUse == VolumeConstant && a.ConstantValue == b.ConstantValue
	case b.VolumeUse == VolumeMerge:
		if a.VolumeUse != VolumeMerge {
			return true
		}
		if b.VolumeLimit <= 0 {
			return true
		}
		return a.maxDB <= b.dbAtStep(b.minStep+b.VolumeLimit) &&
			overrideMapsMatch(a, b)
	default:
		return a.VolumeUse == b.VolumeUse
	}
}

func switchUseSubset(a, b *Element) bool {
	switch {
	case a.SwitchUse == SwitchIgnore:
		return true
	case (a.SwitchUse == SwitchOn || a.SwitchUse == SwitchOff) && b.SwitchUse == SwitchSelect:
		for _, opt := range b.Options {
			if opt.present {
				return true
			}
		}
		return false
	default:
		return a.SwitchUse == b.SwitchUse
	}
}

func overrideMapsMatch(a, b *Element) bool {
	if a.VolumeUse != VolumeMerge || b.VolumeUse != VolumeMerge {
		return true
	}
	if len(a.OverrideMap) == 0 && len(b.OverrideMap) == 0 {
		return true
	}
	for k, av := range a.OverrideMap {
		if bv, ok := b.OverrideMap[k]; !ok || bv != av {
			return false
		}
	}
	return true
}

// deduplicateOptionNames appends "-N" to option display names that collide
// across the path set (§4.2 "make option names unique").
func (ps *PathSet) deduplicateOptionNames() {
	seen := map[string]int{}
	for _, p := range ps.Paths {
		for _, e := range p.Elements {
			for _, o := range e.Options {
				if !o.present {
					continue
				}
				n := seen[o.Name]
				seen[o.Name] = n + 1
				if n == 0 {
					o.uniqueName = o.Name
				} else {
					o.uniqueName = fmt.Sprintf("%s-%d", o.Name, n)
				}
			}
		}
	}
}

// synthesizeSettings builds the Cartesian product of every SELECT element's
// present options along the path (§4.2 "synthesize Cartesian settings").
func synthesizeSettings(p *Path) []*Setting {
	var selectElems []*Element
	for _, e := range p.Elements {
		if e.SwitchUse == SwitchSelect || e.EnumUse == EnumSelect {
			var present []*Option
			for _, o := range e.Options {
				if o.present {
					present = append(present, o)
				}
			}
			if len(present) > 0 {
				e.Options = present
				selectElems = append(selectElems, e)
			}
		}
	}
	if len(selectElems) == 0 {
		return nil
	}

	combos := []map[string]*Option{{}}
	for _, e := range selectElems {
		var next []map[string]*Option
		for _, combo := range combos {
			for _, o := range e.Options {
				c := make(map[string]*Option, len(combo)+1)
				for k, v := range combo {
					c[k] = v
				}
				c[e.AlsaName] = o
				next = append(next, c)
			}
		}
		combos = next
	}

	settings := make([]*Setting, 0, len(combos))
	for i, combo := range combos {
		name := fmt.Sprintf("setting-%d", i)
		desc := ""
		for _, e := range selectElems {
			if desc != "" {
				desc += " / "
			}
			desc += combo[e.AlsaName].DisplayName()
		}
		settings = append(settings, &Setting{Name: name, Description: desc, Choices: combo})
	}
	return settings
}
