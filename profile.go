package audiocore

import (
	"fmt"
	"strings"

	"github.com/gopulse/audiocore/avformat"
	"github.com/gopulse/audiocore/internal/device"
	"github.com/gopulse/audiocore/internal/mixer"
	"github.com/gopulse/audiocore/internal/pathconf"
)

// Mapping is a named (sample-spec, channel-map, device-string) combination
// plus the path sets it resolves to once probed against a backend (§3
// "Mapping / Profile / Profile Set", SPEC_FULL SUPPLEMENTED FEATURES).
type Mapping struct {
	Name          string
	Description   string
	Priority      uint32
	DeviceStrings []string
	ChannelMap    avformat.ChannelMap
	Direction     string

	InputPaths  *mixer.PathSet
	OutputPaths *mixer.PathSet
}

// Profile is a named combination of mappings (§3).
type Profile struct {
	Name           string
	Description    string
	Priority       uint32
	SkipProbe      bool
	InputMappings  []string
	OutputMappings []string
}

// ProfileSet is the probed result of one §6 profile-set configuration file:
// every Mapping and Profile it names, with each Mapping's path lists probed
// against a backend and condensed (§4.2).
type ProfileSet struct {
	AutoProfiles bool
	Mappings     map[string]*Mapping
	Profiles     map[string]*Profile
}

// LoadProfileSet parses file (§6), resolves each Mapping's named path files
// (found under pathsDir) against backend, and returns the assembled,
// probed ProfileSet.
func LoadProfileSet(file, pathsDir string, backend mixer.Backend) (*ProfileSet, error) {
	const op = "audiocore.LoadProfileSet"

	parsed, err := pathconf.LoadProfileSet(file)
	if err != nil {
		return nil, avformat.NewError(op, avformat.Invalid, err)
	}

	ps := &ProfileSet{
		AutoProfiles: parsed.AutoProfiles,
		Mappings:     map[string]*Mapping{},
		Profiles:     map[string]*Profile{},
	}

	for name, pm := range parsed.Mappings {
		m := &Mapping{
			Name:          pm.Name,
			Description:   pm.Description,
			Priority:      pm.Priority,
			DeviceStrings: pm.DeviceStrings,
			ChannelMap:    parseChannelMapWords(pm.ChannelMap),
			Direction:     pm.Direction,
		}
		if len(pm.PathsInput) > 0 {
			paths, err := loadPaths(pathsDir, pm.PathsInput, parsed.DecibelFixes)
			if err != nil {
				return nil, avformat.NewError(op, avformat.Invalid, fmt.Errorf("mapping %q: %w", name, err))
			}
			if m.InputPaths, err = mixer.ProbePathSet(mixer.Capture, paths, backend); err != nil {
				return nil, avformat.NewError(op, avformat.NotSupported, err)
			}
		}
		if len(pm.PathsOutput) > 0 {
			paths, err := loadPaths(pathsDir, pm.PathsOutput, parsed.DecibelFixes)
			if err != nil {
				return nil, avformat.NewError(op, avformat.Invalid, fmt.Errorf("mapping %q: %w", name, err))
			}
			if m.OutputPaths, err = mixer.ProbePathSet(mixer.Playback, paths, backend); err != nil {
				return nil, avformat.NewError(op, avformat.NotSupported, err)
			}
		}
		ps.Mappings[name] = m
	}

	for name, pp := range parsed.Profiles {
		ps.Profiles[name] = &Profile{
			Name:           pp.Name,
			Description:    pp.Description,
			Priority:       pp.Priority,
			SkipProbe:      pp.SkipProbe,
			InputMappings:  pp.InputMappings,
			OutputMappings: pp.OutputMappings,
		}
	}

	return ps, nil
}

func loadPaths(dir string, names []string, fixes map[string]*mixer.DBFix) ([]*mixer.Path, error) {
	paths := make([]*mixer.Path, 0, len(names))
	for _, n := range names {
		p, err := pathconf.LoadPathConfigWithFixes(dir+"/"+n+".conf", fixes)
		if err != nil {
			return nil, err
		}
		if p.Name == "" {
			p.Name = n
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// BuildPorts turns a probed PathSet into one DevicePort per path — one per
// synthesized Setting when a path has more than one, otherwise a single
// port for the path itself — ready to drop into a device.NewData.Ports map
// (§4.5, §6 "<path-name>;<setting-name>").
func BuildPorts(paths *mixer.PathSet, profiles []string) map[string]*device.Port {
	out := map[string]*device.Port{}
	if paths == nil {
		return out
	}
	for _, p := range paths.Paths {
		if len(p.Settings) == 0 {
			dp := NewDevicePort(p, nil, p.Priority)
			dp.Profiles = profiles
			out[dp.Name] = dp.Port
			continue
		}
		for _, s := range p.Settings {
			dp := NewDevicePort(p, s, p.Priority+s.Priority)
			dp.Profiles = profiles
			out[dp.Name] = dp.Port
		}
	}
	return out
}

// parseChannelMapWords resolves a §6 `channel-map` value (space-separated
// position names) into a ChannelMap.
func parseChannelMapWords(s string) avformat.ChannelMap {
	if s == "" {
		return nil
	}
	words := strings.Fields(s)
	m := make(avformat.ChannelMap, len(words))
	for i, w := range words {
		m[i] = positionFromName(w)
	}
	return m
}

var positionNames = map[string]avformat.ChannelPosition{
	"mono":             avformat.PositionMono,
	"front-left":       avformat.PositionFrontLeft,
	"front-right":      avformat.PositionFrontRight,
	"front-center":     avformat.PositionFrontCenter,
	"rear-left":        avformat.PositionRearLeft,
	"rear-right":       avformat.PositionRearRight,
	"rear-center":      avformat.PositionRearCenter,
	"lfe":              avformat.PositionLFE,
	"side-left":        avformat.PositionSideLeft,
	"side-right":       avformat.PositionSideRight,
	"top-center":       avformat.PositionTopCenter,
	"top-front-left":   avformat.PositionTopFrontLeft,
	"top-front-right":  avformat.PositionTopFrontRight,
	"top-front-center": avformat.PositionTopFrontCenter,
	"top-rear-left":    avformat.PositionTopRearLeft,
	"top-rear-right":   avformat.PositionTopRearRight,
	"top-rear-center":  avformat.PositionTopRearCenter,
}

func positionFromName(s string) avformat.ChannelPosition {
	if p, ok := positionNames[strings.ToLower(s)]; ok {
		return p
	}
	return avformat.PositionMono
}
