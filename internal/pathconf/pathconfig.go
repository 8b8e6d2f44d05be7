// Package pathconf loads the §6 mixer-path and profile-set INI configuration
// files with spf13/viper, and assembles the parsed sections into the
// internal/mixer types a Backend can probe. It also parses DecibelFix
// tables and watches a config file for on-disk changes via fsnotify (the
// same dependency viper already pulls in for its own WatchConfig), so a
// path set can be re-probed when its backing file is edited.
package pathconf

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/gopulse/audiocore/avformat"
	"github.com/gopulse/audiocore/internal/mixer"
)

// LoadPathConfig parses one `[General]`/`[Jack ...]`/`[Element ...]`/
// `[Option ...]` file (§6) into an unprobed *mixer.Path. Call (*Path).Probe
// with a mixer.Backend before using it.
func LoadPathConfig(file string) (*mixer.Path, error) {
	v := viper.New()
	v.SetConfigFile(file)
	v.SetConfigType("ini")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("pathconf: %s: %w", file, err)
	}
	return parsePath(v, fixesFromNowhere())
}

// LoadPathConfigWithFixes is LoadPathConfig plus a set of DecibelFix tables
// (typically parsed once per profile-set from its `[DecibelFix ...]`
// sections and shared across every path that references one of them by
// ALSA element name).
func LoadPathConfigWithFixes(file string, fixes map[string]*mixer.DBFix) (*mixer.Path, error) {
	v := viper.New()
	v.SetConfigFile(file)
	v.SetConfigType("ini")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("pathconf: %s: %w", file, err)
	}
	return parsePath(v, fixes)
}

func fixesFromNowhere() map[string]*mixer.DBFix { return map[string]*mixer.DBFix{} }

// section splits a viper ini top-level key like "element front-speaker" into
// its kind ("element") and argument ("front-speaker"); bare sections like
// "general" have an empty argument.
func section(key string) (kind, arg string) {
	parts := strings.SplitN(key, " ", 2)
	kind = strings.ToLower(parts[0])
	if len(parts) > 1 {
		arg = strings.TrimSpace(parts[1])
	}
	return kind, arg
}

func parsePath(v *viper.Viper, fixes map[string]*mixer.DBFix) (*mixer.Path, error) {
	p := &mixer.Path{}

	all := v.AllSettings()
	// viper's ini codec loses each stanza's position in the file, so there is
	// no way to recover true declaration order here; §4.2's "demote earlier
	// non-dB MERGE elements" and the set-volume absorption walk need *some*
	// stable order, so this uses alphabetical-by-section-key as a
	// deterministic stand-in (§9 open question: path config authors who rely
	// on declaration order should name elements so that ordering matches the
	// alphabetical order of their `[Element <alsa-name>]` argument).
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	optionsByElement := map[string][]*mixer.Option{}

	for _, key := range keys {
		kind, arg := section(key)
		vals, _ := all[key].(map[string]interface{})

		switch kind {
		case "general":
			p.Priority = uint32(getUint(vals, "priority"))
			p.Description = getString(vals, "description")
			p.DescriptionKey = getString(vals, "description-key")
			p.MuteDuringActivation = getBool(vals, "mute-during-activation")
			p.EldDevice = int(getUint(vals, "eld-device"))
			if name := getString(vals, "name"); name != "" {
				p.Name = name
			}

		case "jack":
			j := &mixer.Jack{
				Name:           arg,
				StatePlugged:   parseAvailability(getString(vals, "state.plugged"), mixer.AvailableYes),
				StateUnplugged: parseAvailability(getString(vals, "state.unplugged"), mixer.AvailableNo),
			}
			j.Required, j.RequireAny, j.RequireAbsent = parseRequirement(getString(vals, "required"))
			p.Jacks = append(p.Jacks, j)

		case "element":
			e := &mixer.Element{AlsaName: arg}
			if sw := getString(vals, "switch"); sw != "" {
				e.SwitchUse = parseSwitchUse(sw)
			}
			if vol := getString(vals, "volume"); vol != "" {
				e.VolumeUse, e.ConstantValue = parseVolumeUse(vol)
			}
			if en := getString(vals, "enumeration"); en != "" {
				e.EnumUse = parseEnumUse(en)
			}
			if dir := getString(vals, "direction"); dir != "" {
				e.Direction = parseDirection(dir)
			}
			e.DirectionTryOther = getBool(vals, "direction-try-other")
			e.VolumeLimit = int64(getUint(vals, "volume-limit"))
			e.OverrideMap = parseOverrideMaps(vals)
			e.Required, e.RequireAny, e.RequireAbsent = parseRequirement(getString(vals, "required"))
			if fix, ok := fixes[arg]; ok {
				e.DBFix = fix
			}
			p.Elements = append(p.Elements, e)

		case "option":
			elemName, optName := splitOptionArg(arg)
			o := &mixer.Option{AlsaName: optName, Priority: uint32(getUint(vals, "priority"))}
			o.Name = getString(vals, "name")
			if o.Name == "" {
				o.Name = optName
			}
			o.Required, o.RequireAny, o.RequireAbsent = parseRequirement(getString(vals, "required"))
			optionsByElement[elemName] = append(optionsByElement[elemName], o)
		}
	}

	for _, e := range p.Elements {
		opts := optionsByElement[e.AlsaName]
		sort.SliceStable(opts, func(i, j int) bool { return opts[i].Priority > opts[j].Priority })
		e.Options = opts
	}

	return p, nil
}

// splitOptionArg splits an `[Option <alsa-name>:<option>]` argument (§6) on
// the first colon.
func splitOptionArg(arg string) (elemName, optName string) {
	i := strings.IndexByte(arg, ':')
	if i < 0 {
		return arg, arg
	}
	return arg[:i], arg[i+1:]
}

func parseSwitchUse(s string) mixer.SwitchUse {
	switch strings.ToLower(s) {
	case "mute":
		return mixer.SwitchMute
	case "on":
		return mixer.SwitchOn
	case "off":
		return mixer.SwitchOff
	case "select":
		return mixer.SwitchSelect
	default:
		return mixer.SwitchIgnore
	}
}

func parseVolumeUse(s string) (mixer.VolumeUse, int64) {
	switch strings.ToLower(s) {
	case "merge":
		return mixer.VolumeMerge, 0
	case "off":
		return mixer.VolumeOff, 0
	case "zero":
		return mixer.VolumeZero, 0
	case "ignore":
		return mixer.VolumeIgnore, 0
	default:
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return mixer.VolumeConstant, n
		}
		return mixer.VolumeIgnore, 0
	}
}

func parseEnumUse(s string) mixer.EnumUse {
	if strings.ToLower(s) == "select" {
		return mixer.EnumSelect
	}
	return mixer.EnumIgnore
}

func parseDirection(s string) mixer.Direction {
	if strings.ToLower(s) == "capture" {
		return mixer.Capture
	}
	return mixer.Playback
}

func parseAvailability(s string, deflt mixer.Availability) mixer.Availability {
	switch strings.ToLower(s) {
	case "yes":
		return mixer.AvailableYes
	case "no":
		return mixer.AvailableNo
	case "unknown":
		return mixer.AvailableUnknown
	case "":
		return deflt
	default:
		return mixer.AvailableUnknown
	}
}

func parseRequirement(s string) (req mixer.Requirement, any, absent bool) {
	switch strings.ToLower(s) {
	case "switch":
		return mixer.RequireSwitch, false, false
	case "volume":
		return mixer.RequireVolume, false, false
	case "enumeration":
		return mixer.RequireEnumeration, false, false
	case "any":
		return mixer.RequireAny, true, false
	default:
		return mixer.RequireIgnore, false, false
	}
}

// parseOverrideMaps parses the `override-map.1`/`override-map.2` keys (§6):
// `<mask>,<mask>` for 1- and 2-channel elements respectively.
func parseOverrideMaps(vals map[string]interface{}) map[int][2]avformat.PositionMask {
	out := map[int][2]avformat.PositionMask{}
	for _, n := range []int{1, 2} {
		key := fmt.Sprintf("override-map.%d", n)
		raw := getString(vals, key)
		if raw == "" {
			continue
		}
		parts := strings.SplitN(raw, ",", 2)
		var masks [2]avformat.PositionMask
		for i, part := range parts {
			if i > 1 {
				break
			}
			masks[i] = parseMask(strings.TrimSpace(part))
		}
		out[n] = masks
	}
	return out
}

// parseMask resolves one `<mask>` token from the grammar in §6.
func parseMask(s string) avformat.PositionMask {
	switch strings.ToLower(s) {
	case "all":
		return avformat.MaskAll
	case "all-left":
		return avformat.MaskAllLeft
	case "all-right":
		return avformat.MaskAllRight
	case "all-front":
		return avformat.MaskAllFront
	case "all-rear":
		return avformat.MaskAllRear
	case "all-center":
		return avformat.MaskAllCenter
	case "all-side":
		return avformat.MaskAllSide
	case "all-top":
		return avformat.MaskAllTop
	case "all-no-lfe":
		return avformat.MaskAllNoLFE
	default:
		return parseSinglePosition(s).Mask()
	}
}

func parseSinglePosition(s string) avformat.ChannelPosition {
	switch strings.ToLower(s) {
	case "mono":
		return avformat.PositionMono
	case "front-left":
		return avformat.PositionFrontLeft
	case "front-right":
		return avformat.PositionFrontRight
	case "front-center":
		return avformat.PositionFrontCenter
	case "rear-left":
		return avformat.PositionRearLeft
	case "rear-right":
		return avformat.PositionRearRight
	case "rear-center":
		return avformat.PositionRearCenter
	case "lfe":
		return avformat.PositionLFE
	case "side-left":
		return avformat.PositionSideLeft
	case "side-right":
		return avformat.PositionSideRight
	default:
		return avformat.PositionMono
	}
}

func getString(vals map[string]interface{}, key string) string {
	v, ok := vals[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func getBool(vals map[string]interface{}, key string) bool {
	switch strings.ToLower(getString(vals, key)) {
	case "yes", "true", "1", "on":
		return true
	default:
		return false
	}
}

func getUint(vals map[string]interface{}, key string) uint64 {
	n, err := strconv.ParseUint(getString(vals, key), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
