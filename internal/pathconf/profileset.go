package pathconf

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/gopulse/audiocore/internal/mixer"
)

// ParsedMapping is one `[Mapping <name>]` stanza (§6): a named
// (device-strings, channel-map, path list) triple. The root package's
// Mapping type copies these fields in and adds the probed path sets.
type ParsedMapping struct {
	Name            string
	Description     string
	Priority        uint32
	DeviceStrings   []string
	ChannelMap      string // raw channel position names, space-separated
	Direction       string // "input", "output", or "" (both, via the two path lists)
	PathsInput      []string
	PathsOutput     []string
	ElementInput    []string // fallback element names, §6 "element-input"
	ElementOutput   []string
}

// ParsedProfile is one `[Profile <name>]` stanza.
type ParsedProfile struct {
	Name           string
	Description    string
	Priority       uint32
	SkipProbe      bool
	InputMappings  []string
	OutputMappings []string
}

// ParsedProfileSet is the result of parsing one profile-set file (§6):
// its General flags, every Mapping/Profile stanza, and every DecibelFix
// table ready to hand to LoadPathConfigWithFixes.
type ParsedProfileSet struct {
	AutoProfiles bool
	Mappings     map[string]*ParsedMapping
	Profiles     map[string]*ParsedProfile
	DecibelFixes map[string]*mixer.DBFix
}

// LoadProfileSet parses file into a ParsedProfileSet.
func LoadProfileSet(file string) (*ParsedProfileSet, error) {
	v := viper.New()
	v.SetConfigFile(file)
	v.SetConfigType("ini")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("pathconf: %s: %w", file, err)
	}

	ps := &ParsedProfileSet{
		Mappings:     map[string]*ParsedMapping{},
		Profiles:     map[string]*ParsedProfile{},
		DecibelFixes: map[string]*mixer.DBFix{},
	}

	all := v.AllSettings()
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		kind, arg := section(key)
		vals, _ := all[key].(map[string]interface{})

		switch kind {
		case "general":
			ps.AutoProfiles = getBool(vals, "auto-profiles")

		case "mapping":
			m := &ParsedMapping{
				Name:          arg,
				Description:   getString(vals, "description"),
				Priority:      uint32(getUint(vals, "priority")),
				DeviceStrings: splitList(getString(vals, "device-strings")),
				ChannelMap:    getString(vals, "channel-map"),
				Direction:     getString(vals, "direction"),
				PathsInput:    splitList(getString(vals, "paths-input")),
				PathsOutput:   splitList(getString(vals, "paths-output")),
				ElementInput:  splitList(getString(vals, "element-input")),
				ElementOutput: splitList(getString(vals, "element-output")),
			}
			ps.Mappings[arg] = m

		case "profile":
			p := &ParsedProfile{
				Name:           arg,
				Description:    getString(vals, "description"),
				Priority:       uint32(getUint(vals, "priority")),
				SkipProbe:      getBool(vals, "skip-probe"),
				InputMappings:  splitList(getString(vals, "input-mappings")),
				OutputMappings: splitList(getString(vals, "output-mappings")),
			}
			ps.Profiles[arg] = p

		case "decibelfix":
			fix, err := parseDecibelFix(getString(vals, "db-values"))
			if err != nil {
				return nil, fmt.Errorf("pathconf: %s: DecibelFix %s: %w", file, arg, err)
			}
			ps.DecibelFixes[arg] = fix
		}
	}

	return ps, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	fields := strings.Fields(s)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, strings.Trim(f, ","))
	}
	return out
}

// parseDecibelFix parses `db-values = <step>:<dB> <step>:<dB> ...` (§6)
// into the map mixer.NewDBFix expects.
func parseDecibelFix(raw string) (*mixer.DBFix, error) {
	points := map[int64]int64{}
	for _, tok := range strings.Fields(raw) {
		i := strings.IndexByte(tok, ':')
		if i < 0 {
			return nil, fmt.Errorf("malformed point %q, want <step>:<dB>", tok)
		}
		step, err := strconv.ParseInt(tok[:i], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed step in %q: %w", tok, err)
		}
		db, err := strconv.ParseFloat(tok[i+1:], 64)
		if err != nil {
			return nil, fmt.Errorf("malformed dB in %q: %w", tok, err)
		}
		points[step] = int64(db * 100) // millibel
	}
	return mixer.NewDBFix(points)
}
