package pathconf

import (
	"bytes"
	"testing"

	"github.com/spf13/viper"

	"github.com/gopulse/audiocore/avformat"
	"github.com/gopulse/audiocore/internal/mixer"
)

func parseFromString(t *testing.T, ini string, fixes map[string]*mixer.DBFix) *mixer.Path {
	t.Helper()
	v := viper.New()
	v.SetConfigType("ini")
	if err := v.ReadConfig(bytes.NewBufferString(ini)); err != nil {
		t.Fatalf("ReadConfig() error: %v", err)
	}
	p, err := parsePath(v, fixes)
	if err != nil {
		t.Fatalf("parsePath() error: %v", err)
	}
	return p
}

func TestParsePathGeneralSection(t *testing.T) {
	p := parseFromString(t, `
[General]
name = analog-output-speaker
priority = 100
description = Speakers
mute-during-activation = yes
`, nil)

	if p.Name != "analog-output-speaker" {
		t.Errorf("Name = %q, want analog-output-speaker", p.Name)
	}
	if p.Priority != 100 {
		t.Errorf("Priority = %d, want 100", p.Priority)
	}
	if p.Description != "Speakers" {
		t.Errorf("Description = %q, want Speakers", p.Description)
	}
	if !p.MuteDuringActivation {
		t.Error("MuteDuringActivation = false, want true")
	}
}

func TestParsePathElementSwitchAndVolumeUse(t *testing.T) {
	p := parseFromString(t, `
[Element Master]
switch = mute
volume = merge
required = switch

[Element Speaker]
switch = on
`, nil)

	if len(p.Elements) != 2 {
		t.Fatalf("len(Elements) = %d, want 2", len(p.Elements))
	}
	byName := map[string]*mixer.Element{}
	for _, e := range p.Elements {
		byName[e.AlsaName] = e
	}

	master := byName["Master"]
	if master == nil {
		t.Fatal("no Element for Master")
	}
	if master.SwitchUse != mixer.SwitchMute {
		t.Errorf("Master.SwitchUse = %v, want SwitchMute", master.SwitchUse)
	}
	if master.VolumeUse != mixer.VolumeMerge {
		t.Errorf("Master.VolumeUse = %v, want VolumeMerge", master.VolumeUse)
	}
	if master.Required != mixer.RequireSwitch {
		t.Errorf("Master.Required = %v, want RequireSwitch", master.Required)
	}

	speaker := byName["Speaker"]
	if speaker == nil {
		t.Fatal("no Element for Speaker")
	}
	if speaker.SwitchUse != mixer.SwitchOn {
		t.Errorf("Speaker.SwitchUse = %v, want SwitchOn", speaker.SwitchUse)
	}
}

func TestParsePathConstantVolume(t *testing.T) {
	p := parseFromString(t, `
[Element Boost]
volume = 5
`, nil)
	if len(p.Elements) != 1 {
		t.Fatalf("len(Elements) = %d, want 1", len(p.Elements))
	}
	e := p.Elements[0]
	if e.VolumeUse != mixer.VolumeConstant {
		t.Errorf("VolumeUse = %v, want VolumeConstant", e.VolumeUse)
	}
	if e.ConstantValue != 5 {
		t.Errorf("ConstantValue = %d, want 5", e.ConstantValue)
	}
}

func TestParsePathOptionsSortedByPriority(t *testing.T) {
	p := parseFromString(t, `
[Element Input Source]
enumeration = select

[Option Input Source:mic]
name = Microphone
priority = 10

[Option Input Source:line]
name = Line In
priority = 90
`, nil)

	if len(p.Elements) != 1 {
		t.Fatalf("len(Elements) = %d, want 1", len(p.Elements))
	}
	opts := p.Elements[0].Options
	if len(opts) != 2 {
		t.Fatalf("len(Options) = %d, want 2", len(opts))
	}
	if opts[0].Name != "Line In" {
		t.Errorf("Options[0].Name = %q, want %q (highest priority first)", opts[0].Name, "Line In")
	}
}

func TestParsePathJackRequiredness(t *testing.T) {
	p := parseFromString(t, `
[Jack Headphone]
state.plugged = yes
state.unplugged = no
required = any
`, nil)
	if len(p.Jacks) != 1 {
		t.Fatalf("len(Jacks) = %d, want 1", len(p.Jacks))
	}
	j := p.Jacks[0]
	if j.Name != "Headphone" {
		t.Errorf("Jack.Name = %q, want Headphone", j.Name)
	}
	if !j.RequireAny {
		t.Error("RequireAny = false, want true (required = any)")
	}
	if j.StatePlugged != mixer.AvailableYes {
		t.Errorf("StatePlugged = %v, want AvailableYes", j.StatePlugged)
	}
}

func TestParsePathOverrideMap(t *testing.T) {
	p := parseFromString(t, `
[Element Master]
volume = merge
override-map.2 = all-left,all-right
`, nil)
	e := p.Elements[0]
	masks, ok := e.OverrideMap[2]
	if !ok {
		t.Fatal("OverrideMap[2] missing")
	}
	if masks[0] != avformat.MaskAllLeft {
		t.Errorf("OverrideMap[2][0] = %v, want MaskAllLeft", masks[0])
	}
	if masks[1] != avformat.MaskAllRight {
		t.Errorf("OverrideMap[2][1] = %v, want MaskAllRight", masks[1])
	}
}

func TestParsePathAppliesDecibelFix(t *testing.T) {
	fix, err := mixer.NewDBFix(map[int64]int64{0: -6000, 10: 0})
	if err != nil {
		t.Fatalf("NewDBFix() error: %v", err)
	}
	p := parseFromString(t, `
[Element Master]
volume = merge
`, map[string]*mixer.DBFix{"Master": fix})
	if p.Elements[0].DBFix != fix {
		t.Error("DBFix not attached to matching element")
	}
}

func TestSplitOptionArg(t *testing.T) {
	elem, opt := splitOptionArg("Input Source:mic")
	if elem != "Input Source" || opt != "mic" {
		t.Errorf("splitOptionArg() = (%q, %q), want (%q, %q)", elem, opt, "Input Source", "mic")
	}
	elem, opt = splitOptionArg("no-colon")
	if elem != "no-colon" || opt != "no-colon" {
		t.Errorf("splitOptionArg(no colon) = (%q, %q), want both equal to the input", elem, opt)
	}
}
