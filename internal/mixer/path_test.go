package mixer

import (
	"testing"

	"github.com/gopulse/audiocore/avformat"
)

// fakeElement is an in-memory ElementHandle for exercising Path without
// real ALSA hardware.
type fakeElement struct {
	hasSwitch bool
	hasVolume bool
	hasDB     bool
	minStep   int64
	maxStep   int64
	minDB     millibel
	maxDB     millibel

	switchOn bool
	step     int64

	enumNames   []string
	enumCurrent int
}

func (e *fakeElement) HasSwitch(Direction) bool { return e.hasSwitch }
func (e *fakeElement) HasVolume(Direction) bool { return e.hasVolume }
func (e *fakeElement) HasEnum() bool            { return len(e.enumNames) > 0 }

func (e *fakeElement) GetSwitch(Direction) (bool, error)      { return e.switchOn, nil }
func (e *fakeElement) SetSwitch(d Direction, on bool) error   { e.switchOn = on; return nil }

func (e *fakeElement) VolumeRange(Direction) (int64, int64, error) { return e.minStep, e.maxStep, nil }
func (e *fakeElement) HasDB(Direction) bool                        { return e.hasDB }
func (e *fakeElement) DBRange(Direction) (millibel, millibel, error) { return e.minDB, e.maxDB, nil }

func (e *fakeElement) DBAt(d Direction, step int64) (millibel, error) {
	if e.maxStep == e.minStep {
		return e.minDB, nil
	}
	frac := float64(step-e.minStep) / float64(e.maxStep-e.minStep)
	return e.minDB + millibel(frac*float64(e.maxDB-e.minDB)), nil
}

func (e *fakeElement) StepNearestDB(d Direction, target millibel, dir int) (int64, error) {
	for s := e.minStep; s <= e.maxStep; s++ {
		db, _ := e.DBAt(d, s)
		if db >= target {
			return s, nil
		}
	}
	return e.maxStep, nil
}

func (e *fakeElement) GetVolume(Direction) (int64, error)       { return e.step, nil }
func (e *fakeElement) SetVolume(d Direction, step int64) error { e.step = step; return nil }

func (e *fakeElement) EnumCount() int { return len(e.enumNames) }
func (e *fakeElement) EnumName(i int) (string, error) {
	if i < 0 || i >= len(e.enumNames) {
		return "", errNotFound{}
	}
	return e.enumNames[i], nil
}
func (e *fakeElement) EnumCurrent() (int, error) { return e.enumCurrent, nil }
func (e *fakeElement) SetEnum(i int) error       { e.enumCurrent = i; return nil }

func (e *fakeElement) ChannelCount(Direction) int          { return 2 }
func (e *fakeElement) HasChannel(Direction, int) bool       { return true }

type errNotFound struct{}

func (errNotFound) Error() string { return "not found" }

type fakeJack struct{ plugged bool }

func (j *fakeJack) Plugged() (bool, error) { return j.plugged, nil }

type fakeBackend struct {
	elements map[string]*fakeElement
	jacks    map[string]*fakeJack
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{elements: map[string]*fakeElement{}, jacks: map[string]*fakeJack{}}
}

func (b *fakeBackend) Element(name string) (ElementHandle, bool) {
	e, ok := b.elements[name]
	return e, ok
}

func (b *fakeBackend) Jack(name string) (JackHandle, bool) {
	j, ok := b.jacks[name]
	return j, ok
}

func TestPathProbeRejectsMissingRequiredElement(t *testing.T) {
	backend := newFakeBackend()
	p := &Path{
		Name:      "test",
		Direction: Playback,
		Elements:  []*Element{{AlsaName: "Master", Required: RequireSwitch}},
	}
	if err := p.Probe(backend); err == nil {
		t.Fatal("Probe() with a missing required element succeeded, want error")
	}
}

func TestPathProbeAndVolumeRoundTrip(t *testing.T) {
	backend := newFakeBackend()
	backend.elements["Master"] = &fakeElement{
		hasVolume: true, hasDB: true,
		minStep: 0, maxStep: 100, minDB: -6000, maxDB: 0,
	}
	p := &Path{
		Name:      "test",
		Direction: Playback,
		Elements:  []*Element{{AlsaName: "Master", VolumeUse: VolumeMerge}},
	}
	if err := p.Probe(backend); err != nil {
		t.Fatalf("Probe() error: %v", err)
	}
	if !p.HasVolume || !p.HasDB {
		t.Fatalf("Probe() left HasVolume=%v HasDB=%v, want both true", p.HasVolume, p.HasDB)
	}

	target := avformat.Uniform(2, avformat.Norm/2)
	if err := p.SetVolume(target, false); err != nil {
		t.Fatalf("SetVolume() error: %v", err)
	}
	got, err := p.GetVolume(avformat.StereoMap)
	if err != nil {
		t.Fatalf("GetVolume() error: %v", err)
	}
	for i, v := range got {
		diff := int64(v) - int64(target[i])
		if diff < -3000 || diff > 3000 {
			t.Errorf("GetVolume()[%d] = %d, want close to %d after SetVolume", i, v, target[i])
		}
	}
}

func TestPathSelectDrivesSwitchesAndMute(t *testing.T) {
	backend := newFakeBackend()
	backend.elements["Master"] = &fakeElement{hasSwitch: true}
	backend.elements["Speaker"] = &fakeElement{hasSwitch: true}

	p := &Path{
		Name:                 "test",
		Direction:            Playback,
		MuteDuringActivation: true,
		Elements: []*Element{
			{AlsaName: "Master", SwitchUse: SwitchMute},
			{AlsaName: "Speaker", SwitchUse: SwitchOn},
		},
	}
	if err := p.Probe(backend); err != nil {
		t.Fatalf("Probe() error: %v", err)
	}

	if err := p.Select(nil, false); err != nil {
		t.Fatalf("Select() error: %v", err)
	}
	if !backend.elements["Master"].switchOn {
		t.Error("Select(deviceMuted=false) left Master muted")
	}
	if !backend.elements["Speaker"].switchOn {
		t.Error("Select() did not drive the SwitchOn element on")
	}

	if err := p.Select(nil, true); err != nil {
		t.Fatalf("Select() error: %v", err)
	}
	if backend.elements["Master"].switchOn {
		t.Error("Select(deviceMuted=true) left Master unmuted")
	}
}

func TestPathGetSetMute(t *testing.T) {
	backend := newFakeBackend()
	backend.elements["Master"] = &fakeElement{hasSwitch: true, switchOn: true}
	p := &Path{
		Name:      "test",
		Direction: Playback,
		Elements:  []*Element{{AlsaName: "Master", SwitchUse: SwitchMute}},
	}
	if err := p.Probe(backend); err != nil {
		t.Fatalf("Probe() error: %v", err)
	}

	muted, err := p.GetMute()
	if err != nil {
		t.Fatalf("GetMute() error: %v", err)
	}
	if muted {
		t.Error("GetMute() = true for an unmuted switch")
	}

	if err := p.SetMute(true); err != nil {
		t.Fatalf("SetMute(true) error: %v", err)
	}
	muted, err = p.GetMute()
	if err != nil {
		t.Fatalf("GetMute() error: %v", err)
	}
	if !muted {
		t.Error("GetMute() = false after SetMute(true)")
	}
}

func TestDemoteNonDBMergeElements(t *testing.T) {
	p := &Path{
		Elements: []*Element{
			{AlsaName: "a", VolumeUse: VolumeMerge, hasDB: false},
			{AlsaName: "b", VolumeUse: VolumeMerge, hasDB: true},
		},
	}
	p.demoteNonDBMergeElements()
	if p.Elements[0].VolumeUse != VolumeZero {
		t.Errorf("earlier non-dB MERGE element VolumeUse = %v, want VolumeZero once a later element has dB", p.Elements[0].VolumeUse)
	}
	if p.Elements[1].VolumeUse != VolumeMerge {
		t.Errorf("dB-capable element VolumeUse = %v, want unchanged VolumeMerge", p.Elements[1].VolumeUse)
	}
}
