package audiocore

import (
	"testing"

	"github.com/gopulse/audiocore/internal/device"
	"github.com/gopulse/audiocore/internal/mixer"
)

func TestPortNameUsesPathNameWithoutSettings(t *testing.T) {
	path := &mixer.Path{Name: "analog-output-speaker"}
	if got := portName(path, nil); got != "analog-output-speaker" {
		t.Errorf("portName() = %q, want %q", got, "analog-output-speaker")
	}
}

func TestPortNameIncludesSettingWhenPathHasMultiple(t *testing.T) {
	path := &mixer.Path{
		Name:     "analog-input",
		Settings: []*mixer.Setting{{Name: "mic"}, {Name: "line"}},
	}
	got := portName(path, path.Settings[0])
	want := "analog-input;mic"
	if got != want {
		t.Errorf("portName() = %q, want %q", got, want)
	}
}

func TestNewDevicePortWiresBindingBackToItself(t *testing.T) {
	path := &mixer.Path{Name: "speaker", Direction: mixer.Playback}
	dp := NewDevicePort(path, nil, 50)
	if dp.Port.Name != "speaker" {
		t.Errorf("Port.Name = %q, want speaker", dp.Port.Name)
	}
	if dp.Port.Priority != 50 {
		t.Errorf("Port.Priority = %d, want 50", dp.Port.Priority)
	}
	bound, ok := dp.Port.Binding.(*DevicePort)
	if !ok || bound != dp {
		t.Error("Port.Binding does not point back to the DevicePort that created it")
	}
	if dp.Direction != mixer.Playback {
		t.Errorf("Direction = %v, want Playback (copied from the path)", dp.Direction)
	}
}

func TestDevicePortAdmitsProfile(t *testing.T) {
	dp := &DevicePort{Profiles: []string{"output:analog-stereo", "output:analog-surround"}}
	if !dp.AdmitsProfile("output:analog-stereo") {
		t.Error("AdmitsProfile() = false for a listed profile")
	}
	if dp.AdmitsProfile("output:hdmi") {
		t.Error("AdmitsProfile() = true for an unlisted profile")
	}
}

func TestRefreshAvailabilityWithNoJacksLeavesUnknown(t *testing.T) {
	dp := &DevicePort{Path: &mixer.Path{}, Port: &device.Port{Available: device.AvailableUnknown}}
	dp.RefreshAvailability()
	if dp.Available != device.AvailableUnknown {
		t.Errorf("Available = %v, want AvailableUnknown (no jacks to consult)", dp.Available)
	}
}
