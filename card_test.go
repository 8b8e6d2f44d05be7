package audiocore

import (
	"context"
	"testing"

	"github.com/gopulse/audiocore/avformat"
	"github.com/gopulse/audiocore/internal/device"
	"github.com/gopulse/audiocore/internal/mixer"
)

func testMapping(name string) *Mapping {
	return &Mapping{Name: name, ChannelMap: avformat.StereoMap}
}

func testProfileSet() *ProfileSet {
	return &ProfileSet{
		Mappings: map[string]*Mapping{
			"input:analog":  testMapping("input:analog"),
			"output:analog": testMapping("output:analog"),
		},
		Profiles: map[string]*Profile{
			"input:analog+output:analog": {
				Name:           "input:analog+output:analog",
				InputMappings:  []string{"input:analog"},
				OutputMappings: []string{"output:analog"},
			},
			"output:analog-only": {
				Name:           "output:analog-only",
				OutputMappings: []string{"output:analog"},
			},
		},
	}
}

func newDataFor(name string) *device.NewData {
	return &device.NewData{
		Name:       name,
		SampleSpec: avformat.SampleSpec{Format: avformat.EncodingInt16LE, Channels: 2, Rate: 44100},
		ChannelMap: avformat.StereoMap,
		BaseVolume: avformat.Norm,
	}
}

func newTestSource(t *testing.T, index uint32, m *Mapping) (*Source, error) {
	s, err := NewSource(index, newDataFor(m.Name), nil, nil)
	if err != nil {
		return nil, err
	}
	if err := s.Put(nil); err != nil {
		return nil, err
	}
	return s, nil
}

func newTestSink(t *testing.T, index uint32, m *Mapping) (*Sink, error) {
	snk, err := NewSink(index, newDataFor(m.Name), nil, nil)
	if err != nil {
		return nil, err
	}
	if err := snk.Put(nil); err != nil {
		return nil, err
	}
	return snk, nil
}

func TestCardSetProfileInstantiatesMappedDevices(t *testing.T) {
	c := NewCard(1, "test-card", "test-driver", testProfileSet(), nil, nil)
	var nextIndex uint32 = 1

	err := c.SetProfile("input:analog+output:analog",
		func(m *Mapping) (*Source, error) { nextIndex++; return newTestSource(t, nextIndex, m) },
		func(m *Mapping) (*Sink, error) { nextIndex++; return newTestSink(t, nextIndex, m) })
	if err != nil {
		t.Fatalf("SetProfile() error: %v", err)
	}
	if _, ok := c.Sources["input:analog"]; !ok {
		t.Error("SetProfile() did not instantiate the profile's input mapping")
	}
	if _, ok := c.Sinks["output:analog"]; !ok {
		t.Error("SetProfile() did not instantiate the profile's output mapping")
	}
	if c.Profile.Name != "input:analog+output:analog" {
		t.Errorf("Profile.Name = %q, want the selected profile", c.Profile.Name)
	}
}

func TestCardSetProfileUnlinksDevicesNotInNewProfile(t *testing.T) {
	c := NewCard(1, "test-card", "test-driver", testProfileSet(), nil, nil)
	var nextIndex uint32 = 1
	newSource := func(m *Mapping) (*Source, error) { nextIndex++; return newTestSource(t, nextIndex, m) }
	newSink := func(m *Mapping) (*Sink, error) { nextIndex++; return newTestSink(t, nextIndex, m) }

	if err := c.SetProfile("input:analog+output:analog", newSource, newSink); err != nil {
		t.Fatalf("first SetProfile() error: %v", err)
	}
	if len(c.Sources) != 1 {
		t.Fatalf("Sources after first SetProfile() = %d, want 1", len(c.Sources))
	}

	if err := c.SetProfile("output:analog-only", newSource, newSink); err != nil {
		t.Fatalf("second SetProfile() error: %v", err)
	}
	if len(c.Sources) != 0 {
		t.Errorf("Sources after switching to an output-only profile = %d, want 0", len(c.Sources))
	}
	if _, ok := c.Sinks["output:analog"]; !ok {
		t.Error("the shared output mapping's Sink was unexpectedly unlinked across the profile switch")
	}
}

func TestCardSetProfileRejectsUnknownProfile(t *testing.T) {
	c := NewCard(1, "test-card", "test-driver", testProfileSet(), nil, nil)
	err := c.SetProfile("nonexistent", nil, nil)
	if err == nil {
		t.Fatal("SetProfile() with an unknown profile name succeeded, want error")
	}
}

func TestCardSelectPortActivatesBoundDevicePort(t *testing.T) {
	path := &mixer.Path{Name: "speaker", Direction: mixer.Playback}
	dp := NewDevicePort(path, nil, 10)

	data := newDataFor("output:analog")
	data.Ports = map[string]*device.Port{
		"speaker": dp.Port,
		"line":    {Name: "line", Priority: 100},
	}
	snk, err := NewSink(1, data, nil, nil)
	if err != nil {
		t.Fatalf("NewSink() error: %v", err)
	}
	if err := snk.Put(nil); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	c := NewCard(1, "test-card", "test-driver", testProfileSet(), nil, nil)
	if err := c.SelectPort(context.Background(), snk.Device, "speaker", true); err != nil {
		t.Fatalf("SelectPort() error: %v", err)
	}
	if snk.ActivePort != "speaker" {
		t.Errorf("ActivePort = %q, want speaker", snk.ActivePort)
	}
}

func TestCardSelectPortRejectsUnboundPort(t *testing.T) {
	data := newDataFor("output:analog")
	data.Ports = map[string]*device.Port{"raw": {Name: "raw"}}
	snk, err := NewSink(1, data, nil, nil)
	if err != nil {
		t.Fatalf("NewSink() error: %v", err)
	}
	if err := snk.Put(nil); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	c := NewCard(1, "test-card", "test-driver", testProfileSet(), nil, nil)
	if err := c.SelectPort(context.Background(), snk.Device, "raw", false); err == nil {
		t.Fatal("SelectPort() on a port with no DevicePort binding succeeded, want error")
	}
}
