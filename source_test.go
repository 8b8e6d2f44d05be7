package audiocore

import (
	"testing"

	"github.com/gopulse/audiocore/internal/device"
	"github.com/gopulse/audiocore/internal/stream"
)

func TestNewSourceFiresDeviceNewEvent(t *testing.T) {
	var gotKind EventKind
	hooks := &Hooks{Notify: func(kind EventKind, index uint32) { gotKind = kind }}
	s, err := NewSource(1, newDataFor("test-source"), nil, hooks)
	if err != nil {
		t.Fatalf("NewSource() error: %v", err)
	}
	if gotKind != EventDeviceNew {
		t.Errorf("Notify saw %v, want EventDeviceNew", gotKind)
	}
	if s.Device.State != device.Init {
		t.Errorf("State after NewSource() = %v, want Init", s.Device.State)
	}
}

func TestSourcePutFiresDeviceChangedEvent(t *testing.T) {
	var events []EventKind
	hooks := &Hooks{Notify: func(kind EventKind, index uint32) { events = append(events, kind) }}
	s, err := NewSource(1, newDataFor("test-source"), nil, hooks)
	if err != nil {
		t.Fatalf("NewSource() error: %v", err)
	}
	if err := s.Put(nil); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	if len(events) != 2 || events[1] != EventDeviceChanged {
		t.Errorf("events = %v, want [EventDeviceNew EventDeviceChanged]", events)
	}
}

func TestSourceNewOutputFiresStreamNewEvent(t *testing.T) {
	var gotKind EventKind
	hooks := &Hooks{Notify: func(kind EventKind, index uint32) { gotKind = kind }}
	s, err := NewSource(1, newDataFor("test-source"), nil, hooks)
	if err != nil {
		t.Fatalf("NewSource() error: %v", err)
	}
	if err := s.Put(nil); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	o, err := s.NewOutput(1, nil, nil, 0)
	if err != nil {
		t.Fatalf("NewOutput() error: %v", err)
	}
	if gotKind != EventStreamNew {
		t.Errorf("Notify saw %v, want EventStreamNew", gotKind)
	}
	if o.State != stream.Running {
		t.Errorf("output State = %v, want Running", o.State)
	}
}

func TestSourcePostDeliversToAttachedOutputs(t *testing.T) {
	s, err := NewSource(1, newDataFor("test-source"), nil, nil)
	if err != nil {
		t.Fatalf("NewSource() error: %v", err)
	}
	if err := s.Put(nil); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	o, err := s.NewOutput(1, nil, nil, 0)
	if err != nil {
		t.Fatalf("NewOutput() error: %v", err)
	}
	var delivered []byte
	o.Driver.Push = func(o *stream.SourceOutput, chunk []byte) error {
		delivered = append(delivered, chunk...)
		return nil
	}
	s.Post([]byte{1, 2, 3, 4})
	if len(delivered) != 4 {
		t.Errorf("delivered %d bytes, want 4", len(delivered))
	}
}

func TestSourceIsMonitorReflectsMonitorOf(t *testing.T) {
	master, err := NewSource(1, newDataFor("master"), nil, nil)
	if err != nil {
		t.Fatalf("NewSource(master) error: %v", err)
	}
	monitorData := newDataFor("master.monitor")
	monitorData.MonitorOf = master.Device
	monitor, err := NewSource(2, monitorData, nil, nil)
	if err != nil {
		t.Fatalf("NewSource(monitor) error: %v", err)
	}
	if master.IsMonitor() {
		t.Error("IsMonitor() = true on the non-monitor master")
	}
	if !monitor.IsMonitor() {
		t.Error("IsMonitor() = false on a source created with MonitorOf set")
	}
}
