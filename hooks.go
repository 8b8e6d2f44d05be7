// Package audiocore is the audio device core described in spec §1: the
// object model and control/data protocol for sources, source outputs, sinks
// and sink inputs, plus the port-and-path mixer abstraction that binds a
// device to its hardware. internal/device and internal/stream carry the
// shared state machines and algebra; this package assembles them into the
// Card/Source/Sink/DevicePort/Profile types a server built on top of the
// core actually constructs.
package audiocore

// EventKind identifies what changed for a Hooks.Notify call. §1 puts the
// event/subscription bus itself out of scope ("only its call points" are
// referenced); this is that call point, narrowed to the handful of events
// original_source/ fires at the same points (device new/changed/removed,
// stream new/changed/removed, port/mute/volume change).
type EventKind int

const (
	EventDeviceNew EventKind = iota
	EventDeviceChanged
	EventDeviceRemoved
	EventStreamNew
	EventStreamChanged
	EventStreamRemoved
	EventPortChanged
	EventMuteChanged
	EventVolumeChanged
)

func (k EventKind) String() string {
	switch k {
	case EventDeviceNew:
		return "device-new"
	case EventDeviceChanged:
		return "device-changed"
	case EventDeviceRemoved:
		return "device-removed"
	case EventStreamNew:
		return "stream-new"
	case EventStreamChanged:
		return "stream-changed"
	case EventStreamRemoved:
		return "stream-removed"
	case EventPortChanged:
		return "port-changed"
	case EventMuteChanged:
		return "mute-changed"
	case EventVolumeChanged:
		return "volume-changed"
	default:
		return "unknown"
	}
}

// Hooks is the server-supplied extension point: everything in this package
// that would fire a subscription event in original_source/ calls Notify
// instead, and does nothing if Hooks or Notify is nil.
type Hooks struct {
	Notify func(kind EventKind, index uint32)
}

func (h *Hooks) notify(kind EventKind, index uint32) {
	if h != nil && h.Notify != nil {
		h.Notify(kind, index)
	}
}
