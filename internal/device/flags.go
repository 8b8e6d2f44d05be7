package device

// Flags are the independently toggleable device capabilities from §3.
type Flags uint32

const (
	// SupportsLatency means the device can report a meaningful latency.
	SupportsLatency Flags = 1 << iota
	// DynamicLatency means the requested latency can change at runtime.
	DynamicLatency
	// HasHWVolume means the driver exposes a hardware volume control.
	HasHWVolume
	// HasHWMute means the driver exposes a hardware mute control.
	HasHWMute
	// DeferredVolume means hardware volume writes are scheduled, not immediate.
	DeferredVolume
	// DecibelVolume means the hardware volume control is calibrated in dB.
	DecibelVolume
	// FlatVolume means this device's hardware volume tracks the loudest
	// attached stream instead of an independent user setting.
	FlatVolume
	// SharedVolume means this device's volume tree is merged into a master's.
	SharedVolume
	// DynamicLatencyRange means the device's min/max latency can be queried
	// and is not a single fixed value.
	DynamicLatencyRange
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }
