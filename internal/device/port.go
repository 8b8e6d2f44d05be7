package device

import "time"

// Availability is a port's jack-detect status (§4.5).
type Availability int

const (
	AvailableUnknown Availability = iota
	AvailableYes
	AvailableNo
)

// Port is the device-core view of a device port: enough to drive active-port
// selection and latency offsetting. The root package's exported DevicePort
// type embeds a *Port and attaches the path/setting binding that the device
// core doesn't need to know about.
type Port struct {
	Name          string
	Priority      uint32
	Available     Availability
	LatencyOffset time.Duration

	// Binding holds whatever the owner (the root package's DevicePort) wants
	// to hang off this entry; the device core never looks inside it.
	Binding interface{}
}
