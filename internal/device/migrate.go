package device

// MoveAllStart drains every attached stream into a caller-owned move queue,
// returning them in their original order, for use when a device is being
// removed or reconfigured (§4.1 move_all_start/finish/fail).
func (d *Device) MoveAllStart() []AttachedStream {
	streams := d.Streams.list()
	for _, s := range streams {
		d.Detach(s.Index(), s.Corked())
	}
	return streams
}
