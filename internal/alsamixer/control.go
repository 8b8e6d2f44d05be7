package alsamixer

import (
	"fmt"
	"unsafe"

	"github.com/gopulse/audiocore/internal/mixer"
)

// control is one enumerated ALSA mixer element. It implements both
// mixer.ElementHandle and mixer.JackHandle: ALSA itself draws no distinction
// between a volume/switch control and a jack-detect control, both are just
// elements of a type, so the path-probe config decides which facet it uses.
type control struct {
	mixer *Mixer
	info  ctlElemInfo
}

func (c *control) name() string { return cString(c.info.Id.Name[:]) }

func (c *control) isBoolean() bool    { return c.info.Typ == elemTypeBoolean }
func (c *control) isInteger() bool    { return c.info.Typ == elemTypeInteger || c.info.Typ == elemTypeInteger64 }
func (c *control) isEnumerated() bool { return c.info.Typ == elemTypeEnumerated }

// --- mixer.ElementHandle ---

func (c *control) HasSwitch(mixer.Direction) bool { return c.isBoolean() }
func (c *control) HasVolume(mixer.Direction) bool { return c.isInteger() }
func (c *control) HasEnum() bool                  { return c.isEnumerated() }

func (c *control) GetSwitch(mixer.Direction) (bool, error) {
	v, err := c.readValue(0)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

func (c *control) SetSwitch(_ mixer.Direction, on bool) error {
	var v int64
	if on {
		v = 1
	}
	return c.writeAll(v)
}

func (c *control) VolumeRange(mixer.Direction) (min, max int64, err error) {
	if !c.isInteger() {
		return 0, 0, fmt.Errorf("alsamixer: %q is not an integer control", c.name())
	}
	return c.info.Min, c.info.Max, nil
}

func (c *control) HasDB(mixer.Direction) bool {
	return c.info.Access&accessTLVRead != 0
}

func (c *control) readTLV() (*ctlTLV, error) {
	tlv := &ctlTLV{Numid: c.info.Id.Numid}
	if err := ioctl(c.mixer.file.Fd(), ctlIoctlTLVRead, uintptr(unsafe.Pointer(tlv))); err != nil {
		return nil, fmt.Errorf("alsamixer: TLV_READ %q: %w", c.name(), err)
	}
	if tlv.Typ != tlvTypeDBScale {
		return nil, fmt.Errorf("alsamixer: %q: unsupported TLV type %d", c.name(), tlv.Typ)
	}
	return tlv, nil
}

func (c *control) DBRange(d mixer.Direction) (minDB, maxDB int64, err error) {
	tlv, err := c.readTLV()
	if err != nil {
		return 0, 0, err
	}
	minDB = int64(tlv.Min)
	maxDB = int64(tlv.Min) + int64(tlv.Step)*int64(c.info.Max-c.info.Min)
	return minDB, maxDB, nil
}

func (c *control) DBAt(d mixer.Direction, step int64) (int64, error) {
	tlv, err := c.readTLV()
	if err != nil {
		return 0, err
	}
	return int64(tlv.Min) + int64(tlv.Step)*int64(step-c.info.Min), nil
}

func (c *control) StepNearestDB(d mixer.Direction, target int64, dir int) (int64, error) {
	tlv, err := c.readTLV()
	if err != nil {
		return 0, err
	}
	if tlv.Step == 0 {
		return c.info.Min, nil
	}
	offset := int64(target-int64(tlv.Min)) / int64(tlv.Step)
	step := c.info.Min + offset
	// Round toward dir: +1 rounds the fractional remainder up (louder),
	// -1 rounds it down (quieter), matching the "nearest selectable dB"
	// rounding rule the set-volume algorithm asks for.
	rem := int64(target-int64(tlv.Min)) - offset*int64(tlv.Step)
	if dir > 0 && rem > 0 {
		step++
	} else if dir < 0 && rem < 0 {
		step--
	}
	if step < c.info.Min {
		step = c.info.Min
	}
	if step > c.info.Max {
		step = c.info.Max
	}
	return step, nil
}

func (c *control) GetVolume(mixer.Direction) (int64, error) { return c.readValue(0) }
func (c *control) SetVolume(_ mixer.Direction, step int64) error { return c.writeAll(step) }

func (c *control) EnumCount() int {
	if !c.isEnumerated() {
		return 0
	}
	return int(c.info.EnumItems)
}

func (c *control) EnumName(i int) (string, error) {
	info := c.info
	info.EnumItem = uint32(i)
	if err := ioctl(c.mixer.file.Fd(), ctlIoctlElemInfo, uintptr(unsafe.Pointer(&info))); err != nil {
		return "", fmt.Errorf("alsamixer: ELEM_INFO(enum %d) %q: %w", i, c.name(), err)
	}
	return cString(info.EnumName[:]), nil
}

func (c *control) EnumCurrent() (int, error) {
	v, err := c.readValue(0)
	return int(v), err
}

func (c *control) SetEnum(i int) error { return c.writeAll(int64(i)) }

func (c *control) ChannelCount(mixer.Direction) int { return int(c.info.Count) }

func (c *control) HasChannel(d mixer.Direction, alsaChannel int) bool {
	return alsaChannel >= 0 && alsaChannel < c.ChannelCount(d)
}

// --- mixer.JackHandle ---

func (c *control) Plugged() (bool, error) { return c.GetSwitch(mixer.Playback) }

// --- raw ELEM_READ / ELEM_WRITE ---

func (c *control) readValue(channel int) (int64, error) {
	v := ctlElemValue{Id: c.info.Id}
	if err := ioctl(c.mixer.file.Fd(), ctlIoctlElemRead, uintptr(unsafe.Pointer(&v))); err != nil {
		return 0, fmt.Errorf("alsamixer: ELEM_READ %q: %w", c.name(), err)
	}
	if channel < 0 || channel >= len(v.Value) {
		return 0, fmt.Errorf("alsamixer: %q: channel %d out of range", c.name(), channel)
	}
	return v.Value[channel], nil
}

// writeAll sets every channel of the control to the same value, which is
// what every path-config use (MERGE volume, MUTE switch, SELECT enum) needs:
// paths address a control as one logical slider, not per-ALSA-channel.
func (c *control) writeAll(value int64) error {
	v := ctlElemValue{Id: c.info.Id}
	n := int(c.info.Count)
	if n == 0 {
		n = 1
	}
	for i := 0; i < n && i < len(v.Value); i++ {
		v.Value[i] = value
	}
	if err := ioctl(c.mixer.file.Fd(), ctlIoctlElemWrite, uintptr(unsafe.Pointer(&v))); err != nil {
		return fmt.Errorf("alsamixer: ELEM_WRITE %q: %w", c.name(), err)
	}
	return nil
}
