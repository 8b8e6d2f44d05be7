package alsamixer

import (
	"bytes"
	"fmt"
	"os"
	"unsafe"
)

// Mixer is an open ALSA control device and its enumerated controls.
type Mixer struct {
	file     *os.File
	cardInfo ctlCardInfo
	byName   map[string]*control
}

// Open opens /dev/snd/controlC<card> and enumerates its mixer controls.
func Open(card int) (*Mixer, error) {
	path := fmt.Sprintf("/dev/snd/controlC%d", card)
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("alsamixer: open %s: %w", path, err)
	}
	m := &Mixer{file: f, byName: map[string]*control{}}
	if err := ioctl(m.file.Fd(), ctlIoctlCardInfo, uintptr(unsafe.Pointer(&m.cardInfo))); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("alsamixer: CARD_INFO: %w", err)
	}
	if err := m.enumerate(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return m, nil
}

// Close releases the control device handle.
func (m *Mixer) Close() error {
	if m == nil || m.file == nil {
		return nil
	}
	err := m.file.Close()
	m.file = nil
	return err
}

// CardName is the sound card's ALSA card name, used to pick the right
// profile set (§4.5, §6).
func (m *Mixer) CardName() string { return cString(m.cardInfo.Name[:]) }

func (m *Mixer) enumerate() error {
	list := &ctlElemList{}
	if err := ioctl(m.file.Fd(), ctlIoctlElemList, uintptr(unsafe.Pointer(list))); err != nil {
		return fmt.Errorf("alsamixer: ELEM_LIST(count): %w", err)
	}
	if list.Count == 0 {
		return nil
	}
	ids := make([]ctlElemId, list.Count)
	list.Space = list.Count
	list.Pids = uintptr(unsafe.Pointer(&ids[0]))
	if err := ioctl(m.file.Fd(), ctlIoctlElemList, uintptr(unsafe.Pointer(list))); err != nil {
		return fmt.Errorf("alsamixer: ELEM_LIST(ids): %w", err)
	}
	for i := uint32(0); i < list.Used; i++ {
		info := ctlElemInfo{Id: ids[i]}
		if err := ioctl(m.file.Fd(), ctlIoctlElemInfo, uintptr(unsafe.Pointer(&info))); err != nil {
			continue
		}
		c := &control{mixer: m, info: info}
		name := c.name()
		// Multiple instances of the same name (e.g. per-channel controls on
		// some drivers) keep the first; ALSA mixer names are normally unique
		// per (name, index) and index 0 is what paths reference.
		if _, exists := m.byName[name]; !exists {
			m.byName[name] = c
		}
	}
	return nil
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}
