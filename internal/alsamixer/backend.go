package alsamixer

import "github.com/gopulse/audiocore/internal/mixer"

// Backend adapts an open Mixer to mixer.Backend, so path configs can resolve
// `[Element ...]`/`[Jack ...]` stanzas by their ALSA control name.
type Backend struct {
	m *Mixer
}

// NewBackend wraps m for use as a mixer.Backend.
func NewBackend(m *Mixer) *Backend { return &Backend{m: m} }

func (b *Backend) Element(name string) (mixer.ElementHandle, bool) {
	c, ok := b.m.byName[name]
	if !ok {
		return nil, false
	}
	return c, true
}

func (b *Backend) Jack(name string) (mixer.JackHandle, bool) {
	c, ok := b.m.byName[name]
	if !ok {
		return nil, false
	}
	return c, true
}

var _ mixer.Backend = (*Backend)(nil)
