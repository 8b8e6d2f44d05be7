package stream

import (
	"testing"

	"github.com/gopulse/audiocore/avformat"
	"github.com/gopulse/audiocore/internal/device"
)

func testSpec() avformat.SampleSpec {
	return avformat.SampleSpec{Format: avformat.EncodingInt16LE, Channels: 2, Rate: 44100}
}

func newTestDevice(t *testing.T) *device.Device {
	t.Helper()
	data := &device.NewData{
		Name:       "test-device",
		SampleSpec: testSpec(),
		ChannelMap: avformat.StereoMap,
		BaseVolume: avformat.Norm,
	}
	d, err := device.New(1, data, nil)
	if err != nil {
		t.Fatalf("device.New() error: %v", err)
	}
	if err := d.Put(nil); err != nil {
		t.Fatalf("device.Put() error: %v", err)
	}
	return d
}

func TestNewSourceOutputAttachesAndStartsRunning(t *testing.T) {
	d := newTestDevice(t)
	o, err := NewSourceOutput(1, d, nil, nil, 0)
	if err != nil {
		t.Fatalf("NewSourceOutput() error: %v", err)
	}
	if o.State != Running {
		t.Errorf("State after NewSourceOutput() = %v, want Running", o.State)
	}
	if d.AttachedCount() != 1 {
		t.Errorf("device stream count = %d, want 1", d.AttachedCount())
	}
}

func TestNewSourceOutputHonorsStartCorked(t *testing.T) {
	d := newTestDevice(t)
	o, err := NewSourceOutput(1, d, nil, nil, StartCorked)
	if err != nil {
		t.Fatalf("NewSourceOutput() error: %v", err)
	}
	if o.State != Corked {
		t.Errorf("State = %v, want Corked", o.State)
	}
}

func TestSourceOutputPushDeliversThroughDriver(t *testing.T) {
	d := newTestDevice(t)
	o, err := NewSourceOutput(1, d, nil, nil, 0)
	if err != nil {
		t.Fatalf("NewSourceOutput() error: %v", err)
	}
	o.SoftVolume = avformat.Uniform(2, avformat.Norm)

	var delivered []byte
	o.Driver.Push = func(o *SourceOutput, chunk []byte) error {
		delivered = append(delivered, chunk...)
		return nil
	}

	chunk := make([]byte, 16)
	for i := range chunk {
		chunk[i] = byte(i + 1)
	}
	if err := o.Push(chunk); err != nil {
		t.Fatalf("Push() error: %v", err)
	}
	if len(delivered) != len(chunk) {
		t.Fatalf("delivered %d bytes, want %d", len(delivered), len(chunk))
	}
}

func TestSourceOutputPushMutesWhenMuted(t *testing.T) {
	d := newTestDevice(t)
	o, err := NewSourceOutput(1, d, nil, nil, 0)
	if err != nil {
		t.Fatalf("NewSourceOutput() error: %v", err)
	}
	o.Mute = true

	var delivered []byte
	o.Driver.Push = func(o *SourceOutput, chunk []byte) error {
		delivered = append(delivered, chunk...)
		return nil
	}

	chunk := []byte{1, 2, 3, 4}
	if err := o.Push(chunk); err != nil {
		t.Fatalf("Push() error: %v", err)
	}
	for i, b := range delivered {
		if b != 0 {
			t.Errorf("delivered[%d] = %d, want 0 while muted", i, b)
		}
	}
}

func TestSourceOutputPushIgnoredWhenCorked(t *testing.T) {
	d := newTestDevice(t)
	o, err := NewSourceOutput(1, d, nil, nil, StartCorked)
	if err != nil {
		t.Fatalf("NewSourceOutput() error: %v", err)
	}
	called := false
	o.Driver.Push = func(o *SourceOutput, chunk []byte) error {
		called = true
		return nil
	}
	if err := o.Push([]byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("Push() error: %v", err)
	}
	if called {
		t.Error("Push() while Corked invoked the driver, want no-op")
	}
}

func TestSourceOutputKillDetachesFromDevice(t *testing.T) {
	d := newTestDevice(t)
	o, err := NewSourceOutput(1, d, nil, nil, 0)
	if err != nil {
		t.Fatalf("NewSourceOutput() error: %v", err)
	}
	o.Kill()
	if o.State != Unlinked {
		t.Errorf("State after Kill() = %v, want Unlinked", o.State)
	}
	if d.AttachedCount() != 0 {
		t.Errorf("device stream count after Kill() = %d, want 0", d.AttachedCount())
	}
	if o.Core.Device != nil {
		t.Error("Kill() left Core.Device non-nil")
	}
}

func TestNewSinkInputAttachesAndStartsRunning(t *testing.T) {
	d := newTestDevice(t)
	i, err := NewSinkInput(1, d, nil, nil, 0, 0)
	if err != nil {
		t.Fatalf("NewSinkInput() error: %v", err)
	}
	if i.State != Running {
		t.Errorf("State = %v, want Running", i.State)
	}
}

func TestSinkInputPeekFillsFromDriver(t *testing.T) {
	d := newTestDevice(t)
	i, err := NewSinkInput(1, d, nil, nil, 0, 0)
	if err != nil {
		t.Fatalf("NewSinkInput() error: %v", err)
	}
	i.SoftVolume = avformat.Uniform(2, avformat.Norm)

	source := make([]byte, 64)
	for n := range source {
		source[n] = byte(n)
	}
	i.Driver.Pop = func(i *SinkInput, ilength int) ([]byte, error) {
		n := ilength
		if n > len(source) {
			n = len(source)
		}
		chunk := source[:n]
		source = source[n:]
		return chunk, nil
	}

	chunk, volume, err := i.Peek(16)
	if err != nil {
		t.Fatalf("Peek() error: %v", err)
	}
	if len(chunk) != 16 {
		t.Fatalf("Peek() returned %d bytes, want 16", len(chunk))
	}
	if !volume.Equal(i.SoftVolume) {
		t.Errorf("Peek() volume = %v, want SoftVolume %v (matching channel maps)", volume, i.SoftVolume)
	}
}

func TestSinkInputPeekUnderrunsWhenDriverHasNothing(t *testing.T) {
	d := newTestDevice(t)
	i, err := NewSinkInput(1, d, nil, nil, 0, 0)
	if err != nil {
		t.Fatalf("NewSinkInput() error: %v", err)
	}
	i.Driver.Pop = func(i *SinkInput, ilength int) ([]byte, error) {
		return nil, nil
	}
	chunk, _, err := i.Peek(16)
	if err != nil {
		t.Fatalf("Peek() error: %v", err)
	}
	if len(chunk) != 16 {
		t.Fatalf("Peek() on underrun returned %d bytes, want 16 (silence)", len(chunk))
	}
	for idx, b := range chunk {
		if b != 0 {
			t.Errorf("underrun silence byte %d = %d, want 0", idx, b)
		}
	}
	if !i.Drained {
		t.Error("Drained = false after an underrun fill")
	}
}

func TestSinkInputPeekReturnsMutedVolumeWhenMuted(t *testing.T) {
	d := newTestDevice(t)
	i, err := NewSinkInput(1, d, nil, nil, 0, 0)
	if err != nil {
		t.Fatalf("NewSinkInput() error: %v", err)
	}
	i.Mute = true
	i.SoftVolume = avformat.Uniform(2, avformat.Norm)
	i.Driver.Pop = func(i *SinkInput, ilength int) ([]byte, error) {
		return make([]byte, ilength), nil
	}
	_, volume, err := i.Peek(8)
	if err != nil {
		t.Fatalf("Peek() error: %v", err)
	}
	if !volume.IsMuted() {
		t.Errorf("Peek() volume = %v, want muted", volume)
	}
}

func TestSinkInputDropAdvancesRenderQueue(t *testing.T) {
	d := newTestDevice(t)
	i, err := NewSinkInput(1, d, nil, nil, 0, 0)
	if err != nil {
		t.Fatalf("NewSinkInput() error: %v", err)
	}
	i.Driver.Pop = func(i *SinkInput, ilength int) ([]byte, error) {
		return make([]byte, ilength), nil
	}
	if _, _, err := i.Peek(16); err != nil {
		t.Fatalf("Peek() error: %v", err)
	}
	i.Drop(16)
	if i.render.Len() != 0 {
		t.Errorf("render queue length after Drop() = %d, want 0", i.render.Len())
	}
}

func TestSinkInputProcessUnderrunClearsRenderOnConfirm(t *testing.T) {
	d := newTestDevice(t)
	i, err := NewSinkInput(1, d, nil, nil, 0, 0)
	if err != nil {
		t.Fatalf("NewSinkInput() error: %v", err)
	}
	i.Driver.ProcessUnderrun = func(i *SinkInput) bool { return true }
	if !i.ProcessUnderrun() {
		t.Error("ProcessUnderrun() = false, want true when render is already empty and driver confirms")
	}
}

func TestSinkInputRequestRewindCapsAtPlayingFor(t *testing.T) {
	d := newTestDevice(t)
	i, err := NewSinkInput(1, d, nil, nil, 0, 0)
	if err != nil {
		t.Fatalf("NewSinkInput() error: %v", err)
	}
	forwarded := -1
	d.Driver.RequestRewind = func(_ *device.Device, n int) error {
		forwarded = n
		return nil
	}
	i.PlayingFor = 100
	i.RequestRewind(500, true, false, false)
	if i.RewriteNBytes != 500 {
		t.Errorf("RewriteNBytes = %d, want 500 (merged request, capping happens against device-domain bytes separately)", i.RewriteNBytes)
	}
	if forwarded != 100 {
		t.Errorf("device rewind = %d, want 100 (capped at PlayingFor)", forwarded)
	}
}

func TestSyncGroupCorkAppliesToAllMembers(t *testing.T) {
	d := newTestDevice(t)
	a, _ := NewSinkInput(1, d, nil, nil, 0, 0)
	b, _ := NewSinkInput(2, d, nil, nil, 0, 0)

	g := &SyncGroup{}
	g.Join(a)
	g.Join(b)

	g.Cork(true)
	if a.State != Corked || b.State != Corked {
		t.Errorf("after SyncGroup.Cork(true): a=%v b=%v, want both Corked", a.State, b.State)
	}
}

func TestNegotiateFormatPrefersDeviceSpecWhenNoRequest(t *testing.T) {
	spec, err := negotiateFormat(nil, nil, testSpec())
	if err != nil {
		t.Fatalf("negotiateFormat() error: %v", err)
	}
	if spec != testSpec() {
		t.Errorf("negotiateFormat(nil, nil, deviceSpec) = %v, want deviceSpec", spec)
	}
}

func TestNegotiateFormatRejectsNoMatch(t *testing.T) {
	req := []avformat.SampleSpec{{Format: avformat.EncodingFloat32LE, Channels: 2, Rate: 48000}}
	_, err := negotiateFormat(req, []avformat.SampleSpec{testSpec()}, testSpec())
	if err == nil {
		t.Fatal("negotiateFormat() with an unmatchable request succeeded, want error")
	}
}
