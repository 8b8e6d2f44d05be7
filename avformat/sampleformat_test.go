package avformat

import "testing"

func TestSampleSpecValid(t *testing.T) {
	tests := []struct {
		name string
		spec SampleSpec
		want bool
	}{
		{"ok stereo", SampleSpec{Format: EncodingInt16LE, Channels: 2, Rate: 44100}, true},
		{"unknown format", SampleSpec{Format: 99, Channels: 2, Rate: 44100}, false},
		{"zero channels", SampleSpec{Format: EncodingInt16LE, Channels: 0, Rate: 44100}, false},
		{"too many channels", SampleSpec{Format: EncodingInt16LE, Channels: 33, Rate: 44100}, false},
		{"rate too low", SampleSpec{Format: EncodingInt16LE, Channels: 2, Rate: 100}, false},
		{"rate too high", SampleSpec{Format: EncodingInt16LE, Channels: 2, Rate: 500000}, false},
	}
	for _, tc := range tests {
		if got := tc.spec.Valid(); got != tc.want {
			t.Errorf("%s: Valid() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestFrameSize(t *testing.T) {
	spec := SampleSpec{Format: EncodingInt16LE, Channels: 2, Rate: 44100}
	if got := spec.FrameSize(); got != 4 {
		t.Errorf("FrameSize() = %d, want 4", got)
	}
}

func TestBytesUsecRoundTrip(t *testing.T) {
	spec := SampleSpec{Format: EncodingInt16LE, Channels: 2, Rate: 44100}
	usec := int64(1000000) // one second
	bytes := spec.UsecToBytes(usec)
	if got := spec.BytesToUsec(bytes); got != usec {
		t.Errorf("BytesToUsec(UsecToBytes(%d)) = %d, want %d", usec, got, usec)
	}
}

func TestRateMultipleOf(t *testing.T) {
	of4000, of11025 := RateMultipleOf(44100)
	if of4000 {
		t.Error("44100 reported as a multiple of 4000")
	}
	if !of11025 {
		t.Error("44100 not reported as a multiple of 11025")
	}
	of4000, of11025 = RateMultipleOf(48000)
	if !of4000 {
		t.Error("48000 not reported as a multiple of 4000")
	}
	if of11025 {
		t.Error("48000 reported as a multiple of 11025")
	}
}
