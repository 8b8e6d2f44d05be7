package audiocore

import "testing"

func TestEventKindString(t *testing.T) {
	tests := []struct {
		kind EventKind
		want string
	}{
		{EventDeviceNew, "device-new"},
		{EventPortChanged, "port-changed"},
		{EventVolumeChanged, "volume-changed"},
		{EventKind(999), "unknown"},
	}
	for _, tc := range tests {
		if got := tc.kind.String(); got != tc.want {
			t.Errorf("EventKind(%d).String() = %q, want %q", tc.kind, got, tc.want)
		}
	}
}

func TestNilHooksNotifyIsNoOp(t *testing.T) {
	var h *Hooks
	h.notify(EventDeviceNew, 1) // must not panic
}

func TestHooksWithNilNotifyFuncIsNoOp(t *testing.T) {
	h := &Hooks{}
	h.notify(EventDeviceNew, 1) // must not panic
}

func TestHooksNotifyInvokesCallback(t *testing.T) {
	var gotKind EventKind
	var gotIndex uint32
	h := &Hooks{Notify: func(kind EventKind, index uint32) {
		gotKind, gotIndex = kind, index
	}}
	h.notify(EventPortChanged, 7)
	if gotKind != EventPortChanged || gotIndex != 7 {
		t.Errorf("Notify callback saw (%v, %d), want (%v, 7)", gotKind, gotIndex, EventPortChanged)
	}
}
