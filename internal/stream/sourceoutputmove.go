package stream

import (
	"github.com/gopulse/audiocore/avformat"
	"github.com/gopulse/audiocore/internal/device"
)

// MayMoveTo reports whether o could be moved to dest without creating a
// sharing cycle (§4.3, §8 property 10).
func (o *SourceOutput) MayMoveTo(dest *device.Device) bool { return mayMoveTo(o, dest) }

// StartMove implements §4.3 start_move: calls Driver.Moving with a nil
// destination, detaches from the
// current source, and (in flat mode) recomputes that source's volume
// without this output's contribution.
func (o *SourceOutput) StartMove() {
	if o.Driver.Moving != nil {
		_ = o.Driver.Moving(o, nil)
	}
	startMove(o)
}

// FinishMove implements §4.3 finish_move.
func (o *SourceOutput) FinishMove(dest *device.Device, save bool) error {
	const op = "stream.SourceOutput.FinishMove"
	if o.DirectOnInput != nil {
		return avformat.NewError(op, avformat.NotSupported, errDirectOnInput)
	}
	if o.Flags.Has(Passthrough) {
		if !formatCompatible(o.Spec, dest.SampleSpec) {
			return avformat.NewError(op, avformat.Busy, errPassthroughIncompatible)
		}
	}
	if err := finishMove(o, dest, save); err != nil {
		return err
	}
	if o.Driver.Moving != nil {
		if err := o.Driver.Moving(o, dest); err != nil {
			o.FailMove()
			return avformat.NewError(op, avformat.NotSupported, err)
		}
	}
	if o.Driver.UpdateRate != nil {
		_ = o.Driver.UpdateRate(o)
	}
	return nil
}

// FailMove implements §4.3 fail_move: gives MoveFail a chance to redirect
// the stream elsewhere before killing it.
func (o *SourceOutput) FailMove() {
	if o.Driver.MoveFail != nil {
		if dest, ok := o.Driver.MoveFail(o); ok && dest != nil {
			if err := o.FinishMove(dest, o.SaveVolume); err == nil {
				return
			}
		}
	}
	if o.Driver.Moving != nil {
		_ = o.Driver.Moving(o, nil)
	}
	failMove(o)
	o.Kill()
}

// MoveTo is the convenience wrapper combining StartMove/FinishMove/FailMove.
func (o *SourceOutput) MoveTo(dest *device.Device, save bool) error {
	if !o.MayMoveTo(dest) {
		return avformat.NewError("stream.SourceOutput.MoveTo", avformat.NotSupported, errMoveCycle)
	}
	o.StartMove()
	if err := o.FinishMove(dest, save); err != nil {
		o.FailMove()
		return err
	}
	return nil
}

// ResyncRate resyncs the resampler to the attached source's current sample
// spec, invoked after a rate switch (§4.1 UpdateRate's "corked streams are
// given a chance to re-resample").
func (o *SourceOutput) ResyncRate() error {
	if o.Core.Device == nil {
		return nil
	}
	if o.Resampler != nil {
		o.Resampler.Reset()
	}
	if o.Driver.UpdateRate != nil {
		return o.Driver.UpdateRate(o)
	}
	return nil
}

func formatCompatible(a, b avformat.SampleSpec) bool { return a.Format == b.Format }

type directOnInputErr struct{}

func (directOnInputErr) Error() string { return "source output has a direct-on-input bond" }

var errDirectOnInput = directOnInputErr{}

type passthroughIncompatibleErr struct{}

func (passthroughIncompatibleErr) Error() string {
	return "destination cannot accept this passthrough format"
}

var errPassthroughIncompatible = passthroughIncompatibleErr{}
