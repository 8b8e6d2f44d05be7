package stream

import (
	"github.com/gopulse/audiocore/avformat"
	"github.com/gopulse/audiocore/internal/device"
)

// MayMoveTo reports whether i could be moved to dest: never for a sync
// group member (§3 "moving a sync member is forbidden"), otherwise the
// same cycle check as the source-output side (§4.3, §8 property 10).
func (i *SinkInput) MayMoveTo(dest *device.Device) bool {
	if i.sync != nil && len(i.sync.members) > 1 {
		return false
	}
	return mayMoveTo(i, dest)
}

// StartMove implements §4.3 start_move for the playback side.
func (i *SinkInput) StartMove() {
	if i.Driver.Moving != nil {
		_ = i.Driver.Moving(i, nil)
	}
	startMove(i)
}

// FinishMove implements §4.3 finish_move for the playback side.
func (i *SinkInput) FinishMove(dest *device.Device, save bool) error {
	const op = "stream.SinkInput.FinishMove"
	if i.sync != nil && len(i.sync.members) > 1 {
		return avformat.NewError(op, avformat.NotSupported, errSyncMember)
	}
	if err := finishMove(i, dest, save); err != nil {
		return err
	}
	if i.Driver.Moving != nil {
		if err := i.Driver.Moving(i, dest); err != nil {
			i.FailMove()
			return avformat.NewError(op, avformat.NotSupported, err)
		}
	}
	if i.Driver.UpdateRate != nil {
		_ = i.Driver.UpdateRate(i)
	}
	return nil
}

// FailMove implements §4.3 fail_move for the playback side.
func (i *SinkInput) FailMove() {
	if i.Driver.MoveFail != nil {
		if dest, ok := i.Driver.MoveFail(i); ok && dest != nil {
			if err := i.FinishMove(dest, i.SaveVolume); err == nil {
				return
			}
		}
	}
	if i.Driver.Moving != nil {
		_ = i.Driver.Moving(i, nil)
	}
	failMove(i)
	i.Kill()
}

// MoveTo is the convenience wrapper combining StartMove/FinishMove/FailMove.
func (i *SinkInput) MoveTo(dest *device.Device, save bool) error {
	if !i.MayMoveTo(dest) {
		return avformat.NewError("stream.SinkInput.MoveTo", avformat.NotSupported, errMoveCycle)
	}
	i.StartMove()
	if err := i.FinishMove(dest, save); err != nil {
		i.FailMove()
		return err
	}
	return nil
}

type syncMemberErr struct{}

func (syncMemberErr) Error() string { return "sink input belongs to a multi-member sync group" }

var errSyncMember = syncMemberErr{}
