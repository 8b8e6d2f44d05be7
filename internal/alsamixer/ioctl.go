// Package alsamixer implements a mixer.Backend over a Linux ALSA control
// device (/dev/snd/controlCN), grounded on the ioctl conventions used
// throughout the reference ALSA binding this package was adapted from.
package alsamixer

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

func ioctl(fd uintptr, req uintptr, arg uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, req, arg)
	if errno != 0 {
		return errno
	}
	return nil
}

func ior(typ, nr, size uintptr) uintptr {
	const (
		nrbits, typebits, sizebits      = 8, 8, 14
		nrshift                         = 0
		typeshift                      = nrshift + nrbits
		sizeshift                      = typeshift + typebits
		dirshift                       = sizeshift + sizebits
		dirRead                        = 2
	)
	return (dirRead << dirshift) | (typ << typeshift) | (nr << nrshift) | (size << sizeshift)
}

func iow(typ, nr, size uintptr) uintptr {
	const (
		nrbits, typebits, sizebits = 8, 8, 14
		nrshift                    = 0
		typeshift                  = nrshift + nrbits
		sizeshift                  = typeshift + typebits
		dirshift                   = sizeshift + sizebits
		dirWrite                   = 1
	)
	return (dirWrite << dirshift) | (typ << typeshift) | (nr << nrshift) | (size << sizeshift)
}

func iowr(typ, nr, size uintptr) uintptr {
	const (
		nrbits, typebits, sizebits = 8, 8, 14
		nrshift                    = 0
		typeshift                  = nrshift + nrbits
		sizeshift                  = typeshift + typebits
		dirshift                   = sizeshift + sizebits
		dirBoth                    = 3
	)
	return (dirBoth << dirshift) | (typ << typeshift) | (nr << nrshift) | (size << sizeshift)
}

var (
	ctlIoctlCardInfo = ior('U', 0x01, unsafe.Sizeof(ctlCardInfo{}))
	ctlIoctlElemList = iowr('U', 0x10, unsafe.Sizeof(ctlElemList{}))
	ctlIoctlElemInfo = iowr('U', 0x11, unsafe.Sizeof(ctlElemInfo{}))
	ctlIoctlElemRead = iowr('U', 0x12, unsafe.Sizeof(ctlElemValue{}))
	ctlIoctlElemWrite = iowr('U', 0x13, unsafe.Sizeof(ctlElemValue{}))
	ctlIoctlTLVRead  = iowr('U', 0x1a, unsafe.Sizeof(ctlTLV{}))
)
