package can

import (
	"encoding/binary"
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// conn abstracts the raw socket so the dispatcher and its outstanding
// table can be exercised against a fake in tests, the same seam the
// teacher draws between pkg/exchange and pkg/transport.
type conn interface {
	// send writes one CAN-FD frame addressed to canID.
	send(canID uint32, data []byte) error
	// recv blocks for the next inbound frame. It returns an error only
	// when the connection has been closed or has failed irrecoverably.
	recv() (canID uint32, data []byte, err error)
	close() error
}

// ifreqIndex mirrors the kernel's struct ifreq for the SIOCGIFINDEX
// request: an interface name followed by a union whose first member we
// use as the returned ifindex.
type ifreqIndex struct {
	name  [unix.IFNAMSIZ]byte
	index int32
	_     [20]byte
}

// socketCANConn is a real AF_CAN/CAN_RAW socket bound to one interface,
// with CAN-FD frames enabled. Grounded on pkg/transport/udp.go's
// Start/Stop/readLoop shape, adapted from a connected UDP socket to a
// bound raw CAN socket.
type socketCANConn struct {
	fd int

	closeOnce sync.Once
}

func openSocketCAN(ifaceName string) (*socketCANConn, error) {
	fd, err := unix.Socket(unix.AF_CAN, unix.SOCK_RAW, unix.CAN_RAW)
	if err != nil {
		return nil, fmt.Errorf("can: socket: %w", err)
	}

	idx, err := interfaceIndex(fd, ifaceName)
	if err != nil {
		unix.Close(fd)
		return nil, err
	}

	// Enable CAN-FD frames; a plain CAN_RAW socket otherwise truncates
	// reads/writes to the 8-byte classic CAN payload.
	if err := unix.SetsockoptInt(fd, unix.SOL_CAN_RAW, unix.CAN_RAW_FD_FRAMES, 1); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("can: enable CAN-FD frames: %w", err)
	}

	addr := &unix.SockaddrCAN{Ifindex: idx}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("can: bind %s: %w", ifaceName, err)
	}

	return &socketCANConn{fd: fd}, nil
}

func interfaceIndex(fd int, ifaceName string) (int, error) {
	if len(ifaceName) >= unix.IFNAMSIZ {
		return 0, fmt.Errorf("can: interface name %q too long", ifaceName)
	}
	var req ifreqIndex
	copy(req.name[:], ifaceName)

	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(unix.SIOCGIFINDEX), uintptr(unsafe.Pointer(&req)))
	if errno != 0 {
		return 0, fmt.Errorf("can: SIOCGIFINDEX %s: %w", ifaceName, errno)
	}
	return int(req.index), nil
}

// canfdFrame mirrors struct canfd_frame from linux/can.h.
type canfdFrame struct {
	canID uint32
	len   uint8
	flags uint8
	res0  uint8
	res1  uint8
	data  [CANFDMaxDLen]byte
}

const canfdFrameSize = 4 + 1 + 1 + 1 + 1 + CANFDMaxDLen

// canEFFFlag marks an arbitration ID as a 29-bit extended frame, set on
// every frame this package writes so actuator IDs are not limited to
// the 11-bit standard ID space.
const canEFFFlag = 0x80000000

func (c *socketCANConn) send(canID uint32, data []byte) error {
	if len(data) > CANFDMaxDLen {
		return ErrPayloadTooLarge
	}
	var frame canfdFrame
	frame.canID = canID | canEFFFlag
	frame.len = uint8(len(data))
	copy(frame.data[:], data)

	buf := make([]byte, canfdFrameSize)
	binary.LittleEndian.PutUint32(buf[0:4], frame.canID)
	buf[4] = frame.len
	buf[5] = frame.flags
	copy(buf[8:], frame.data[:])

	_, err := unix.Write(c.fd, buf)
	return err
}

func (c *socketCANConn) recv() (uint32, []byte, error) {
	buf := make([]byte, canfdFrameSize)
	n, err := unix.Read(c.fd, buf)
	if err != nil {
		return 0, nil, err
	}
	if n < 8 {
		return 0, nil, ErrFrameTooShort
	}
	canID := binary.LittleEndian.Uint32(buf[0:4]) &^ canEFFFlag
	dlen := int(buf[4])
	if 8+dlen > n {
		dlen = n - 8
	}
	data := make([]byte, dlen)
	copy(data, buf[8:8+dlen])
	return canID, data, nil
}

func (c *socketCANConn) close() error {
	var err error
	c.closeOnce.Do(func() {
		err = unix.Close(c.fd)
	})
	return err
}
