//go:build linux

package wayland

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

var le = binary.LittleEndian

// Fixed Wayland object IDs we assign (client-range: 2–0xfeffffff).
const (
	idDisplay   uint32 = 1
	idRegistry  uint32 = 2
	idCallback1 uint32 = 3 // first sync
	idSeat      uint32 = 4
	idDCManager uint32 = 5 // zwlr_data_control_manager_v1
	idDCDevice  uint32 = 6 // zwlr_data_control_device_v1
	idCallback2 uint32 = 7 // second sync
)

// waylandConn is a buffered Wayland connection.
type waylandConn struct {
	fd         int
	inBuf      []byte
	pendingFds []int
}

func newConn(sockPath string) (*waylandConn, error) {
	fd, err := syscall.Socket(syscall.AF_UNIX, syscall.SOCK_STREAM|syscall.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}
	if err := syscall.Connect(fd, &syscall.SockaddrUnix{Name: sockPath}); err != nil {
		syscall.Close(fd) //nolint:errcheck
		return nil, err
	}
	return &waylandConn{fd: fd}, nil
}

func (c *waylandConn) close() {
	for _, fd := range c.pendingFds {
		syscall.Close(fd) //nolint:errcheck
	}
	c.pendingFds = nil
	syscall.Close(c.fd) //nolint:errcheck
}

// setDeadline bounds every subsequent socket read.
func (c *waylandConn) setDeadline(deadline time.Time) error {
	if deadline.IsZero() {
		return nil
	}
	d := time.Until(deadline)
	if d <= 0 {
		return context.DeadlineExceeded
	}
	tv := syscall.NsecToTimeval(d.Nanoseconds())
	return syscall.SetsockoptTimeval(c.fd, syscall.SOL_SOCKET, syscall.SO_RCVTIMEO, &tv)
}

func frame(objectID uint32, opcode uint16, args []byte) []byte {
	size := uint16(8 + len(args))
	buf := make([]byte, size)
	le.PutUint32(buf[0:], objectID)
	le.PutUint32(buf[4:], uint32(opcode)|uint32(size)<<16)
	copy(buf[8:], args)
	return buf
}

// sendMsg sends a Wayland request message.
func (c *waylandConn) sendMsg(objectID uint32, opcode uint16, args []byte) error {
	_, err := syscall.Write(c.fd, frame(objectID, opcode, args))
	return err
}

// sendMsgFd sends a request carrying one file descriptor via SCM_RIGHTS.
func (c *waylandConn) sendMsgFd(objectID uint32, opcode uint16, args []byte, fd int) error {
	return syscall.Sendmsg(c.fd, frame(objectID, opcode, args), syscall.UnixRights(fd), nil, 0)
}

// readMsg reads the next complete Wayland event, returning any fd from SCM_RIGHTS.
// fd is -1 if no file descriptor was delivered with this message.
func (c *waylandConn) readMsg() (objectID uint32, opcode uint16, payload []byte, fd int, err error) {
	fd = -1
	for {
		if len(c.inBuf) >= 8 {
			sizeOpcode := le.Uint32(c.inBuf[4:8])
			size := int(sizeOpcode >> 16)
			if size >= 8 && len(c.inBuf) >= size {
				objectID = le.Uint32(c.inBuf[0:4])
				opcode = uint16(sizeOpcode & 0xffff)
				payload = make([]byte, size-8)
				copy(payload, c.inBuf[8:size])
				c.inBuf = c.inBuf[size:]
				if len(c.pendingFds) > 0 {
					fd = c.pendingFds[0]
					c.pendingFds = c.pendingFds[1:]
				}
				return
			}
		}

		buf := make([]byte, 4096)
		oob := make([]byte, syscall.CmsgSpace(4*8)) // room for up to 8 fds
		n, oobn, _, _, recvErr := syscall.Recvmsg(c.fd, buf, oob, syscall.MSG_CMSG_CLOEXEC)
		if recvErr != nil {
			if recvErr == syscall.EAGAIN || recvErr == syscall.EWOULDBLOCK {
				err = context.DeadlineExceeded
				return
			}
			err = recvErr
			return
		}
		if n == 0 {
			err = fmt.Errorf("wayland: connection closed")
			return
		}
		c.inBuf = append(c.inBuf, buf[:n]...)

		if oobn > 0 {
			scms, parseErr := syscall.ParseSocketControlMessage(oob[:oobn])
			if parseErr == nil {
				for _, scm := range scms {
					rights, parseErr := syscall.ParseUnixRights(&scm)
					if parseErr == nil {
						c.pendingFds = append(c.pendingFds, rights...)
					}
				}
			}
		}
	}
}

func encodeUint32(v uint32) []byte {
	b := make([]byte, 4)
	le.PutUint32(b, v)
	return b
}

// encodeString encodes a Wayland string: uint32 length (incl. null), bytes, padding to 4-byte alignment.
func encodeString(s string) []byte {
	sBytes := append([]byte(s), 0) // null terminator
	length := len(sBytes)
	padded := (length + 3) &^ 3
	buf := make([]byte, 4+padded)
	le.PutUint32(buf[0:], uint32(length))
	copy(buf[4:], sBytes)
	return buf
}

func concat(slices ...[]byte) []byte {
	var total int
	for _, s := range slices {
		total += len(s)
	}
	result := make([]byte, 0, total)
	for _, s := range slices {
		result = append(result, s...)
	}
	return result
}

// decodeString reads a Wayland string from payload bytes.
func decodeString(data []byte) (string, []byte, error) {
	if len(data) < 4 {
		return "", data, fmt.Errorf("wayland: short string length field")
	}
	length := int(le.Uint32(data[:4]))
	data = data[4:]
	if length == 0 {
		return "", data, nil
	}
	padded := (length + 3) &^ 3
	if len(data) < padded {
		return "", data, fmt.Errorf("wayland: short string data")
	}
	s := string(data[:length-1]) // exclude null terminator
	return s, data[padded:], nil
}

// ErrUnsupported reports that the session has no compositor to talk to or
// that the compositor does not offer wlr data-control.
var ErrUnsupported = errors.New("wayland: data-control unavailable")

// SocketPath resolves the compositor socket from XDG_RUNTIME_DIR and
// WAYLAND_DISPLAY. An absolute WAYLAND_DISPLAY is used as is.
func SocketPath() (string, error) {
	display := os.Getenv("WAYLAND_DISPLAY")
	if display == "" {
		display = "wayland-0"
	}
	if filepath.IsAbs(display) {
		return display, nil
	}
	runtime := os.Getenv("XDG_RUNTIME_DIR")
	if runtime == "" {
		return "", fmt.Errorf("wayland: XDG_RUNTIME_DIR not set: %w", ErrUnsupported)
	}
	return filepath.Join(runtime, display), nil
}

// Selection is the clipboard selection as seen through
// zwlr_data_control_device_v1 at the moment of Open. It owns the connection
// and must be closed.
type Selection struct {
	c       *waylandConn
	offerID uint32
	types   []string
}

// Open connects to the compositor, binds the data-control manager and reads
// the MIME types offered by the current clipboard selection.
func Open(ctx context.Context) (*Selection, error) {
	sockPath, err := SocketPath()
	if err != nil {
		return nil, err
	}
	c, err := newConn(sockPath)
	if err != nil {
		return nil, fmt.Errorf("wayland: connect %s (%v): %w", sockPath, err, ErrUnsupported)
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := c.setDeadline(deadline); err != nil {
			c.close()
			return nil, err
		}
	}
	sel, err := handshake(c)
	if err != nil {
		c.close()
		return nil, err
	}
	return sel, nil
}

func handshake(c *waylandConn) (*Selection, error) {
	// 1. Request registry.
	if err := c.sendMsg(idDisplay, 1 /*get_registry*/, encodeUint32(idRegistry)); err != nil {
		return nil, err
	}

	// 2. Sync to flush globals.
	if err := c.sendMsg(idDisplay, 0 /*sync*/, encodeUint32(idCallback1)); err != nil {
		return nil, err
	}

	// 3. Collect globals until callback done.
	var seatName, dcManagerName uint32
	var seatFound, dcManagerFound bool

globals:
	for {
		objectID, opcode, payload, fd, err := c.readMsg()
		if err != nil {
			return nil, err
		}
		if fd >= 0 {
			syscall.Close(fd) //nolint:errcheck
		}

		switch {
		case objectID == idDisplay && opcode == 0 /*error*/:
			return nil, displayError(payload)
		case objectID == idRegistry && opcode == 0 /*global*/:
			if len(payload) < 4 {
				continue
			}
			name := le.Uint32(payload[:4])
			iface, _, decErr := decodeString(payload[4:])
			if decErr != nil {
				continue
			}
			switch iface {
			case "wl_seat":
				if !seatFound {
					seatName = name
					seatFound = true
				}
			case "zwlr_data_control_manager_v1":
				dcManagerName = name
				dcManagerFound = true
			}
		case objectID == idCallback1 && opcode == 0 /*done*/:
			break globals
		}
	}

	if !seatFound {
		return nil, fmt.Errorf("wayland: wl_seat not found: %w", ErrUnsupported)
	}
	if !dcManagerFound {
		return nil, fmt.Errorf("wayland: zwlr_data_control_manager_v1 not found: %w", ErrUnsupported)
	}

	// 4. Bind wl_seat.
	// wl_registry.bind new_id encodes inline: [name][interface string][version][new_id]
	if err := c.sendMsg(idRegistry, 0 /*bind*/, concat(
		encodeUint32(seatName),
		encodeString("wl_seat"),
		encodeUint32(1),
		encodeUint32(idSeat),
	)); err != nil {
		return nil, err
	}

	// 5. Bind zwlr_data_control_manager_v1.
	if err := c.sendMsg(idRegistry, 0 /*bind*/, concat(
		encodeUint32(dcManagerName),
		encodeString("zwlr_data_control_manager_v1"),
		encodeUint32(1),
		encodeUint32(idDCManager),
	)); err != nil {
		return nil, err
	}

	// 6. Get data device; the compositor answers with data_offer/offer
	// events for the current selection followed by selection(offer).
	if err := c.sendMsg(idDCManager, 1 /*get_data_device*/, concat(
		encodeUint32(idDCDevice),
		encodeUint32(idSeat),
	)); err != nil {
		return nil, err
	}

	// 7. Sync so that all selection events arrive before we stop reading.
	if err := c.sendMsg(idDisplay, 0 /*sync*/, encodeUint32(idCallback2)); err != nil {
		return nil, err
	}

	offers := map[uint32][]string{}
	var selection uint32

	for {
		objectID, opcode, payload, fd, err := c.readMsg()
		if err != nil {
			return nil, err
		}
		if fd >= 0 {
			syscall.Close(fd) //nolint:errcheck
		}

		switch {
		case objectID == idDisplay && opcode == 0 /*error*/:
			return nil, displayError(payload)
		case objectID == idDCDevice && opcode == 0 /*data_offer*/:
			if len(payload) >= 4 {
				offers[le.Uint32(payload[:4])] = nil
			}
		case objectID == idDCDevice && opcode == 1 /*selection*/:
			if len(payload) >= 4 {
				selection = le.Uint32(payload[:4])
			}
		case objectID == idDCDevice && opcode == 2 /*finished*/:
			return nil, fmt.Errorf("wayland: data device finished")
		case objectID == idCallback2 && opcode == 0 /*done*/:
			return &Selection{c: c, offerID: selection, types: offers[selection]}, nil
		default:
			if mimes, ok := offers[objectID]; ok && opcode == 0 /*offer*/ {
				mime, _, decErr := decodeString(payload)
				if decErr == nil {
					offers[objectID] = append(mimes, mime)
				}
			}
		}
	}
}

func displayError(payload []byte) error {
	if len(payload) < 8 {
		return fmt.Errorf("wayland: protocol error")
	}
	msg, _, _ := decodeString(payload[8:])
	return fmt.Errorf("wayland: protocol error on object %d code %d: %s",
		le.Uint32(payload[:4]), le.Uint32(payload[4:8]), msg)
}

// Types returns the MIME types offered by the selection. Empty when the
// clipboard holds nothing.
func (s *Selection) Types() []string {
	return append([]string(nil), s.types...)
}

// Receive asks the selection owner to write mime into a pipe and reads it to
// EOF.
func (s *Selection) Receive(ctx context.Context, mime string) ([]byte, error) {
	if s.offerID == 0 {
		return nil, fmt.Errorf("wayland: clipboard is empty")
	}
	var p [2]int
	if err := syscall.Pipe2(p[:], syscall.O_CLOEXEC|syscall.O_NONBLOCK); err != nil {
		return nil, fmt.Errorf("wayland: pipe: %w", err)
	}
	r := os.NewFile(uintptr(p[0]), "wayland-receive")
	defer r.Close()

	err := s.c.sendMsgFd(s.offerID, 0 /*receive*/, encodeString(mime), p[1])
	syscall.Close(p[1]) //nolint:errcheck
	if err != nil {
		return nil, fmt.Errorf("wayland: receive %s: %w", mime, err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		if err := r.SetReadDeadline(deadline); err != nil {
			return nil, err
		}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("wayland: read %s: %w", mime, err)
	}
	return data, nil
}

// Close destroys the data device and drops the connection.
func (s *Selection) Close() error {
	if s.offerID != 0 {
		s.c.sendMsg(s.offerID, 1 /*destroy*/, nil) //nolint:errcheck
	}
	s.c.sendMsg(idDCDevice, 1 /*destroy*/, nil) //nolint:errcheck
	s.c.close()
	return nil
}
