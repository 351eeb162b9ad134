//go:build windows

package clipboard

import (
	"context"
	"fmt"
	"runtime"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	cfBitmap      = 2
	cfDIB         = 8
	cfUnicodeText = 13
	cfHDROP       = 15
)

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")
	shell32  = windows.NewLazySystemDLL("shell32.dll")

	procOpenClipboard              = user32.NewProc("OpenClipboard")
	procCloseClipboard             = user32.NewProc("CloseClipboard")
	procIsClipboardFormatAvailable = user32.NewProc("IsClipboardFormatAvailable")
	procGetClipboardData           = user32.NewProc("GetClipboardData")
	procRegisterClipboardFormatW   = user32.NewProc("RegisterClipboardFormatW")
	procGetClipboardSequenceNumber = user32.NewProc("GetClipboardSequenceNumber")
	procEnumClipboardFormats       = user32.NewProc("EnumClipboardFormats")
	procGetClipboardFormatNameW    = user32.NewProc("GetClipboardFormatNameW")
	procGlobalLock                 = kernel32.NewProc("GlobalLock")
	procGlobalUnlock               = kernel32.NewProc("GlobalUnlock")
	procGlobalSize                 = kernel32.NewProc("GlobalSize")
	procDragQueryFileW             = shell32.NewProc("DragQueryFileW")
)

var standardFormatNames = map[uintptr]string{
	1: "CF_TEXT", 2: "CF_BITMAP", 7: "CF_OEMTEXT", 8: "CF_DIB", 13: "CF_UNICODETEXT",
	15: "CF_HDROP", 16: "CF_LOCALE", 17: "CF_DIBV5",
}

func registerFormat(name string) uintptr {
	p, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return 0
	}
	r, _, _ := procRegisterClipboardFormatW.Call(uintptr(unsafe.Pointer(p)))
	return r
}

// WindowsSource reads the Win32 clipboard.
type WindowsSource struct{}

func (WindowsSource) Name() string { return BackendWindows }

func (WindowsSource) Sequence() (int64, bool) {
	r, _, _ := procGetClipboardSequenceNumber.Call()
	return int64(uint32(r)), true
}

func (WindowsSource) Open(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// The clipboard is owned by the thread that opened it.
	runtime.LockOSThread()
	if r, _, err := procOpenClipboard.Call(0); r == 0 {
		runtime.UnlockOSThread()
		return nil, fmt.Errorf("OpenClipboard: %w", err)
	}
	return &windowsSnapshot{
		cfRTF:  registerFormat("Rich Text Format"),
		cfHTML: registerFormat("HTML Format"),
	}, nil
}

type windowsSnapshot struct {
	cfRTF  uintptr
	cfHTML uintptr
	closed bool
}

func available(format uintptr) bool {
	if format == 0 {
		return false
	}
	r, _, _ := procIsClipboardFormatAvailable.Call(format)
	return r != 0
}

func (s *windowsSnapshot) Has(f Format) bool {
	switch f {
	case FormatRTF:
		return available(s.cfRTF)
	case FormatHTML:
		return available(s.cfHTML)
	case FormatFileList:
		return available(cfHDROP)
	case FormatImage:
		return available(cfDIB) || available(cfBitmap)
	case FormatText:
		return available(cfUnicodeText)
	}
	return false
}

func (s *windowsSnapshot) Types() []string {
	var out []string
	var format uintptr
	for {
		format, _, _ = procEnumClipboardFormats.Call(format)
		if format == 0 {
			return out
		}
		if name, ok := standardFormatNames[format]; ok {
			out = append(out, name)
			continue
		}
		buf := make([]uint16, 256)
		n, _, _ := procGetClipboardFormatNameW.Call(format, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
		if n == 0 {
			out = append(out, fmt.Sprintf("0x%04x", format))
			continue
		}
		out = append(out, windows.UTF16ToString(buf[:n]))
	}
}

// globalBytes copies the contents of a clipboard memory handle.
func globalBytes(format uintptr) ([]byte, error) {
	h, _, err := procGetClipboardData.Call(format)
	if h == 0 {
		return nil, fmt.Errorf("GetClipboardData: %w", err)
	}
	p, _, err := procGlobalLock.Call(h)
	if p == 0 {
		return nil, fmt.Errorf("GlobalLock: %w", err)
	}
	defer procGlobalUnlock.Call(h)
	size, _, _ := procGlobalSize.Call(h)
	out := make([]byte, size)
	copy(out, unsafe.Slice((*byte)(unsafe.Pointer(p)), size))
	return out, nil
}

func (s *windowsSnapshot) ReadText(f Format) (string, error) {
	if !s.Has(f) {
		return "", ErrFormatUnavailable
	}
	switch f {
	case FormatText:
		data, err := globalBytes(cfUnicodeText)
		if err != nil {
			return "", err
		}
		u := unsafe.Slice((*uint16)(unsafe.Pointer(unsafe.SliceData(data))), len(data)/2)
		return windows.UTF16ToString(u), nil
	case FormatRTF:
		data, err := globalBytes(s.cfRTF)
		if err != nil {
			return "", err
		}
		return trimNUL(data), nil
	case FormatHTML:
		data, err := globalBytes(s.cfHTML)
		if err != nil {
			return "", err
		}
		return cfHTMLFragment(string(data)), nil
	case FormatFileList:
		paths, err := dropFiles()
		if err != nil {
			return "", err
		}
		return URIList(paths), nil
	}
	return "", ErrFormatUnavailable
}

func trimNUL(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

func dropFiles() ([]string, error) {
	h, _, err := procGetClipboardData.Call(cfHDROP)
	if h == 0 {
		return nil, fmt.Errorf("GetClipboardData(CF_HDROP): %w", err)
	}
	count, _, _ := procDragQueryFileW.Call(h, 0xFFFFFFFF, 0, 0)
	paths := make([]string, 0, count)
	for i := uintptr(0); i < count; i++ {
		n, _, _ := procDragQueryFileW.Call(h, i, 0, 0)
		if n == 0 {
			continue
		}
		buf := make([]uint16, n+1)
		procDragQueryFileW.Call(h, i, uintptr(unsafe.Pointer(&buf[0])), n+1)
		paths = append(paths, windows.UTF16ToString(buf))
	}
	return paths, nil
}

func (s *windowsSnapshot) ImageFormat() string {
	if available(cfDIB) {
		return "dib"
	}
	return "bitmap"
}

func (s *windowsSnapshot) ReadBitmap() (*Bitmap, error) {
	// CF_DIB is synthesized by the system when only CF_BITMAP was set.
	if !s.Has(FormatImage) {
		return nil, ErrFormatUnavailable
	}
	dib, err := globalBytes(cfDIB)
	if err != nil {
		return nil, err
	}
	bmp, err := dibToBMP(dib)
	if err != nil {
		return nil, err
	}
	out, _, err := DecodeBitmap(bmp)
	if err != nil {
		return nil, fmt.Errorf("decode dib: %w", err)
	}
	return out, nil
}

func (s *windowsSnapshot) Close() error {
	if s.closed {
		return fmt.Errorf("snapshot already closed")
	}
	s.closed = true
	defer runtime.UnlockOSThread()
	if r, _, err := procCloseClipboard.Call(); r == 0 {
		return fmt.Errorf("CloseClipboard: %w", err)
	}
	return nil
}

func platformSource(backend string) (Source, bool) {
	if backend == BackendWindows {
		return WindowsSource{}, true
	}
	return nil, false
}

func autoSource() Source {
	return &chain{sources: []Source{WindowsSource{}, NewTextSource()}}
}
