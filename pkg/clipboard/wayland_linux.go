//go:build linux

package clipboard

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"

	"clipkind/pkg/clipboard/internal/wayland"
)

// WaylandSource talks the wlr data-control protocol directly, so no helper
// binary is needed on wlroots-based compositors and KDE.
type WaylandSource struct{}

func (WaylandSource) Name() string { return BackendWayland }

func (WaylandSource) Sequence() (int64, bool) { return 0, false }

func (WaylandSource) Open(ctx context.Context) (Snapshot, error) {
	if os.Getenv("WAYLAND_DISPLAY") == "" {
		return nil, fmt.Errorf("WAYLAND_DISPLAY not set: %w", ErrBackendAbsent)
	}
	sel, err := wayland.Open(ctx)
	if err != nil {
		if stderrors.Is(err, wayland.ErrUnsupported) {
			return nil, fmt.Errorf("%w: %w", err, ErrBackendAbsent)
		}
		return nil, err
	}
	types := sel.Types()
	return &waylandSnapshot{ctx: ctx, sel: sel, raw: types, types: newMimeSet(types)}, nil
}

type waylandSnapshot struct {
	ctx   context.Context
	sel   *wayland.Selection
	raw   []string
	types mimeSet
}

func (s *waylandSnapshot) Has(f Format) bool {
	return s.types.target(f) != ""
}

func (s *waylandSnapshot) Types() []string {
	return append([]string(nil), s.raw...)
}

func (s *waylandSnapshot) ReadText(f Format) (string, error) {
	target := s.types.target(f)
	if target == "" {
		return "", ErrFormatUnavailable
	}
	data, err := s.sel.Receive(s.ctx, target)
	if err != nil {
		return "", err
	}
	if target == "x-special/gnome-copied-files" {
		return gnomeCopiedFiles(string(data)), nil
	}
	return string(data), nil
}

func (s *waylandSnapshot) ImageFormat() string {
	return imageName(s.types.target(FormatImage))
}

func (s *waylandSnapshot) ReadBitmap() (*Bitmap, error) {
	target := s.types.target(FormatImage)
	if target == "" {
		return nil, ErrFormatUnavailable
	}
	data, err := s.sel.Receive(s.ctx, target)
	if err != nil {
		return nil, err
	}
	bmp, _, err := DecodeBitmap(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", target, err)
	}
	return bmp, nil
}

func (s *waylandSnapshot) Close() error {
	return s.sel.Close()
}
