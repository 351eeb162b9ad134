// Package clipboard abstracts the operating system clipboard behind a Source
// that is opened for a single query and released before control returns to
// the caller. Build-tagged adapters cover Wayland (native data-control
// protocol), X11 (xclip), Windows (Win32) and a text-only fallback; Memory and
// fixture sources serve tests and headless use.
package clipboard

import (
	"context"
	stderrors "errors"

	"clipkind/pkg/errors"
	"clipkind/pkg/logger"
)

// Format is a normalized clipboard representation. Adapters map their native
// format names onto these.
type Format string

const (
	FormatRTF      Format = "rtf"
	FormatHTML     Format = "html"
	FormatFileList Format = "files"
	FormatImage    Format = "image"
	FormatText     Format = "text"
)

// AllFormats lists the normalized formats in classification priority order.
var AllFormats = []Format{FormatRTF, FormatHTML, FormatFileList, FormatImage, FormatText}

// ErrFormatUnavailable is returned by Snapshot reads when the format is not
// on the clipboard. It is not a failure from the caller's point of view.
var ErrFormatUnavailable = stderrors.New("clipboard: format not available")

// ErrBackendAbsent marks an Open failure caused by the backend not existing
// in this session: no compositor or display, helper tool not installed, or
// the protocol not offered. Only these failures let the auto chain move on
// to the next backend.
var ErrBackendAbsent = stderrors.New("clipboard: backend not available")

// Source opens point-in-time views of a clipboard.
type Source interface {
	// Name identifies the backend in logs and errors.
	Name() string
	// Open acquires the clipboard. Contention or a missing display fails
	// immediately; there is no retry.
	Open(ctx context.Context) (Snapshot, error)
	// Sequence returns the platform change counter, or false when the
	// platform has none.
	Sequence() (int64, bool)
}

// Snapshot is an open clipboard. It must be closed on every path.
type Snapshot interface {
	Has(f Format) bool
	// Types returns the raw backend format names, for diagnostics.
	Types() []string
	// ReadText returns the textual payload of f. For FormatFileList it is a
	// newline separated URI list.
	ReadText(f Format) (string, error)
	// ImageFormat names the backend image representation ("png", "dib", ...).
	ImageFormat() string
	// ReadBitmap returns the decoded image, or ErrFormatUnavailable.
	ReadBitmap() (*Bitmap, error)
	Close() error
}

// With opens src, runs fn, and closes the snapshot before returning,
// including when fn fails or panics.
func With(ctx context.Context, src Source, fn func(Snapshot) error) error {
	_, err := Query(ctx, src, func(s Snapshot) (struct{}, error) {
		return struct{}{}, fn(s)
	})
	return err
}

// Query is With for functions that produce a value.
func Query[T any](ctx context.Context, src Source, fn func(Snapshot) (T, error)) (T, error) {
	var zero T
	snap, err := src.Open(ctx)
	if err != nil {
		var e *errors.Error
		if stderrors.As(err, &e) {
			return zero, e
		}
		return zero, errors.SourceUnavailable(src.Name(), err)
	}
	defer func() {
		if cerr := snap.Close(); cerr != nil {
			logger.Warn().Err(cerr).Str("source", src.Name()).Msg("failed to release clipboard")
		}
	}()
	return fn(snap)
}

// Present returns the normalized formats available in s, in priority order.
func Present(s Snapshot) []Format {
	var out []Format
	for _, f := range AllFormats {
		if s.Has(f) {
			out = append(out, f)
		}
	}
	return out
}
