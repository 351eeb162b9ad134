package clipboard

import (
	"context"
	"fmt"

	atotto "github.com/atotto/clipboard"
)

// TextSource reads plain text through github.com/atotto/clipboard. It is the
// last resort on every platform and never reports rich formats.
type TextSource struct {
	read func() (string, error)
}

func NewTextSource() *TextSource {
	return &TextSource{read: atotto.ReadAll}
}

func (s *TextSource) Name() string { return BackendText }

func (s *TextSource) Sequence() (int64, bool) { return 0, false }

func (s *TextSource) Open(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if atotto.Unsupported {
		return nil, fmt.Errorf("no clipboard utility available (install xclip, xsel or wl-clipboard): %w", ErrBackendAbsent)
	}
	text, err := s.read()
	if err != nil {
		return nil, err
	}
	return &textSnapshot{text: text}, nil
}

type textSnapshot struct {
	text string
}

func (s *textSnapshot) Has(f Format) bool {
	return f == FormatText && s.text != ""
}

func (s *textSnapshot) Types() []string {
	if s.text == "" {
		return nil
	}
	return []string{"text/plain"}
}

func (s *textSnapshot) ReadText(f Format) (string, error) {
	if !s.Has(f) {
		return "", ErrFormatUnavailable
	}
	return s.text, nil
}

func (s *textSnapshot) ImageFormat() string { return "" }

func (s *textSnapshot) ReadBitmap() (*Bitmap, error) { return nil, ErrFormatUnavailable }

func (s *textSnapshot) Close() error { return nil }
