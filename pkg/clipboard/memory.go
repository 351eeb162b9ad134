package clipboard

import (
	"context"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Memory is an in-process clipboard. It records how many snapshots are open
// so tests can assert that every operation releases the clipboard.
type Memory struct {
	mu sync.Mutex

	Texts     map[Format]string
	Image     *Bitmap
	ImageName string
	// ImageErr is returned by ReadBitmap when set, simulating a backend
	// that advertises an image it cannot deliver.
	ImageErr error
	// OpenErr makes Open fail, simulating a contended clipboard.
	OpenErr error
	// Seq is returned by Sequence when HasSeq is true.
	Seq    int64
	HasSeq bool

	open   int
	opened int
}

func NewMemory() *Memory {
	return &Memory{Texts: map[Format]string{}}
}

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Open(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.OpenErr != nil {
		return nil, m.OpenErr
	}
	m.open++
	m.opened++
	return &memorySnapshot{m: m}, nil
}

func (m *Memory) Sequence() (int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Seq, m.HasSeq
}

// OpenCount returns the number of snapshots not yet closed.
func (m *Memory) OpenCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

// Opened returns how many snapshots were ever opened.
func (m *Memory) Opened() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opened
}

// SetText places s under format f and bumps Seq.
func (m *Memory) SetText(f Format, s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Texts[f] = s
	m.Seq++
}

type memorySnapshot struct {
	m      *Memory
	closed bool
}

func (s *memorySnapshot) Has(f Format) bool {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if f == FormatImage {
		return s.m.Image != nil || s.m.ImageErr != nil
	}
	_, ok := s.m.Texts[f]
	return ok
}

func (s *memorySnapshot) Types() []string {
	var out []string
	for _, f := range AllFormats {
		if s.Has(f) {
			out = append(out, string(f))
		}
	}
	return out
}

func (s *memorySnapshot) ReadText(f Format) (string, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	t, ok := s.m.Texts[f]
	if !ok {
		return "", ErrFormatUnavailable
	}
	return t, nil
}

func (s *memorySnapshot) ImageFormat() string {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.ImageName == "" {
		return "bitmap"
	}
	return s.m.ImageName
}

func (s *memorySnapshot) ReadBitmap() (*Bitmap, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.ImageErr != nil {
		return nil, s.m.ImageErr
	}
	if s.m.Image == nil {
		return nil, ErrFormatUnavailable
	}
	return s.m.Image, nil
}

func (s *memorySnapshot) Close() error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.closed {
		return fmt.Errorf("snapshot already closed")
	}
	s.closed = true
	s.m.open--
	return nil
}

// Fixture is the YAML description of a clipboard, used by the "fixture"
// backend to run every operation without a display server.
type Fixture struct {
	RTF   *string  `yaml:"rtf,omitempty"`
	HTML  *string  `yaml:"html,omitempty"`
	Files []string `yaml:"files,omitempty"`
	// URIList is used verbatim when set; Files are converted otherwise.
	URIList *string `yaml:"uri_list,omitempty"`
	Text    *string `yaml:"text,omitempty"`
	// Image is a path to an encoded image file, relative paths resolved
	// against the working directory.
	Image    string `yaml:"image,omitempty"`
	Sequence *int64 `yaml:"sequence,omitempty"`
}

// LoadFixture reads a fixture file into a Memory source.
func LoadFixture(path string) (*Memory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var fx Fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return fx.Memory()
}

// Memory builds the in-memory clipboard the fixture describes.
func (fx Fixture) Memory() (*Memory, error) {
	m := NewMemory()
	if fx.RTF != nil {
		m.Texts[FormatRTF] = *fx.RTF
	}
	if fx.HTML != nil {
		m.Texts[FormatHTML] = *fx.HTML
	}
	switch {
	case fx.URIList != nil:
		m.Texts[FormatFileList] = *fx.URIList
	case len(fx.Files) > 0:
		m.Texts[FormatFileList] = URIList(fx.Files)
	}
	if fx.Text != nil {
		m.Texts[FormatText] = *fx.Text
	}
	if fx.Image != "" {
		data, err := os.ReadFile(fx.Image)
		if err != nil {
			return nil, fmt.Errorf("read fixture image: %w", err)
		}
		bmp, name, err := DecodeBitmap(data)
		if err != nil {
			return nil, fmt.Errorf("decode fixture image %s: %w", fx.Image, err)
		}
		m.Image = bmp
		m.ImageName = name
	}
	if fx.Sequence != nil {
		m.Seq = *fx.Sequence
		m.HasSeq = true
	}
	return m, nil
}

// FormatNames converts formats to their string names, keeping order.
func FormatNames(fs []Format) []string {
	out := make([]string, 0, len(fs))
	for _, f := range fs {
		out = append(out, string(f))
	}
	return out
}
