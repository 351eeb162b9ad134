package clipboard

import (
	"fmt"
	"strings"
)

// Backend names accepted in configuration.
const (
	BackendAuto    = "auto"
	BackendWayland = "wayland"
	BackendWlPaste = "wl-paste"
	BackendX11     = "x11"
	BackendWindows = "windows"
	BackendText    = "text"
	BackendFixture = "fixture"
)

// Backends lists every backend name, whether or not this platform supports it.
func Backends() []string {
	return []string{BackendAuto, BackendWayland, BackendWlPaste, BackendX11, BackendWindows, BackendText, BackendFixture}
}

// Options selects and configures a Source.
type Options struct {
	Backend string
	// Fixture is the YAML file read by the fixture backend.
	Fixture string
}

// New returns the Source named by opts.Backend.
func New(opts Options) (Source, error) {
	backend := strings.ToLower(strings.TrimSpace(opts.Backend))
	switch backend {
	case "", BackendAuto:
		return autoSource(), nil
	case BackendFixture:
		if opts.Fixture == "" {
			return nil, fmt.Errorf("fixture backend needs a fixture file")
		}
		return LoadFixture(opts.Fixture)
	case BackendText:
		return NewTextSource(), nil
	}
	src, ok := platformSource(backend)
	if !ok {
		return nil, fmt.Errorf("clipboard backend %q is not supported on this platform", backend)
	}
	return src, nil
}
