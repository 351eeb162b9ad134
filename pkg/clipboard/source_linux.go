//go:build linux

package clipboard

func platformSource(backend string) (Source, bool) {
	switch backend {
	case BackendWayland:
		return WaylandSource{}, true
	case BackendWlPaste:
		return newCommandSource(wlPasteTool), true
	case BackendX11:
		return newCommandSource(xclipTool), true
	}
	return nil, false
}

// autoSource prefers the native Wayland client, then wl-paste for compositors
// without data-control, then xclip, then plain text.
func autoSource() Source {
	return &chain{sources: []Source{
		WaylandSource{},
		newCommandSource(wlPasteTool),
		newCommandSource(xclipTool),
		NewTextSource(),
	}}
}
