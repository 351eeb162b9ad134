//go:build !linux && !windows

package clipboard

func platformSource(string) (Source, bool) {
	return nil, false
}

func autoSource() Source {
	return NewTextSource()
}
