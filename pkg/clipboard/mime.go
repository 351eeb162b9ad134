package clipboard

import "strings"

// MIME-style target names, as offered on Wayland and X11.
var mimeFormats = map[Format][]string{
	FormatRTF:      {"text/rtf", "application/rtf", "text/richtext"},
	FormatHTML:     {"text/html"},
	FormatFileList: {"text/uri-list", "x-special/gnome-copied-files"},
	FormatText:     {"text/plain;charset=utf-8", "UTF8_STRING", "text/plain", "STRING", "TEXT"},
}

// Preferred order when several encoded images are offered.
var imageMimes = []string{"image/png", "image/bmp", "image/tiff", "image/jpeg", "image/gif", "image/webp"}

// mimeSet indexes offered target names.
type mimeSet map[string]struct{}

func newMimeSet(types []string) mimeSet {
	s := make(mimeSet, len(types))
	for _, t := range types {
		s[strings.TrimSpace(t)] = struct{}{}
	}
	return s
}

func (s mimeSet) has(t string) bool {
	_, ok := s[t]
	return ok
}

// target returns the best offered target for f, or "".
func (s mimeSet) target(f Format) string {
	if f == FormatImage {
		for _, m := range imageMimes {
			if s.has(m) {
				return m
			}
		}
		for t := range s {
			if strings.HasPrefix(t, "image/") {
				return t
			}
		}
		return ""
	}
	for _, m := range mimeFormats[f] {
		if s.has(m) {
			return m
		}
	}
	return ""
}

// imageName turns "image/png" into "png".
func imageName(mime string) string {
	return strings.TrimPrefix(mime, "image/")
}

// gnomeCopiedFiles converts the x-special/gnome-copied-files payload
// ("copy\nfile:///a\nfile:///b") into a plain URI list.
func gnomeCopiedFiles(payload string) string {
	lines := strings.Split(payload, "\n")
	if len(lines) > 0 && (lines[0] == "copy" || lines[0] == "cut") {
		lines = lines[1:]
	}
	return strings.Join(lines, "\n")
}
