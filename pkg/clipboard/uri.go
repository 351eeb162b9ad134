package clipboard

import "strings"

// FileScheme prefixes local file entries in a URI list.
const FileScheme = "file://"

// FileURI renders a local path as a file URI entry. Only '%' is escaped so
// that percent-decoding on the way back out restores the original path.
func FileURI(path string) string {
	return FileScheme + strings.ReplaceAll(path, "%", "%25")
}

// URIList joins paths into a text/uri-list payload.
func URIList(paths []string) string {
	entries := make([]string, len(paths))
	for i, p := range paths {
		entries[i] = FileURI(p)
	}
	return strings.Join(entries, "\r\n")
}
