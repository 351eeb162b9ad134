package kind

import "strings"

type extensionTable struct {
	kind FileKind
	exts map[string]struct{}
}

func newTable(k FileKind, exts ...string) extensionTable {
	t := extensionTable{kind: k, exts: make(map[string]struct{}, len(exts))}
	for _, e := range exts {
		t.exts[e] = struct{}{}
	}
	return t
}

// Order matters: "ts" is both a video container and TypeScript, and video wins.
var extensionTables = []extensionTable{
	newTable(FileImage, "png", "jpg", "jpeg", "gif", "webp", "bmp", "tiff", "tif", "svg", "ico", "heic", "heif"),
	newTable(FileAudio, "mp3", "wav", "aac", "flac", "ogg", "m4a", "wma", "aiff", "au"),
	newTable(FileVideo, "mp4", "avi", "mov", "wmv", "flv", "webm", "mkv", "m4v", "3gp", "ts"),
	newTable(FileDocument, "pdf", "doc", "docx", "xls", "xlsx", "ppt", "pptx", "txt", "rtf"),
	newTable(FileArchive, "zip", "rar", "7z", "tar", "gz", "bz2", "xz"),
	newTable(FileCode, "cpp", "c", "h", "cs", "js", "ts", "py", "java", "go", "rs", "php", "rb", "kt", "dart"),
}

// Extension returns the lowercased substring after the last '.', and false
// when the path has no dot at all.
func Extension(path string) (string, bool) {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return "", false
	}
	return asciiLower(path[i+1:]), true
}

// ClassifyPath maps a path to a FileKind using its extension only.
func ClassifyPath(path string) FileKind {
	ext, ok := Extension(path)
	if !ok {
		return FileOther
	}
	for _, t := range extensionTables {
		if _, hit := t.exts[ext]; hit {
			return t.kind
		}
	}
	return FileOther
}

// Extensions lists the extensions mapped to k, in no particular order.
func Extensions(k FileKind) []string {
	for _, t := range extensionTables {
		if t.kind != k {
			continue
		}
		out := make([]string, 0, len(t.exts))
		for e := range t.exts {
			out = append(out, e)
		}
		return out
	}
	return nil
}

func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
