// Package kind holds the pure classifiers that turn a file path or a piece of
// clipboard text into a coarse kind. Neither classifier inspects file contents
// or validates the text; both look only at lexical shape.
package kind

// FileKind is derived from a path's extension.
type FileKind string

const (
	FileImage    FileKind = "image"
	FileAudio    FileKind = "audio"
	FileVideo    FileKind = "video"
	FileDocument FileKind = "document"
	FileArchive  FileKind = "archive"
	FileCode     FileKind = "code"
	FileOther    FileKind = "file"
)

// TextKind is derived from the shape of trimmed text.
type TextKind string

const (
	TextColor  TextKind = "color"
	TextURL    TextKind = "url"
	TextEmail  TextKind = "email"
	TextPath   TextKind = "path"
	TextJSON   TextKind = "json"
	TextMarkup TextKind = "markup"
	TextPlain  TextKind = "plain"
)

func (k FileKind) String() string { return string(k) }

func (k TextKind) String() string { return string(k) }
