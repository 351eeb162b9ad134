// Package classifier decides which single content category best represents
// the clipboard. The decision depends only on which formats are present;
// payloads are read afterwards to fill in the descriptor.
package classifier

import (
	"unicode/utf8"

	"clipkind/pkg/clipboard"
	"clipkind/pkg/extract"
	"clipkind/pkg/kind"
	"clipkind/pkg/models"
)

// Classify runs the priority scan over s: rtf, html, file list, image, text.
// The first present format wins; an empty clipboard is unknown.
func Classify(s clipboard.Snapshot) models.ContentDescriptor {
	switch {
	case s.Has(clipboard.FormatRTF):
		return models.ContentDescriptor{
			Category: models.CategoryText,
			SubType:  models.SubTypeRTF,
			Priority: models.PriorityRTF,
			HasData:  true,
		}
	case s.Has(clipboard.FormatHTML):
		return models.ContentDescriptor{
			Category: models.CategoryText,
			SubType:  models.SubTypeHTML,
			Priority: models.PriorityHTML,
			HasData:  true,
		}
	case s.Has(clipboard.FormatFileList):
		return classifyFiles(extract.FilePaths(s))
	case s.Has(clipboard.FormatImage):
		return models.ContentDescriptor{
			Category: models.CategoryImage,
			SubType:  s.ImageFormat(),
			Priority: models.PriorityImage,
			HasData:  true,
		}
	case s.Has(clipboard.FormatText):
		if text, ok := extract.Text(s); ok {
			return ClassifyText(text)
		}
	}
	return models.Unknown()
}

// classifyFiles builds the file descriptor. A file list that yields no local
// paths still wins the scan and is reported as a file with no content.
func classifyFiles(paths []string) models.ContentDescriptor {
	d := models.ContentDescriptor{
		Category: models.CategoryFile,
		Priority: models.PriorityFile,
	}
	if len(paths) == 0 {
		return d
	}
	d.SubType = kind.ClassifyPath(paths[0]).String()
	d.Content = paths
	d.PrimaryPath = paths[0]
	d.HasData = true
	return d
}

// ClassifyText builds the descriptor for plain text. Content is the text as
// read; only the kind is computed on the trimmed form.
func ClassifyText(text string) models.ContentDescriptor {
	return models.ContentDescriptor{
		Category: models.CategoryText,
		SubType:  kind.ClassifyText(text).String(),
		Priority: models.PriorityText,
		HasData:  true,
		Content:  text,
		Length:   models.Ptr(utf8.RuneCountInString(text)),
	}
}
