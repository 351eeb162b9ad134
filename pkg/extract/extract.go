// Package extract pulls normalized payloads out of an open clipboard
// snapshot: local file paths, PNG image bytes, and text.
package extract

import (
	stderrors "errors"
	"net/url"
	"strings"

	"clipkind/pkg/clipboard"
	"clipkind/pkg/errors"
	"clipkind/pkg/logger"
)

// ParseURIList turns a text/uri-list payload into local paths. Only file://
// entries are kept, in order; entries that fail to percent-decode are kept
// raw (minus the scheme). Returns nil when nothing usable remains.
func ParseURIList(payload string) []string {
	var paths []string
	for _, line := range strings.Split(payload, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if !strings.HasPrefix(line, clipboard.FileScheme) {
			continue
		}
		raw := strings.TrimPrefix(line, clipboard.FileScheme)
		path, err := url.PathUnescape(raw)
		if err != nil {
			path = raw
		}
		if path == "" {
			continue
		}
		paths = append(paths, path)
	}
	return paths
}

// FilePaths returns the local paths on the clipboard, or nil when there is no
// file list or it holds no local files.
func FilePaths(s clipboard.Snapshot) []string {
	if !s.Has(clipboard.FormatFileList) {
		return nil
	}
	payload, err := s.ReadText(clipboard.FormatFileList)
	if err != nil {
		if !stderrors.Is(err, clipboard.ErrFormatUnavailable) {
			logger.Warn().Err(err).Msg("failed to read file list")
		}
		return nil
	}
	return ParseURIList(payload)
}

// ImagePNG returns the clipboard image encoded as PNG, or nil when there is
// no image. Encoding failures surface as IMAGE_ENCODE_ERROR.
func ImagePNG(s clipboard.Snapshot) ([]byte, error) {
	if !s.Has(clipboard.FormatImage) {
		return nil, nil
	}
	bmp, err := s.ReadBitmap()
	if err != nil {
		if stderrors.Is(err, clipboard.ErrFormatUnavailable) {
			return nil, nil
		}
		return nil, errors.ImageFetchError(err)
	}
	data, err := bmp.EncodePNG()
	if err != nil {
		return nil, errors.ImageEncodeError(err)
	}
	return data, nil
}

// Text returns the plain text on the clipboard and whether there was any.
func Text(s clipboard.Snapshot) (string, bool) {
	if !s.Has(clipboard.FormatText) {
		return "", false
	}
	text, err := s.ReadText(clipboard.FormatText)
	if err != nil {
		if !stderrors.Is(err, clipboard.ErrFormatUnavailable) {
			logger.Warn().Err(err).Msg("failed to read clipboard text")
		}
		return "", false
	}
	return text, true
}

// RichText returns the raw RTF or HTML payload.
func RichText(s clipboard.Snapshot, f clipboard.Format) (string, bool, error) {
	if f != clipboard.FormatRTF && f != clipboard.FormatHTML {
		return "", false, errors.InvalidArgument("UNSUPPORTED_TYPE: rich text type must be rtf or html")
	}
	if !s.Has(f) {
		return "", false, nil
	}
	text, err := s.ReadText(f)
	if err != nil {
		if stderrors.Is(err, clipboard.ErrFormatUnavailable) {
			return "", false, nil
		}
		return "", false, errors.NewWithError(errors.KindSourceUnavailable, "Failed to read "+string(f)+" from clipboard", err)
	}
	return text, true, nil
}
