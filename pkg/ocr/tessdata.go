package ocr

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultLanguage is used when no language is configured.
const DefaultLanguage = "eng"

// Common install locations for tesseract language data.
var tessdataDirs = []string{
	"/usr/share/tesseract-ocr/5/tessdata",
	"/usr/share/tesseract-ocr/4.00/tessdata",
	"/usr/share/tessdata",
	"/usr/local/share/tessdata",
	"/opt/homebrew/share/tessdata",
	`C:\Program Files\Tesseract-OCR\tessdata`,
}

// ResolveTessdata returns prefix if set, then $TESSDATA_PREFIX, then the
// first well-known directory that exists. It returns "" when none is found.
func ResolveTessdata(prefix string) string {
	if prefix != "" {
		return prefix
	}
	if env := os.Getenv("TESSDATA_PREFIX"); env != "" {
		return env
	}
	for _, dir := range tessdataDirs {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	return ""
}

// ListLanguages returns the language codes with a .traineddata file in dir,
// sorted. "osd" (orientation detection) is not a language and is skipped.
func ListLanguages(dir string) ([]string, error) {
	if dir == "" {
		return nil, nil
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*.traineddata"))
	if err != nil {
		return nil, err
	}
	langs := make([]string, 0, len(matches))
	for _, m := range matches {
		lang := strings.TrimSuffix(filepath.Base(m), ".traineddata")
		if lang == "osd" {
			continue
		}
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs, nil
}

// MissingLanguages reports which parts of a "+"-joined language list have no
// traineddata file in dir.
func MissingLanguages(dir, langs string) []string {
	var missing []string
	for _, lang := range strings.Split(langs, "+") {
		if lang == "" {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, lang+".traineddata")); err != nil {
			missing = append(missing, lang)
		}
	}
	return missing
}
