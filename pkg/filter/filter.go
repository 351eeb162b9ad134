package filter

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"clipkind/pkg/kind"
)

type FilterMode int

const (
	FilterModeNone FilterMode = iota
	FilterModeExact
	FilterModeContains
	FilterModeRegex
	FilterModeFuzzy
)

var modeNames = map[string]FilterMode{
	"":         FilterModeNone,
	"none":     FilterModeNone,
	"exact":    FilterModeExact,
	"contains": FilterModeContains,
	"regex":    FilterModeRegex,
	"fuzzy":    FilterModeFuzzy,
}

// ParseMode maps a --mode flag value to a FilterMode.
func ParseMode(name string) (FilterMode, error) {
	mode, ok := modeNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return FilterModeNone, fmt.Errorf("unknown filter mode '%s' (use exact, contains, regex or fuzzy)", name)
	}
	return mode, nil
}

type StringFilter struct {
	Pattern string
	Mode    FilterMode
	regex   *regexp.Regexp
}

func NewStringFilter(pattern string, mode FilterMode) (*StringFilter, error) {
	f := &StringFilter{
		Pattern: pattern,
		Mode:    mode,
	}

	if mode == FilterModeRegex {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern '%s': %w", pattern, err)
		}
		f.regex = re
	}

	return f, nil
}

func (f *StringFilter) Match(s string) bool {
	if f.Mode == FilterModeNone {
		return true
	}

	switch f.Mode {
	case FilterModeExact:
		return strings.EqualFold(s, f.Pattern)
	case FilterModeContains:
		return strings.Contains(strings.ToLower(s), strings.ToLower(f.Pattern))
	case FilterModeRegex:
		return f.regex != nil && f.regex.MatchString(s)
	case FilterModeFuzzy:
		return FuzzyMatch(f.Pattern, s)
	default:
		return true
	}
}

func FuzzyMatch(pattern, text string) bool {
	if pattern == "" {
		return true
	}
	if text == "" {
		return false
	}

	pattern = strings.ToLower(pattern)
	text = strings.ToLower(text)

	return fuzzyMatchRecursive(pattern, text, 0, 0, 0)
}

func fuzzyMatchRecursive(pattern, text string, pIdx, tIdx, consecutiveMatches int) bool {
	if pIdx >= len(pattern) {
		return true
	}
	if tIdx >= len(text) {
		return false
	}

	pChar := rune(pattern[pIdx])
	tChar := rune(text[tIdx])

	if pChar == tChar {
		remainingChars := len(text) - tIdx - 1
		remainingPattern := len(pattern) - pIdx - 1

		if remainingPattern == 0 {
			return true
		}

		if remainingChars >= remainingPattern {
			return fuzzyMatchRecursive(pattern, text, pIdx+1, tIdx+1, consecutiveMatches+1)
		}
	}

	return fuzzyMatchRecursive(pattern, text, pIdx, tIdx+1, 0)
}

func FuzzyMatchRanked(pattern, text string, threshold float64) bool {
	if pattern == "" {
		return true
	}
	if text == "" {
		return false
	}

	distance := LevenshteinDistance(pattern, text)
	maxLen := max(len(pattern), len(text))

	if maxLen == 0 {
		return true
	}

	similarity := 1.0 - float64(distance)/float64(maxLen)
	return similarity >= threshold
}

func LevenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	previousRow := make([]int, len(s2)+1)
	currentRow := make([]int, len(s2)+1)

	for i := 0; i <= len(s2); i++ {
		previousRow[i] = i
	}

	for i := 0; i < len(s1); i++ {
		currentRow[0] = i + 1

		for j := 0; j < len(s2); j++ {
			cost := 1
			if unicode.ToLower(rune(s1[i])) == unicode.ToLower(rune(s2[j])) {
				cost = 0
			}

			deletion := currentRow[j] + 1
			insertion := previousRow[j+1] + 1
			substitution := previousRow[j] + cost

			currentRow[j+1] = min(min(deletion, insertion), substitution)
		}

		previousRow, currentRow = currentRow, previousRow
	}

	return previousRow[len(s2)]
}

// PathFilter selects clipboard file paths. Name patterns apply to the base
// name; Kind and Extension compare against the extension classifier.
type PathFilter struct {
	Name      *StringFilter
	Kind      kind.FileKind
	Extension string
}

func NewPathFilter(pattern string, mode FilterMode, fileKind string, ext string) (*PathFilter, error) {
	f := &PathFilter{
		Kind:      kind.FileKind(strings.ToLower(fileKind)),
		Extension: strings.TrimPrefix(strings.ToLower(ext), "."),
	}
	if pattern != "" {
		if mode == FilterModeNone {
			mode = FilterModeContains
		}
		name, err := NewStringFilter(pattern, mode)
		if err != nil {
			return nil, err
		}
		f.Name = name
	}
	return f, nil
}

func (f *PathFilter) MatchesPath(path string) bool {
	if f.Name != nil && !f.Name.Match(filepath.Base(path)) {
		return false
	}

	if f.Kind != "" && kind.ClassifyPath(path) != f.Kind {
		return false
	}

	if f.Extension != "" {
		ext, ok := kind.Extension(path)
		if !ok || ext != f.Extension {
			return false
		}
	}

	return true
}

// Apply keeps the paths f matches, preserving order. A nil result means
// nothing matched.
func (f *PathFilter) Apply(paths []string) []string {
	var out []string
	for _, p := range paths {
		if f.MatchesPath(p) {
			out = append(out, p)
		}
	}
	return out
}

// Closest returns the candidate most similar to s and whether it clears
// threshold. It is used to suggest a spelling for unknown names.
func Closest(s string, candidates []string, threshold float64) (string, bool) {
	best, bestDist := "", -1
	for _, c := range candidates {
		d := LevenshteinDistance(s, c)
		if bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}
	if best == "" {
		return "", false
	}
	return best, FuzzyMatchRanked(s, best, threshold)
}
