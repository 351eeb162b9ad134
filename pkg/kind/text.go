package kind

import "strings"

type textPredicate struct {
	kind  TextKind
	match func(string) bool
}

// Predicates overlap (a URL contains '/'), so evaluation order is the
// disambiguation and must not change.
var textPredicates = []textPredicate{
	{TextColor, isColor},
	{TextURL, isURL},
	{TextEmail, isEmail},
	{TextPath, isPath},
	{TextJSON, isJSON},
	{TextMarkup, isMarkup},
}

// ClassifyText trims leading and trailing ASCII spaces and returns the first
// matching kind, or TextPlain.
func ClassifyText(text string) TextKind {
	trimmed := TrimSpaces(text)
	for _, p := range textPredicates {
		if p.match(trimmed) {
			return p.kind
		}
	}
	return TextPlain
}

// TrimSpaces removes leading and trailing ' ' bytes only. Tabs and newlines
// are kept.
func TrimSpaces(s string) string {
	return strings.Trim(s, " ")
}

func isColor(s string) bool {
	if len(s) == 7 && s[0] == '#' {
		for i := 1; i < len(s); i++ {
			if !isHexDigit(s[i]) {
				return false
			}
		}
		return true
	}
	return strings.HasPrefix(s, "rgb(") || strings.HasPrefix(s, "rgba(")
}

func isHexDigit(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") ||
		strings.HasPrefix(s, "https://") ||
		strings.HasPrefix(s, "ftp://")
}

func isEmail(s string) bool {
	return strings.Contains(s, "@") && strings.Contains(s, ".")
}

func isPath(s string) bool {
	return strings.HasPrefix(s, "file://") || strings.ContainsAny(s, `/\`)
}

func isJSON(s string) bool {
	return enclosed(s, '{', '}') || enclosed(s, '[', ']')
}

func isMarkup(s string) bool {
	return enclosed(s, '<', '>')
}

func enclosed(s string, open, close byte) bool {
	if len(s) == 0 {
		return false
	}
	return s[0] == open && s[len(s)-1] == close
}
