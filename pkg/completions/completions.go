package completions

import (
	"fmt"
	"strings"
	"sync"

	"clipkind/pkg/clipboard"
	"clipkind/pkg/kind"
	"clipkind/pkg/ocr"

	"github.com/spf13/cobra"
)

type Completer struct {
	// TessdataPrefix overrides the directory searched for OCR languages.
	TessdataPrefix string

	mu        sync.RWMutex
	languages []string
}

func NewCompleter() *Completer {
	return &Completer{}
}

func (c *Completer) CompleteRichTextType(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	types := []string{
		"rtf\tRich Text Format payload",
		"html\tHTML payload",
	}
	return c.filterPrefix(types, toComplete), cobra.ShellCompDirectiveNoFileComp
}

func (c *Completer) CompleteFormat(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	formats := []string{"table", "json", "yaml"}
	results := c.filterPrefix(formats, toComplete)

	for i, format := range results {
		results[i] = fmt.Sprintf("%s\t%s", format, getFormatDescription(format))
	}

	return results, cobra.ShellCompDirectiveNoFileComp
}

func (c *Completer) CompleteBackend(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	results := c.filterPrefix(clipboard.Backends(), toComplete)

	for i, backend := range results {
		results[i] = fmt.Sprintf("%s\t%s", backend, getBackendDescription(backend))
	}

	return results, cobra.ShellCompDirectiveNoFileComp
}

func (c *Completer) CompleteFileKind(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	kinds := []string{
		kind.FileImage.String(),
		kind.FileAudio.String(),
		kind.FileVideo.String(),
		kind.FileDocument.String(),
		kind.FileArchive.String(),
		kind.FileCode.String(),
		kind.FileOther.String(),
	}
	return c.filterPrefix(kinds, toComplete), cobra.ShellCompDirectiveNoFileComp
}

func (c *Completer) CompleteFilterMode(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	modes := []string{
		"contains\tCase-insensitive substring (default)",
		"exact\tCase-insensitive equality",
		"regex\tGo regular expression",
		"fuzzy\tCharacters in order, gaps allowed",
	}
	return c.filterPrefix(modes, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// CompleteLanguage offers the installed tesseract languages. The directory
// scan runs once per completer.
func (c *Completer) CompleteLanguage(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	c.mu.RLock()
	langs := c.languages
	c.mu.RUnlock()

	if langs == nil {
		found, err := ocr.ListLanguages(ocr.ResolveTessdata(c.TessdataPrefix))
		if err != nil {
			return []string{}, cobra.ShellCompDirectiveNoFileComp
		}
		langs = found
		c.mu.Lock()
		c.languages = found
		c.mu.Unlock()
	}

	// "deu+eng" selects several languages; complete the last one.
	prefix := ""
	current := toComplete
	if i := strings.LastIndex(toComplete, "+"); i >= 0 {
		prefix, current = toComplete[:i+1], toComplete[i+1:]
	}

	results := c.filterPrefix(langs, current)
	for i, lang := range results {
		results[i] = prefix + lang
	}
	return results, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}

func (c *Completer) filterPrefix(items []string, prefix string) []string {
	var result []string
	for _, item := range items {
		itemName := strings.Split(item, "\t")[0]
		if strings.HasPrefix(strings.ToLower(itemName), strings.ToLower(prefix)) {
			result = append(result, item)
		}
	}
	return result
}

func getFormatDescription(format string) string {
	switch format {
	case "table":
		return "Human readable output"
	case "json":
		return "Indented JSON"
	case "yaml":
		return "YAML document"
	default:
		return ""
	}
}

func getBackendDescription(backend string) string {
	switch backend {
	case clipboard.BackendAuto:
		return "Best available backend for this session"
	case clipboard.BackendWayland:
		return "Native wlr data-control client"
	case clipboard.BackendWlPaste:
		return "wl-paste from wl-clipboard"
	case clipboard.BackendX11:
		return "xclip on the CLIPBOARD selection"
	case clipboard.BackendWindows:
		return "Win32 clipboard API"
	case clipboard.BackendText:
		return "Plain text only"
	case clipboard.BackendFixture:
		return "YAML fixture file (--fixture)"
	default:
		return ""
	}
}

func RegisterCompletions(rootCmd *cobra.Command) {
	completer := NewCompleter()

	rootCmd.RegisterFlagCompletionFunc("format", completer.CompleteFormat)
	rootCmd.RegisterFlagCompletionFunc("backend", completer.CompleteBackend)

	richTextCmd, _, _ := rootCmd.Find([]string{"richtext"})
	if richTextCmd != nil && richTextCmd != rootCmd {
		richTextCmd.ValidArgsFunction = completer.CompleteRichTextType
	}

	filesCmd, _, _ := rootCmd.Find([]string{"files"})
	if filesCmd != nil && filesCmd != rootCmd {
		filesCmd.RegisterFlagCompletionFunc("kind", completer.CompleteFileKind)
		filesCmd.RegisterFlagCompletionFunc("mode", completer.CompleteFilterMode)
	}

	ocrCmd, _, _ := rootCmd.Find([]string{"ocr"})
	if ocrCmd != nil && ocrCmd != rootCmd {
		ocrCmd.RegisterFlagCompletionFunc("lang", completer.CompleteLanguage)
	}
}
