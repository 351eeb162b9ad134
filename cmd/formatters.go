package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"clipkind/pkg/models"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	// FormatTable is the default human-readable format
	FormatTable OutputFormat = "table"
	// FormatJSON outputs as JSON
	FormatJSON OutputFormat = "json"
	// FormatYAML outputs as YAML
	FormatYAML OutputFormat = "yaml"
)

// OutputWriter handles structured output formatting
type OutputWriter struct {
	format OutputFormat
	writer io.Writer
}

// NewOutputWriter creates a new output writer with the specified format
func NewOutputWriter(format string) *OutputWriter {
	f := OutputFormat(strings.ToLower(format))
	if f != FormatJSON && f != FormatYAML {
		f = FormatTable // default
	}
	return &OutputWriter{
		format: f,
		writer: os.Stdout,
	}
}

// newOutput returns a writer for the command's --format bound to its stdout.
func newOutput(cmd *cobra.Command) *OutputWriter {
	w := NewOutputWriter(outputFormat)
	w.SetWriter(cmd.OutOrStdout())
	return w
}

// SetWriter sets a custom writer (used in tests)
func (w *OutputWriter) SetWriter(writer io.Writer) {
	w.writer = writer
}

// GetFormat returns the current format
func (w *OutputWriter) GetFormat() OutputFormat {
	return w.format
}

// IsStructured returns true if the format is JSON or YAML
func (w *OutputWriter) IsStructured() bool {
	return w.format == FormatJSON || w.format == FormatYAML
}

// Write outputs the data in the configured format
func (w *OutputWriter) Write(data interface{}) error {
	switch w.format {
	case FormatJSON:
		encoder := json.NewEncoder(w.writer)
		encoder.SetIndent("", "  ")
		encoder.SetEscapeHTML(false)
		return encoder.Encode(data)
	case FormatYAML:
		encoder := yaml.NewEncoder(w.writer)
		defer encoder.Close()
		return encoder.Encode(data)
	default:
		// Table format is handled by individual commands
		return nil
	}
}

// WriteEvent outputs one item of a stream: a compact JSON line, or a YAML
// document preceded by a separator.
func (w *OutputWriter) WriteEvent(data interface{}) error {
	switch w.format {
	case FormatJSON:
		encoder := json.NewEncoder(w.writer)
		encoder.SetEscapeHTML(false)
		return encoder.Encode(data)
	case FormatYAML:
		if _, err := io.WriteString(w.writer, "---\n"); err != nil {
			return err
		}
		return w.Write(data)
	default:
		return nil
	}
}

// WriteBytes writes raw bytes to output
func (w *OutputWriter) WriteBytes(data []byte) error {
	_, err := w.writer.Write(data)
	return err
}

// Printf writes table output
func (w *OutputWriter) Printf(format string, args ...interface{}) {
	fmt.Fprintf(w.writer, format, args...)
}

// ValidFormats returns a list of valid output formats
func ValidFormats() []string {
	return []string{"table", "json", "yaml"}
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// spinnerWriter returns stderr when it is a terminal, nil otherwise.
func spinnerWriter(cmd *cobra.Command) io.Writer {
	if w := cmd.ErrOrStderr(); isTerminal(w) {
		return w
	}
	return nil
}

func FormatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Format("15:04:05")
}

// FormatSize renders a byte count for humans.
func FormatSize(n int) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KiB", float64(n)/1024)
	default:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1024*1024))
	}
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

// oneLine makes multi-line content printable on a single table row.
func oneLine(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", `\n`)
}

// DescribeType renders "category/subtype".
func DescribeType(d models.ContentDescriptor) string {
	if d.SubType == "" {
		return string(d.Category)
	}
	return string(d.Category) + "/" + d.SubType
}

func printDescriptor(w *OutputWriter, d models.ContentDescriptor) {
	w.Printf("Type: %s\n", DescribeType(d))
	w.Printf("  Priority: %d\n", d.Priority)
	w.Printf("  Has data: %t\n", d.HasData)
	if d.Length != nil {
		w.Printf("  Length: %d\n", *d.Length)
	}
	if text, ok := d.Text(); ok {
		w.Printf("  Content: %s\n", Truncate(oneLine(text), 120))
	}
	if paths := d.Paths(); len(paths) > 0 {
		w.Printf("  Primary path: %s\n", d.PrimaryPath)
		w.Printf("  Files: %d\n", len(paths))
		for _, p := range paths {
			w.Printf("    - %s\n", p)
		}
	}
}
