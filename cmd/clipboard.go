package cmd

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"clipkind/pkg/errors"
	"clipkind/pkg/filter"
	"clipkind/pkg/kind"
	"clipkind/pkg/logger"

	"github.com/spf13/cobra"
)

var (
	filesMatch string
	filesMode  string
	filesKind  string
	filesExt   string

	imageOut   string
	imageForce bool

	richTextMarkdown bool
)

// FileOutput represents a clipboard file for structured output
type FileOutput struct {
	Path      string `json:"path" yaml:"path"`
	Kind      string `json:"kind" yaml:"kind"`
	Extension string `json:"extension,omitempty" yaml:"extension,omitempty"`
}

// ImageOutput represents the clipboard image for structured output
type ImageOutput struct {
	Format string `json:"format" yaml:"format"`
	Size   int    `json:"size" yaml:"size"`
	Path   string `json:"path,omitempty" yaml:"path,omitempty"`
	Data   string `json:"data,omitempty" yaml:"data,omitempty"`
}

var typeCmd = &cobra.Command{
	Use:   "type",
	Short: "Classify the clipboard content",
	Long: `Report the single content category that best represents the clipboard.
Formats are checked in priority order: rtf, html, files, image, text.`,
	Example: `  # Classify the clipboard
  clipkind type

  # Classify a fixture as JSON
  clipkind type --fixture clip.yaml --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		ctx, cancel := GetContext()
		defer cancel()

		d, err := svc.GetClipboardType(ctx)
		if err != nil {
			return err
		}

		output := newOutput(cmd)
		if output.IsStructured() {
			return output.Write(d)
		}
		printDescriptor(output, d)
		return nil
	},
}

var sequenceCmd = &cobra.Command{
	Use:   "sequence",
	Short: "Print the clipboard change token",
	Long: `Print a number that changes whenever the clipboard changes. Backends
without a native counter return a process-local counter that increases on
every call.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		ctx, cancel := GetContext()
		defer cancel()

		seq, err := svc.GetClipboardSequence(ctx)
		if err != nil {
			return err
		}

		output := newOutput(cmd)
		if output.IsStructured() {
			return output.Write(map[string]int64{"sequence": seq})
		}
		output.Printf("%d\n", seq)
		return nil
	},
}

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List file paths on the clipboard",
	Long:  `List the local file paths copied to the clipboard, optionally filtered.`,
	Example: `  # List copied files
  clipkind files

  # Only images
  clipkind files --kind image

  # Regex on the file name
  clipkind files --match '^IMG_\d+' --mode regex`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := filter.ParseMode(filesMode)
		if err != nil {
			return errors.InvalidArgument(err.Error())
		}
		pathFilter, err := filter.NewPathFilter(filesMatch, mode, filesKind, filesExt)
		if err != nil {
			return errors.InvalidArgument(err.Error())
		}

		svc, err := newService()
		if err != nil {
			return err
		}
		ctx, cancel := GetContext()
		defer cancel()

		paths, err := svc.GetClipboardFilePaths(ctx)
		if err != nil {
			return err
		}
		matched := pathFilter.Apply(paths)
		logger.Debug().Int("total", len(paths)).Int("matched", len(matched)).Msg("clipboard files filtered")

		output := newOutput(cmd)
		if output.IsStructured() {
			files := make([]FileOutput, 0, len(matched))
			for _, p := range matched {
				files = append(files, mapToFileOutput(p))
			}
			return output.Write(files)
		}

		if len(matched) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "No files on the clipboard.")
			return nil
		}
		for _, p := range matched {
			output.Printf("%-8s %s\n", kind.ClassifyPath(p), p)
		}
		return nil
	},
}

func mapToFileOutput(path string) FileOutput {
	ext, _ := kind.Extension(path)
	return FileOutput{
		Path:      path,
		Kind:      kind.ClassifyPath(path).String(),
		Extension: ext,
	}
}

var imageCmd = &cobra.Command{
	Use:   "image",
	Short: "Export the clipboard image as PNG",
	Long: `Export the clipboard image as PNG. Without --out the PNG bytes are
written to stdout, or base64 encoded with --format json/yaml.`,
	Example: `  # Save the clipboard image
  clipkind image --out shot.png

  # Pipe it into another tool
  clipkind image | pngcrush - out.png`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		ctx, cancel := GetContext()
		defer cancel()

		data, err := svc.GetClipboardImageData(ctx)
		if err != nil {
			return err
		}
		if data == nil {
			return errors.NoImage()
		}

		output := newOutput(cmd)
		if imageOut != "" {
			if err := writeImageFile(cmd, imageOut, data); err != nil {
				return err
			}
			if output.IsStructured() {
				return output.Write(ImageOutput{Format: "png", Size: len(data), Path: imageOut})
			}
			output.Printf("Saved %s PNG to %s\n", FormatSize(len(data)), imageOut)
			return nil
		}

		if output.IsStructured() {
			return output.Write(ImageOutput{Format: "png", Size: len(data), Data: base64.StdEncoding.EncodeToString(data)})
		}
		if isTerminal(cmd.OutOrStdout()) {
			return errors.NewWithSuggestion(errors.KindInvalidArgument,
				"Refusing to write binary PNG data to a terminal",
				"Use --out <file>, redirect stdout, or pass --format json.")
		}
		return output.WriteBytes(data)
	},
}

func writeImageFile(cmd *cobra.Command, path string, data []byte) error {
	if _, err := os.Stat(path); err == nil && !imageForce {
		ok, err := ConfirmPrompt(cmd.InOrStdin(), cmd.ErrOrStderr(), fmt.Sprintf("%s exists. Overwrite", path))
		if err != nil {
			return err
		}
		if !ok {
			return errors.New(errors.KindFileOperation, "not overwriting "+path)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.NewWithError(errors.KindFileOperation, "failed to write image", err)
	}
	return nil
}

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List every format present on the clipboard",
	Long: `List the normalized formats present on the clipboard together with the
raw type names the backend reported.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		ctx, cancel := GetContext()
		defer cancel()

		report, err := svc.GetClipboardFormats(ctx)
		if err != nil {
			return err
		}

		output := newOutput(cmd)
		if output.IsStructured() {
			return output.Write(report)
		}

		formats := strings.Join(report.Formats, ", ")
		if formats == "" {
			formats = "(empty)"
		}
		output.Printf("Backend: %s\n", report.Backend)
		output.Printf("  Sequence: %d\n", report.Sequence)
		output.Printf("  Formats: %s\n", formats)
		if report.ImageFormat != "" {
			output.Printf("  Image format: %s\n", report.ImageFormat)
		}
		if len(report.AvailableTypes) > 0 {
			output.Printf("  Raw types:\n")
			for _, t := range report.AvailableTypes {
				output.Printf("    - %s\n", t)
			}
		}
		return nil
	},
}

var richTextCmd = &cobra.Command{
	Use:   "richtext <rtf|html>",
	Short: "Print the clipboard's rich text payload",
	Long:  `Print the raw RTF or HTML payload. With --markdown, HTML is converted to Markdown.`,
	Args:  cobra.ExactArgs(1),
	Example: `  # Raw HTML
  clipkind richtext html

  # HTML as Markdown
  clipkind richtext html --markdown`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		ctx, cancel := GetContext()
		defer cancel()

		rt, err := svc.GetRichTextData(ctx, args[0], richTextMarkdown)
		if err != nil {
			return err
		}

		output := newOutput(cmd)
		if output.IsStructured() {
			return output.Write(rt)
		}
		if rt == nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "No %s data on the clipboard.\n", strings.ToLower(args[0]))
			return nil
		}
		output.Printf("%s\n", strings.TrimRight(rt.Data, "\n"))
		return nil
	},
}

func init() {
	filesCmd.Flags().StringVar(&filesMatch, "match", "", "Filter file names by pattern")
	filesCmd.Flags().StringVar(&filesMode, "mode", "contains", "Pattern mode (exact, contains, regex, fuzzy)")
	filesCmd.Flags().StringVar(&filesKind, "kind", "", "Only files of this kind (image, audio, video, document, archive, code, file)")
	filesCmd.Flags().StringVar(&filesExt, "ext", "", "Only files with this extension")

	imageCmd.Flags().StringVarP(&imageOut, "out", "o", "", "Write the PNG to this file")
	imageCmd.Flags().BoolVarP(&imageForce, "force", "f", false, "Overwrite --out without asking")

	richTextCmd.Flags().BoolVar(&richTextMarkdown, "markdown", false, "Convert HTML to Markdown")
}
