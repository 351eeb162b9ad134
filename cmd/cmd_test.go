package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clipkind/pkg/config"
	"clipkind/pkg/errors"
	"clipkind/pkg/ocr"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type fakeEngine struct {
	rec   ocr.Recognition
	langs []string
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Languages() ([]string, error) { return f.langs, nil }

func (f *fakeEngine) Recognize(context.Context, ocr.Image, ocr.Options) (ocr.Recognition, error) {
	return f.rec, nil
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// executeCommand runs the root command with an isolated config directory.
func executeCommand(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	for _, key := range []string{"CLIPKIND_BACKEND", "CLIPKIND_FIXTURE", "CLIPKIND_TIMEOUT", "CLIPKIND_OCR_LANG", "CLIPKIND_OCR_MIN_CONFIDENCE", "CLIPKIND_LOG_LEVEL", "TESSDATA_PREFIX"} {
		t.Setenv(key, "")
	}

	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func writePNG(t *testing.T) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(1, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	path := filepath.Join(t.TempDir(), "shot.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create png: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return path
}

func TestTypeCommand(t *testing.T) {
	fixture := writeFixture(t, "text: \"  https://go.dev  \"\n")

	out, _, err := executeCommand(t, "", "type", "--fixture", fixture, "--format", "json")
	if err != nil {
		t.Fatalf("type failed: %v", err)
	}

	var d struct {
		Type     string `json:"type"`
		SubType  string `json:"subType"`
		Priority int    `json:"priority"`
		Content  string `json:"content"`
		Length   int    `json:"length"`
	}
	if err := json.Unmarshal([]byte(out), &d); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if d.Type != "text" || d.SubType != "url" || d.Priority != 5 {
		t.Errorf("descriptor = %+v", d)
	}
	if d.Content != "  https://go.dev  " || d.Length != 18 {
		t.Errorf("content = %q (%d), want raw text", d.Content, d.Length)
	}
}

func TestTypeCommand_Table(t *testing.T) {
	fixture := writeFixture(t, "html: \"<b>x</b>\"\ntext: x\n")

	out, _, err := executeCommand(t, "", "type", "--fixture", fixture)
	if err != nil {
		t.Fatalf("type failed: %v", err)
	}
	if !strings.Contains(out, "Type: text/html") || !strings.Contains(out, "Priority: 2") {
		t.Errorf("unexpected table output:\n%s", out)
	}
}

func TestFilesCommand(t *testing.T) {
	fixture := writeFixture(t, "files:\n  - /tmp/shot.png\n  - /tmp/notes.txt\n  - /tmp/IMG_0001.jpg\n")

	out, _, err := executeCommand(t, "", "files", "--fixture", fixture, "--kind", "image", "--format", "json")
	if err != nil {
		t.Fatalf("files failed: %v", err)
	}
	var files []FileOutput
	if err := json.Unmarshal([]byte(out), &files); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(files) != 2 || files[0].Path != "/tmp/shot.png" || files[1].Extension != "jpg" {
		t.Errorf("files = %+v", files)
	}

	out, _, err = executeCommand(t, "", "files", "--fixture", fixture, "--match", `^IMG_\d+`, "--mode", "regex")
	if err != nil {
		t.Fatalf("files failed: %v", err)
	}
	if strings.TrimSpace(out) != "image    /tmp/IMG_0001.jpg" {
		t.Errorf("table output = %q", out)
	}
}

func TestFilesCommand_BadMode(t *testing.T) {
	fixture := writeFixture(t, "files: [/tmp/a]\n")
	_, _, err := executeCommand(t, "", "files", "--fixture", fixture, "--mode", "glob")
	if !errors.IsKind(err, errors.KindInvalidArgument) {
		t.Errorf("error = %v, want INVALID_ARGUMENT", err)
	}
}

func TestImageCommand(t *testing.T) {
	fixture := writeFixture(t, "image: "+writePNG(t)+"\n")

	t.Run("to file", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "out.png")
		out, _, err := executeCommand(t, "", "image", "--fixture", fixture, "--out", dest)
		if err != nil {
			t.Fatalf("image failed: %v", err)
		}
		data, err := os.ReadFile(dest)
		if err != nil {
			t.Fatalf("read output: %v", err)
		}
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("output is not PNG: %v", err)
		}
		if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 2 {
			t.Errorf("size = %v", img.Bounds())
		}
		if !strings.Contains(out, "Saved") {
			t.Errorf("output = %q", out)
		}
	})

	t.Run("existing file declined", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "out.png")
		if err := os.WriteFile(dest, []byte("keep"), 0644); err != nil {
			t.Fatal(err)
		}
		_, _, err := executeCommand(t, "n\n", "image", "--fixture", fixture, "--out", dest)
		if !errors.IsKind(err, errors.KindFileOperation) {
			t.Errorf("error = %v, want FILE_ERROR", err)
		}
		if data, _ := os.ReadFile(dest); string(data) != "keep" {
			t.Error("existing file was overwritten")
		}
	})

	t.Run("piped stdout", func(t *testing.T) {
		out, _, err := executeCommand(t, "", "image", "--fixture", fixture)
		if err != nil {
			t.Fatalf("image failed: %v", err)
		}
		if !strings.HasPrefix(out, "\x89PNG") {
			t.Errorf("stdout is not PNG data")
		}
	})

	t.Run("no image", func(t *testing.T) {
		textOnly := writeFixture(t, "text: hello\n")
		_, _, err := executeCommand(t, "", "image", "--fixture", textOnly)
		if !errors.IsKind(err, errors.KindNoImage) {
			t.Errorf("error = %v, want NO_IMAGE", err)
		}
	})
}

func TestRichTextCommand(t *testing.T) {
	fixture := writeFixture(t, "html: \"<h1>Title</h1><p>Some <em>text</em></p>\"\n")

	out, _, err := executeCommand(t, "", "richtext", "html", "--markdown", "--fixture", fixture)
	if err != nil {
		t.Fatalf("richtext failed: %v", err)
	}
	if !strings.Contains(out, "# Title") || !strings.Contains(out, "*text*") {
		t.Errorf("markdown output = %q", out)
	}

	out, stderr, err := executeCommand(t, "", "richtext", "rtf", "--fixture", fixture)
	if err != nil {
		t.Fatalf("richtext rtf failed: %v", err)
	}
	if out != "" || !strings.Contains(stderr, "No rtf data") {
		t.Errorf("absent rtf: stdout %q, stderr %q", out, stderr)
	}

	_, _, err = executeCommand(t, "", "richtext", "pdf", "--fixture", fixture)
	if !errors.IsKind(err, errors.KindInvalidArgument) {
		t.Errorf("error = %v, want INVALID_ARGUMENT", err)
	}
}

func TestFormatsCommand(t *testing.T) {
	fixture := writeFixture(t, "rtf: \"{\\\\rtf1 x}\"\ntext: x\nsequence: 77\n")

	out, _, err := executeCommand(t, "", "formats", "--fixture", fixture, "--format", "json")
	if err != nil {
		t.Fatalf("formats failed: %v", err)
	}
	var report struct {
		Sequence int64    `json:"sequence"`
		Formats  []string `json:"formats"`
		Backend  string   `json:"backend"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if report.Sequence != 77 || strings.Join(report.Formats, ",") != "rtf,text" || report.Backend != "memory" {
		t.Errorf("report = %+v", report)
	}
}

func TestSequenceCommand(t *testing.T) {
	fixture := writeFixture(t, "text: x\nsequence: 5\n")
	out, _, err := executeCommand(t, "", "sequence", "--fixture", fixture)
	if err != nil {
		t.Fatalf("sequence failed: %v", err)
	}
	if strings.TrimSpace(out) != "5" {
		t.Errorf("sequence = %q, want 5", out)
	}
}

func TestOCRCommand(t *testing.T) {
	fixture := writeFixture(t, "image: "+writePNG(t)+"\n")

	t.Run("no engine", func(t *testing.T) {
		NewEngine = nil
		_, _, err := executeCommand(t, "", "ocr", "--fixture", fixture)
		if !errors.IsKind(err, errors.KindEngineInit) {
			t.Errorf("error = %v, want ENGINE_INIT_ERROR", err)
		}
	})

	t.Run("recognized", func(t *testing.T) {
		NewEngine = func(string) ocr.Engine {
			return &fakeEngine{
				langs: []string{"eng"},
				rec: ocr.Recognition{
					Text:       "total 42\nsmudge",
					Confidence: 70,
					Segments: []ocr.Segment{
						{Text: "total 42", Confidence: 90},
						{Text: "smudge", Confidence: 20},
					},
				},
			}
		}
		t.Cleanup(func() { NewEngine = nil })

		out, _, err := executeCommand(t, "", "ocr", "--fixture", fixture, "--min-confidence", "0.5", "--format", "json")
		if err != nil {
			t.Fatalf("ocr failed: %v", err)
		}
		var result struct {
			Text       string  `json:"text"`
			Confidence float64 `json:"confidence"`
		}
		if err := json.Unmarshal([]byte(out), &result); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, out)
		}
		if result.Text != "total 42" || result.Confidence != 0.9 {
			t.Errorf("result = %+v", result)
		}
	})

	t.Run("bad min confidence", func(t *testing.T) {
		_, _, err := executeCommand(t, "", "ocr", "--fixture", fixture, "--min-confidence", "3")
		if !errors.IsKind(err, errors.KindInvalidArgument) {
			t.Errorf("error = %v, want INVALID_ARGUMENT", err)
		}
	})
}

func TestOCRLanguagesCommand(t *testing.T) {
	NewEngine = func(string) ocr.Engine { return &fakeEngine{langs: []string{"deu", "eng"}} }
	t.Cleanup(func() { NewEngine = nil })

	out, _, err := executeCommand(t, "", "ocr", "languages", "--backend", "text", "--format", "yaml")
	if err != nil {
		t.Fatalf("ocr languages failed: %v", err)
	}
	if !strings.Contains(out, "available: true") || !strings.Contains(out, "- deu") {
		t.Errorf("yaml output:\n%s", out)
	}
}

func TestSuggestLanguage(t *testing.T) {
	NewEngine = func(string) ocr.Engine { return &fakeEngine{langs: []string{"deu", "eng"}} }
	t.Cleanup(func() { NewEngine = nil })
	settings = config.Default()
	settings.Source.Backend = "text"

	svc, err := newService()
	if err != nil {
		t.Fatalf("newService() error = %v", err)
	}
	ocrLanguage = "enh"
	t.Cleanup(func() { ocrLanguage = "" })

	err = suggestLanguage(svc, errors.EngineInitError(os.ErrNotExist))
	var e *errors.Error
	if !stderrors.As(err, &e) || !strings.Contains(e.Suggestion, `"eng"`) {
		t.Errorf("suggestion = %v", err)
	}

	other := errors.NoImage()
	if got := suggestLanguage(svc, other); got != error(other) {
		t.Errorf("non-engine errors must pass through, got %v", got)
	}
}

func TestServeCommand(t *testing.T) {
	fixture := writeFixture(t, "files: [/srv/a.mp3]\n")
	input := `{"id":"1","method":"getClipboardType"}
{"id":"2","method":"getClipboardFilePaths"}
{"id":"3","method":"clearClipboard"}
`
	out, _, err := executeCommand(t, input, "serve", "--fixture", fixture)
	if err != nil {
		t.Fatalf("serve failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d response lines:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], `"subType":"audio"`) {
		t.Errorf("line 1 = %s", lines[0])
	}
	if !strings.Contains(lines[1], `"result":["/srv/a.mp3"]`) {
		t.Errorf("line 2 = %s", lines[1])
	}
	if !strings.Contains(lines[2], `"code":"NOT_IMPLEMENTED"`) {
		t.Errorf("line 3 = %s", lines[2])
	}
}

func TestWatchCommand(t *testing.T) {
	fixture := writeFixture(t, "text: \"#ff0000\"\n")
	out, _, err := executeCommand(t, "", "watch", "--fixture", fixture, "--count", "1", "--interval", "1ms", "--format", "json")
	if err != nil {
		t.Fatalf("watch failed: %v", err)
	}
	var ev struct {
		Descriptor struct {
			SubType string `json:"subType"`
		} `json:"descriptor"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &ev); err != nil {
		t.Fatalf("event is not a JSON line: %v\n%s", err, out)
	}
	if ev.Descriptor.SubType != "color" {
		t.Errorf("event = %s", out)
	}
}

func TestConfigCommands(t *testing.T) {
	out, _, err := executeCommand(t, "", "config", "init")
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(out, filepath.Join("clipkind", "config.yaml")) {
		t.Errorf("config init output = %q", out)
	}

	out, _, err = executeCommand(t, "", "config", "show", "--backend", "x11", "--format", "json")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	if !strings.Contains(out, `"backend": "x11"`) {
		t.Errorf("config show = %s", out)
	}
}

func TestInvalidBackendInConfigFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	t.Setenv("CLIPKIND_BACKEND", "")
	cfgDir := filepath.Join(home, "clipkind")
	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, "config.yaml"), []byte("source:\n  backend: pasteboard\n"), 0644); err != nil {
		t.Fatal(err)
	}

	resetFlags(rootCmd)
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"type"})
	err := rootCmd.Execute()
	if !errors.IsKind(err, errors.KindConfig) {
		t.Errorf("error = %v, want CONFIG_ERROR", err)
	}
}

func TestVersionCommand(t *testing.T) {
	Version = "1.2.3"
	t.Cleanup(func() { Version = "" })

	out, _, err := executeCommand(t, "", "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out, "clipkind version 1.2.3") || !strings.Contains(out, "Git commit: unknown") {
		t.Errorf("version output = %q", out)
	}
}
