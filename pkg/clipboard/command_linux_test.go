//go:build linux

package clipboard

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"image"
	"image/png"
	"os/exec"
	"reflect"
	"strings"
	"testing"

	"clipkind/pkg/errors"
)

type fakeTool struct {
	outputs map[string][]byte
	calls   []string
}

func (f *fakeTool) run(_ context.Context, name string, args ...string) ([]byte, error) {
	key := strings.Join(args, " ")
	f.calls = append(f.calls, key)
	out, ok := f.outputs[key]
	if !ok {
		return nil, fmt.Errorf("unexpected call %s %s", name, key)
	}
	return out, nil
}

func newFakeCommandSource(t *testing.T, tool commandTool, outputs map[string][]byte) (*CommandSource, *fakeTool) {
	t.Helper()
	t.Setenv(tool.env, "test")
	fake := &fakeTool{outputs: outputs}
	return &CommandSource{tool: tool, path: "/usr/bin/" + tool.binary, run: fake.run}, fake
}

func TestCommandSourceXclip(t *testing.T) {
	src, fake := newFakeCommandSource(t, xclipTool, map[string][]byte{
		"-selection clipboard -t TARGETS -o":                      []byte("TARGETS\nUTF8_STRING\ntext/html\nx-special/gnome-copied-files\n"),
		"-selection clipboard -t text/html -o":                    []byte("<b>x</b>"),
		"-selection clipboard -t UTF8_STRING -o":                  []byte("hello"),
		"-selection clipboard -t x-special/gnome-copied-files -o": []byte("copy\nfile:///tmp/a.txt"),
	})

	snap, err := src.Open(context.Background())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer snap.Close()

	if got := Present(snap); !reflect.DeepEqual(got, []Format{FormatHTML, FormatFileList, FormatText}) {
		t.Errorf("Present() = %v", got)
	}
	if got := snap.Types(); len(got) != 4 || got[0] != "TARGETS" {
		t.Errorf("Types() = %v", got)
	}

	html, err := snap.ReadText(FormatHTML)
	if err != nil || html != "<b>x</b>" {
		t.Errorf("ReadText(html) = %q, %v", html, err)
	}
	files, err := snap.ReadText(FormatFileList)
	if err != nil || files != "file:///tmp/a.txt" {
		t.Errorf("ReadText(files) = %q, %v", files, err)
	}
	if _, err := snap.ReadText(FormatRTF); err != ErrFormatUnavailable {
		t.Errorf("ReadText(rtf) error = %v, want ErrFormatUnavailable", err)
	}
	if _, err := snap.ReadBitmap(); err != ErrFormatUnavailable {
		t.Errorf("ReadBitmap() error = %v, want ErrFormatUnavailable", err)
	}
	if len(fake.calls) != 3 {
		t.Errorf("tool called %d times, want 3: %v", len(fake.calls), fake.calls)
	}
}

func TestCommandSourceWlPasteImage(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 5, 2))); err != nil {
		t.Fatal(err)
	}
	src, _ := newFakeCommandSource(t, wlPasteTool, map[string][]byte{
		"--list-types":                  []byte("image/png\nimage/bmp\n"),
		"--no-newline --type image/png": buf.Bytes(),
	})

	snap, err := src.Open(context.Background())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer snap.Close()

	if snap.ImageFormat() != "png" {
		t.Errorf("ImageFormat() = %q, want png", snap.ImageFormat())
	}
	b, err := snap.ReadBitmap()
	if err != nil {
		t.Fatalf("ReadBitmap() error = %v", err)
	}
	if b.Width != 5 || b.Height != 2 {
		t.Errorf("geometry = %dx%d, want 5x2", b.Width, b.Height)
	}
}

func exitWith(stderr string) runFunc {
	return func(context.Context, string, ...string) ([]byte, error) {
		return nil, &exec.ExitError{Stderr: []byte(stderr + "\n")}
	}
}

func TestCommandSourceListFailures(t *testing.T) {
	tests := []struct {
		name       string
		tool       commandTool
		stderr     string
		wantEmpty  bool
		wantAbsent bool
	}{
		{name: "wl-paste nothing copied", tool: wlPasteTool, stderr: "Nothing is copied", wantEmpty: true},
		{name: "wl-paste no selection", tool: wlPasteTool, stderr: "No selection", wantEmpty: true},
		{name: "xclip no targets", tool: xclipTool, stderr: "Error: target TARGETS not available", wantEmpty: true},
		{name: "wl-paste no compositor", tool: wlPasteTool, stderr: "Failed to connect to a Wayland server", wantAbsent: true},
		{name: "wl-paste protocol error", tool: wlPasteTool, stderr: "Protocol error"},
		{name: "xclip cannot open display", tool: xclipTool, stderr: "Error: Can't open display: :99"},
		{name: "silent failure", tool: xclipTool, stderr: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.tool.env, "test")
			src := &CommandSource{tool: tt.tool, path: "/usr/bin/" + tt.tool.binary, run: exitWith(tt.stderr)}

			snap, err := src.Open(context.Background())
			if tt.wantEmpty {
				if err != nil {
					t.Fatalf("Open() error = %v, want empty snapshot", err)
				}
				if got := Present(snap); len(got) != 0 {
					t.Errorf("Present() = %v, want empty", got)
				}
				return
			}
			if err == nil {
				t.Fatalf("Open() succeeded, want error for %q", tt.stderr)
			}
			if got := stderrors.Is(err, ErrBackendAbsent); got != tt.wantAbsent {
				t.Errorf("Is(ErrBackendAbsent) = %v, want %v (err %v)", got, tt.wantAbsent, err)
			}
		})
	}
}

func TestAutoChainCommandFailures(t *testing.T) {
	t.Setenv("WAYLAND_DISPLAY", "test")
	t.Setenv("DISPLAY", "test")
	xclip, _ := newFakeCommandSource(t, xclipTool, map[string][]byte{
		"-selection clipboard -t TARGETS -o":     []byte("UTF8_STRING\n"),
		"-selection clipboard -t UTF8_STRING -o": []byte("hello"),
	})

	t.Run("absent wl-paste falls through", func(t *testing.T) {
		wl := &CommandSource{tool: wlPasteTool, path: "/usr/bin/wl-paste", run: exitWith("Failed to connect to a Wayland server")}
		c := &chain{sources: []Source{wl, xclip}}
		text, err := Query(context.Background(), c, func(s Snapshot) (string, error) {
			return s.ReadText(FormatText)
		})
		if err != nil || text != "hello" {
			t.Errorf("Query() = %q, %v; want xclip text", text, err)
		}
	})

	t.Run("broken wl-paste surfaces", func(t *testing.T) {
		wl := &CommandSource{tool: wlPasteTool, path: "/usr/bin/wl-paste", run: exitWith("Protocol error")}
		c := &chain{sources: []Source{wl, xclip}}
		_, err := Query(context.Background(), c, func(s Snapshot) ([]Format, error) {
			return Present(s), nil
		})
		if !errors.IsKind(err, errors.KindSourceUnavailable) {
			t.Errorf("Query() error = %v, want SOURCE_UNAVAILABLE", err)
		}
	})
}

func TestCommandSourceNoDisplay(t *testing.T) {
	t.Setenv("DISPLAY", "")
	src := newCommandSource(xclipTool)
	if _, err := src.Open(context.Background()); !stderrors.Is(err, ErrBackendAbsent) {
		t.Errorf("Open() without DISPLAY error = %v, want ErrBackendAbsent", err)
	}
}
