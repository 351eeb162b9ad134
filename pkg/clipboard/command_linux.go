//go:build linux

package clipboard

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"clipkind/pkg/logger"
)

// commandTool describes how a clipboard utility lists and fetches targets.
type commandTool struct {
	name      string
	binary    string
	env       string
	listArgs  []string
	fetchArgs func(target string) []string
	// emptyMessages are stderr fragments the tool prints, with a non-zero
	// exit, when the selection is empty. absentMessages mean the tool found
	// no server to talk to. Any other failure is an error.
	emptyMessages  []string
	absentMessages []string
}

func matchesAny(stderr string, fragments []string) bool {
	stderr = strings.ToLower(stderr)
	for _, f := range fragments {
		if strings.Contains(stderr, f) {
			return true
		}
	}
	return false
}

var (
	wlPasteTool = commandTool{
		name:     BackendWlPaste,
		binary:   "wl-paste",
		env:      "WAYLAND_DISPLAY",
		listArgs: []string{"--list-types"},
		fetchArgs: func(target string) []string {
			return []string{"--no-newline", "--type", target}
		},
		emptyMessages:  []string{"nothing is copied", "no selection"},
		absentMessages: []string{"failed to connect to a wayland server"},
	}
	xclipTool = commandTool{
		name:     BackendX11,
		binary:   "xclip",
		env:      "DISPLAY",
		listArgs: []string{"-selection", "clipboard", "-t", "TARGETS", "-o"},
		fetchArgs: func(target string) []string {
			return []string{"-selection", "clipboard", "-t", target, "-o"}
		},
		emptyMessages: []string{"target targets not available"},
	}
)

type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRun(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// CommandSource reads the clipboard by shelling out to wl-paste or xclip.
type CommandSource struct {
	tool commandTool
	path string
	run  runFunc
}

func newCommandSource(tool commandTool) *CommandSource {
	return &CommandSource{tool: tool, run: execRun}
}

func (s *CommandSource) Name() string { return s.tool.name }

func (s *CommandSource) Sequence() (int64, bool) { return 0, false }

func (s *CommandSource) Open(ctx context.Context) (Snapshot, error) {
	if s.tool.env != "" && os.Getenv(s.tool.env) == "" {
		return nil, fmt.Errorf("%s not set: %w", s.tool.env, ErrBackendAbsent)
	}
	if s.path == "" {
		path, err := exec.LookPath(s.tool.binary)
		if err != nil {
			return nil, fmt.Errorf("%s not installed (%v): %w", s.tool.binary, err, ErrBackendAbsent)
		}
		s.path = path
	}

	out, err := s.run(ctx, s.path, s.tool.listArgs...)
	if err != nil {
		var exitErr *exec.ExitError
		if !stderrors.As(err, &exitErr) {
			return nil, fmt.Errorf("%s: list targets: %w", s.tool.binary, err)
		}
		stderr := strings.TrimSpace(string(exitErr.Stderr))
		switch {
		case matchesAny(stderr, s.tool.absentMessages):
			return nil, fmt.Errorf("%s: %s: %w", s.tool.binary, stderr, ErrBackendAbsent)
		case !matchesAny(stderr, s.tool.emptyMessages):
			return nil, fmt.Errorf("%s: list targets: exit %d: %s", s.tool.binary, exitErr.ExitCode(), stderr)
		}
		logger.Debug().Str("tool", s.tool.binary).Str("stderr", stderr).Msg("clipboard empty")
		return &commandSnapshot{src: s, ctx: ctx, types: newMimeSet(nil)}, nil
	}

	raw := strings.Split(strings.TrimSpace(string(out)), "\n")
	var types []string
	for _, t := range raw {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, t)
		}
	}
	return &commandSnapshot{src: s, ctx: ctx, raw: types, types: newMimeSet(types)}, nil
}

type commandSnapshot struct {
	src   *CommandSource
	ctx   context.Context
	raw   []string
	types mimeSet
}

func (s *commandSnapshot) Has(f Format) bool {
	return s.types.target(f) != ""
}

func (s *commandSnapshot) Types() []string {
	return append([]string(nil), s.raw...)
}

func (s *commandSnapshot) fetch(target string) ([]byte, error) {
	out, err := s.src.run(s.ctx, s.src.path, s.src.tool.fetchArgs(target)...)
	if err != nil {
		return nil, fmt.Errorf("%s: read %s: %w", s.src.tool.binary, target, err)
	}
	logger.Debug().Str("tool", s.src.tool.binary).Str("target", target).Int("len", len(out)).Msg("clipboard read success")
	return out, nil
}

func (s *commandSnapshot) ReadText(f Format) (string, error) {
	target := s.types.target(f)
	if target == "" {
		return "", ErrFormatUnavailable
	}
	out, err := s.fetch(target)
	if err != nil {
		return "", err
	}
	if target == "x-special/gnome-copied-files" {
		return gnomeCopiedFiles(string(out)), nil
	}
	return string(out), nil
}

func (s *commandSnapshot) ImageFormat() string {
	return imageName(s.types.target(FormatImage))
}

func (s *commandSnapshot) ReadBitmap() (*Bitmap, error) {
	target := s.types.target(FormatImage)
	if target == "" {
		return nil, ErrFormatUnavailable
	}
	out, err := s.fetch(target)
	if err != nil {
		return nil, err
	}
	bmp, _, err := DecodeBitmap(out)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", target, err)
	}
	return bmp, nil
}

func (s *commandSnapshot) Close() error { return nil }
