package errors

import (
	"fmt"
	"io"
	"os"
	"strings"

	"clipkind/pkg/logger"

	"github.com/fatih/color"
)

type ExitCode int

const (
	ExitCodeSuccess        ExitCode = 0
	ExitCodeGeneral        ExitCode = 1
	ExitCodeConfig         ExitCode = 2
	ExitCodeUnavailable    ExitCode = 3
	ExitCodeNoContent      ExitCode = 4
	ExitCodeImage          ExitCode = 5
	ExitCodeValidation     ExitCode = 6
	ExitCodeFileOperation  ExitCode = 7
	ExitCodeOCR            ExitCode = 8
	ExitCodeTimeout        ExitCode = 9
	ExitCodeNotImplemented ExitCode = 10
)

// Kind classifies a failure independently of how it is surfaced. The string
// value is the wire code used by the method channel.
type Kind string

const (
	KindGeneral                Kind = "ERROR"
	KindSourceUnavailable      Kind = "SOURCE_UNAVAILABLE"
	KindNoImage                Kind = "NO_IMAGE"
	KindImageFetch             Kind = "IMAGE_FETCH_ERROR"
	KindImageEncode            Kind = "IMAGE_ENCODE_ERROR"
	KindUnsupportedPixelFormat Kind = "UNSUPPORTED_PIXEL_FORMAT"
	KindEngineInit             Kind = "ENGINE_INIT_ERROR"
	KindRecognition            Kind = "RECOGNITION_ERROR"
	KindInvalidArgument        Kind = "INVALID_ARGUMENT"
	KindNotImplemented         Kind = "NOT_IMPLEMENTED"
	KindConfig                 Kind = "CONFIG_ERROR"
	KindFileOperation          Kind = "FILE_ERROR"
)

var kindExitCodes = map[Kind]ExitCode{
	KindGeneral:                ExitCodeGeneral,
	KindSourceUnavailable:      ExitCodeUnavailable,
	KindNoImage:                ExitCodeNoContent,
	KindImageFetch:             ExitCodeImage,
	KindImageEncode:            ExitCodeImage,
	KindUnsupportedPixelFormat: ExitCodeImage,
	KindEngineInit:             ExitCodeOCR,
	KindRecognition:            ExitCodeOCR,
	KindInvalidArgument:        ExitCodeValidation,
	KindNotImplemented:         ExitCodeNotImplemented,
	KindConfig:                 ExitCodeConfig,
	KindFileOperation:          ExitCodeFileOperation,
}

// ExitCodeFor returns the process exit code used for a failure kind.
func ExitCodeFor(kind Kind) ExitCode {
	if code, ok := kindExitCodes[kind]; ok {
		return code
	}
	return ExitCodeGeneral
}

type Error struct {
	Code       ExitCode
	Kind       Kind
	Message    string
	Underlying error
	Suggestion string
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Underlying)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

// Is reports whether target is an *Error of the same Kind, so callers can
// write errors.Is(err, errors.New(errors.KindNoImage, "")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func New(kind Kind, message string) *Error {
	return &Error{
		Code:    ExitCodeFor(kind),
		Kind:    kind,
		Message: message,
	}
}

func NewWithError(kind Kind, message string, err error) *Error {
	return &Error{
		Code:       ExitCodeFor(kind),
		Kind:       kind,
		Message:    message,
		Underlying: err,
	}
}

func NewWithSuggestion(kind Kind, message string, suggestion string) *Error {
	return &Error{
		Code:       ExitCodeFor(kind),
		Kind:       kind,
		Message:    message,
		Suggestion: suggestion,
	}
}

func Wrap(err error, message string) *Error {
	if err == nil {
		return nil
	}

	if wrapped, ok := err.(*Error); ok {
		return &Error{
			Code:       wrapped.Code,
			Kind:       wrapped.Kind,
			Message:    message + ": " + wrapped.Message,
			Underlying: wrapped.Underlying,
			Suggestion: wrapped.Suggestion,
		}
	}

	return &Error{
		Code:       ExitCodeGeneral,
		Kind:       KindGeneral,
		Message:    message,
		Underlying: err,
	}
}

// KindOf returns the Kind of err, or KindGeneral for foreign errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return KindGeneral
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func IsExitCode(err error, code ExitCode) bool {
	if err == nil {
		return false
	}

	if e, ok := err.(*Error); ok {
		return e.Code == code
	}

	return false
}

// HandleReturn logs and renders an error on stderr and returns the exit code.
// The caller is responsible for exiting.
func HandleReturn(err error) ExitCode {
	return handleTo(os.Stderr, err)
}

func handleTo(w io.Writer, err error) ExitCode {
	if err == nil {
		return ExitCodeSuccess
	}

	var exitCode ExitCode = ExitCodeGeneral
	var message string
	var suggestion string

	if e, ok := err.(*Error); ok {
		exitCode = e.Code
		message = e.Message
		suggestion = e.Suggestion

		if e.Underlying != nil {
			logger.Error().Err(e.Underlying).Str("kind", string(e.Kind)).Msg(e.Message)
			message = e.Error()
		} else {
			logger.Error().Str("kind", string(e.Kind)).Msg(e.Message)
		}
	} else {
		message = err.Error()
		logger.Error().Msg(message)
	}

	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	fmt.Fprintln(w)
	red.Fprint(w, "Error: ")
	fmt.Fprintln(w, message)

	if suggestion != "" {
		yellow.Fprint(w, "Suggestion: ")
		lines := strings.Split(suggestion, "\n")
		for i, line := range lines {
			if i == 0 {
				fmt.Fprintln(w, line)
			} else {
				if strings.HasPrefix(line, "  -") {
					cyan.Fprintln(w, line)
				} else {
					fmt.Fprintln(w, "           "+line)
				}
			}
		}
	}

	fmt.Fprintln(w)

	return exitCode
}

func SourceUnavailable(backend string, err error) *Error {
	return &Error{
		Code:       ExitCodeUnavailable,
		Kind:       KindSourceUnavailable,
		Message:    fmt.Sprintf("Failed to open clipboard (%s)", backend),
		Underlying: err,
		Suggestion: "Another application may hold the clipboard, or no display session is reachable. Retry, or pick a backend with --backend.",
	}
}

func NoImage() *Error {
	return &Error{
		Code:    ExitCodeNoContent,
		Kind:    KindNoImage,
		Message: "No image data in clipboard",
	}
}

func ImageFetchError(err error) *Error {
	return NewWithError(KindImageFetch, "Failed to get image from clipboard", err)
}

func ImageEncodeError(err error) *Error {
	return NewWithError(KindImageEncode, "Failed to encode clipboard image", err)
}

func UnsupportedPixelFormat(channels int) *Error {
	return New(KindUnsupportedPixelFormat, fmt.Sprintf("Unsupported image format: %d channels", channels))
}

func EngineInitError(err error) *Error {
	return &Error{
		Code:       ExitCodeOCR,
		Kind:       KindEngineInit,
		Message:    "Failed to initialize OCR engine",
		Underlying: err,
		Suggestion: "Install the tesseract language data and set TESSDATA_PREFIX or ocr.tessdata_prefix.",
	}
}

func RecognitionError(message string) *Error {
	return New(KindRecognition, message)
}

func InvalidArgument(message string) *Error {
	return New(KindInvalidArgument, message)
}

func NotImplemented(method string) *Error {
	return New(KindNotImplemented, fmt.Sprintf("Method not implemented: %s", method))
}

func ConfigError(message string) *Error {
	return &Error{
		Code:       ExitCodeConfig,
		Kind:       KindConfig,
		Message:    message,
		Suggestion: "Check your configuration file or set the required environment variables.",
	}
}

func TimeoutError(operation string) *Error {
	return &Error{
		Code:       ExitCodeTimeout,
		Kind:       KindGeneral,
		Message:    fmt.Sprintf("Operation timed out: %s", operation),
		Suggestion: "Try again with a longer timeout using --timeout flag.",
	}
}
