// Package service exposes the clipboard operations callers use. Every call
// opens the source, reads what it needs, and releases it before returning.
package service

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"

	"clipkind/pkg/classifier"
	"clipkind/pkg/clipboard"
	"clipkind/pkg/errors"
	"clipkind/pkg/extract"
	"clipkind/pkg/logger"
	"clipkind/pkg/models"
	"clipkind/pkg/ocr"
)

const DefaultTimeout = 2 * time.Second

type Options struct {
	// Timeout bounds each operation that touches the clipboard.
	Timeout time.Duration
	OCR     ocr.Options
	// Counter backs the sequence when the source has no native counter.
	// Shared across Service values in one process; nil allocates one.
	Counter *clipboard.Counter
}

type Service struct {
	src     clipboard.Source
	seq     *clipboard.Sequencer
	engine  ocr.Engine
	bridge  *ocr.Bridge
	timeout time.Duration
	now     func() time.Time
}

// New builds a Service. engine may be nil when OCR is not installed; OCR
// operations then fail with ENGINE_INIT_ERROR.
func New(src clipboard.Source, engine ocr.Engine, opts Options) *Service {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	s := &Service{
		src:     src,
		seq:     clipboard.NewSequencer(src, opts.Counter),
		engine:  engine,
		timeout: opts.Timeout,
		now:     time.Now,
	}
	if engine != nil {
		s.bridge = ocr.NewBridge(src, engine, opts.OCR)
	}
	return s
}

// Source returns the clipboard source the service reads.
func (s *Service) Source() clipboard.Source { return s.src }

type callIDKey struct{}

// WithCallID tags ctx so that log lines of one call can be correlated.
func WithCallID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, callIDKey{}, id)
}

func callID(ctx context.Context) string {
	if id, ok := ctx.Value(callIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.New().String()
}

// run applies the per-operation timeout and logging around fn.
func run[T any](ctx context.Context, s *Service, op string, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	log := logger.With(op).With().Str("call_id", callID(ctx)).Str("source", s.src.Name()).Logger()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := s.now()
	log.Debug().Msg("operation started")
	out, err := fn(ctx)
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) && !errors.IsKind(err, errors.KindSourceUnavailable) {
			err = errors.TimeoutError(op)
		}
		log.Debug().Err(err).Str("kind", string(errors.KindOf(err))).Dur("elapsed", s.now().Sub(start)).Msg("operation failed")
		return out, err
	}
	log.Debug().Dur("elapsed", s.now().Sub(start)).Msg("operation complete")
	return out, nil
}

// GetClipboardType classifies the clipboard. An empty clipboard is not an
// error; it yields the unknown descriptor.
func (s *Service) GetClipboardType(ctx context.Context) (models.ContentDescriptor, error) {
	return run(ctx, s, "getClipboardType", s.timeout, func(ctx context.Context) (models.ContentDescriptor, error) {
		return clipboard.Query(ctx, s.src, func(snap clipboard.Snapshot) (models.ContentDescriptor, error) {
			return classifier.Classify(snap), nil
		})
	})
}

// GetClipboardSequence returns the change token. It never decreases within a
// process.
func (s *Service) GetClipboardSequence(ctx context.Context) (int64, error) {
	return run(ctx, s, "getClipboardSequence", s.timeout, func(context.Context) (int64, error) {
		n, native := s.seq.Next()
		logger.Debug().Int64("sequence", n).Bool("native", native).Msg("sequence resolved")
		return n, nil
	})
}

// GetClipboardFilePaths returns local file paths, or nil when there are none.
func (s *Service) GetClipboardFilePaths(ctx context.Context) ([]string, error) {
	return run(ctx, s, "getClipboardFilePaths", s.timeout, func(ctx context.Context) ([]string, error) {
		return clipboard.Query(ctx, s.src, func(snap clipboard.Snapshot) ([]string, error) {
			return extract.FilePaths(snap), nil
		})
	})
}

// GetClipboardImageData returns the clipboard image as PNG, or nil when
// there is no image.
func (s *Service) GetClipboardImageData(ctx context.Context) ([]byte, error) {
	return run(ctx, s, "getClipboardImageData", s.timeout, func(ctx context.Context) ([]byte, error) {
		return clipboard.Query(ctx, s.src, extract.ImagePNG)
	})
}

// PerformOCR recognizes text in the clipboard image. Zero option fields use
// the configured defaults. Recognition is not bound by the clipboard timeout.
func (s *Service) PerformOCR(ctx context.Context, opts ocr.Options) (models.OcrResult, error) {
	if s.bridge == nil {
		return models.OcrResult{}, errors.EngineInitError(stderrors.New("no OCR engine configured"))
	}
	return run(ctx, s, "performOCR", 10*s.timeout+time.Minute, func(ctx context.Context) (models.OcrResult, error) {
		return s.bridge.RecognizeWith(ctx, opts)
	})
}

// GetClipboardFormats reports every normalized format present along with
// the raw backend type names.
func (s *Service) GetClipboardFormats(ctx context.Context) (models.FormatsReport, error) {
	return run(ctx, s, "getClipboardFormats", s.timeout, func(ctx context.Context) (models.FormatsReport, error) {
		report, err := clipboard.Query(ctx, s.src, func(snap clipboard.Snapshot) (models.FormatsReport, error) {
			r := models.FormatsReport{
				Formats:        clipboard.FormatNames(clipboard.Present(snap)),
				AvailableTypes: snap.Types(),
				Backend:        s.src.Name(),
			}
			if snap.Has(clipboard.FormatImage) {
				r.ImageFormat = snap.ImageFormat()
			}
			return r, nil
		})
		if err != nil {
			return report, err
		}
		report.Sequence, _ = s.seq.Next()
		report.Timestamp = s.now().UnixMilli()
		if report.AvailableTypes == nil {
			report.AvailableTypes = []string{}
		}
		return report, nil
	})
}

// IsOCRAvailable reports whether an engine is installed with at least one
// language.
func (s *Service) IsOCRAvailable() models.OCRAvailability {
	if s.engine == nil {
		return models.OCRAvailability{}
	}
	langs, err := s.engine.Languages()
	if err != nil {
		logger.Debug().Err(err).Msg("ocr languages unavailable")
		return models.OCRAvailability{Engine: s.engine.Name()}
	}
	return models.OCRAvailability{Available: len(langs) > 0, Engine: s.engine.Name(), Languages: langs}
}

// GetSupportedOCRLanguages lists the installed recognition languages.
func (s *Service) GetSupportedOCRLanguages() ([]string, error) {
	if s.engine == nil {
		return []string{}, nil
	}
	langs, err := s.engine.Languages()
	if err != nil {
		return nil, errors.EngineInitError(err)
	}
	if langs == nil {
		langs = []string{}
	}
	return langs, nil
}
