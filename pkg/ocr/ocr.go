// Package ocr reads the clipboard image and hands it to a text recognition
// engine. The clipboard is released before recognition starts.
package ocr

import (
	"context"
	stderrors "errors"
	"fmt"
	"math"
	"strings"

	"clipkind/pkg/clipboard"
	"clipkind/pkg/errors"
	"clipkind/pkg/logger"
	"clipkind/pkg/models"
)

// Image is tightly packed 8-bit RGB, row-major, Width*3 bytes per row.
type Image struct {
	Pix    []byte
	Width  int
	Height int
}

// Segment is one recognized line with the engine's confidence (0-100).
type Segment struct {
	Text       string
	Confidence float64
}

// Recognition is the raw engine output. Confidence is on the engine's 0-100
// scale; Segments may be empty when the engine cannot break results down.
type Recognition struct {
	Text       string
	Confidence float64
	Segments   []Segment
}

// Options tune a recognition call.
type Options struct {
	// Language is a tesseract language code such as "eng" or "eng+deu".
	Language string
	// MinConfidence drops segments below this confidence (0-1). Nil means
	// the default; an explicit 0 keeps every segment.
	MinConfidence *float64
}

func (o Options) minConfidence() float64 {
	if o.MinConfidence == nil {
		return 0
	}
	return *o.MinConfidence
}

type Recognizer interface {
	Recognize(ctx context.Context, img Image, opts Options) (Recognition, error)
}

// Engine is a Recognizer that can describe its installation.
type Engine interface {
	Recognizer
	Name() string
	Languages() ([]string, error)
}

// Bridge ties a clipboard source to a recognizer.
type Bridge struct {
	src  clipboard.Source
	rec  Recognizer
	opts Options
}

func NewBridge(src clipboard.Source, rec Recognizer, opts Options) *Bridge {
	return &Bridge{src: src, rec: rec, opts: opts}
}

// RecognizeText extracts text from the clipboard image.
func (b *Bridge) RecognizeText(ctx context.Context) (models.OcrResult, error) {
	return b.RecognizeWith(ctx, b.opts)
}

// RecognizeWith is RecognizeText with per-call options; an empty Language
// or nil MinConfidence falls back to the bridge defaults.
func (b *Bridge) RecognizeWith(ctx context.Context, opts Options) (models.OcrResult, error) {
	if opts.Language == "" {
		opts.Language = b.opts.Language
	}
	if opts.MinConfidence == nil {
		opts.MinConfidence = b.opts.MinConfidence
	}
	if c := opts.minConfidence(); c < 0 || c > 1 {
		return models.OcrResult{}, errors.InvalidArgument(fmt.Sprintf("minConfidence must be between 0 and 1, got %g", c))
	}

	bmp, err := clipboard.Query(ctx, b.src, fetchBitmap)
	if err != nil {
		return models.OcrResult{}, err
	}

	pix, err := ToPackedRGB(bmp)
	if err != nil {
		return models.OcrResult{}, err
	}

	log := logger.With("performOCR")
	log.Debug().Int("width", bmp.Width).Int("height", bmp.Height).Int("channels", bmp.Channels).Str("lang", opts.Language).Msg("starting recognition")

	rec, err := b.rec.Recognize(ctx, Image{Pix: pix, Width: bmp.Width, Height: bmp.Height}, opts)
	if err != nil {
		var e *errors.Error
		if stderrors.As(err, &e) {
			return models.OcrResult{}, e
		}
		return models.OcrResult{}, errors.NewWithError(errors.KindRecognition, "Text recognition failed", err)
	}

	result := summarize(rec, opts.minConfidence())
	if strings.TrimSpace(result.Text) == "" {
		return models.OcrResult{}, errors.RecognitionError("No text recognized in image")
	}
	log.Debug().Int("chars", len(result.Text)).Float64("confidence", result.Confidence).Msg("recognition complete")
	return result, nil
}

func fetchBitmap(s clipboard.Snapshot) (*clipboard.Bitmap, error) {
	if !s.Has(clipboard.FormatImage) {
		return nil, errors.NoImage()
	}
	bmp, err := s.ReadBitmap()
	if stderrors.Is(err, clipboard.ErrFormatUnavailable) {
		return nil, errors.NoImage()
	}
	if err != nil {
		return nil, errors.ImageFetchError(err)
	}
	if bmp == nil {
		return nil, errors.ImageFetchError(stderrors.New("backend returned no bitmap"))
	}
	return bmp, nil
}

// summarize applies the confidence filter and converts to the 0-1 scale.
func summarize(rec Recognition, minConfidence float64) models.OcrResult {
	if len(rec.Segments) == 0 {
		return models.OcrResult{Text: strings.TrimSpace(rec.Text), Confidence: NormalizeConfidence(rec.Confidence)}
	}

	var lines []string
	var total float64
	for _, seg := range rec.Segments {
		if NormalizeConfidence(seg.Confidence) < minConfidence {
			logger.Debug().Float64("confidence", seg.Confidence).Msg("skipped low-confidence segment")
			continue
		}
		lines = append(lines, strings.TrimSpace(seg.Text))
		total += seg.Confidence
	}
	if len(lines) == 0 {
		return models.OcrResult{}
	}

	text := strings.TrimSpace(rec.Text)
	if minConfidence > 0 || text == "" {
		text = strings.Join(lines, "\n")
	}
	return models.OcrResult{Text: text, Confidence: NormalizeConfidence(total / float64(len(lines)))}
}

// NormalizeConfidence maps an engine score in 0-100 onto [0,1].
func NormalizeConfidence(c float64) float64 {
	if math.IsNaN(c) {
		return 0
	}
	return math.Max(0, math.Min(1, c/100))
}
