// Package tesseract implements ocr.Engine on top of libtesseract through
// github.com/otiai10/gosseract.
package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"clipkind/pkg/errors"
	"clipkind/pkg/logger"
	"clipkind/pkg/ocr"
)

type Engine struct {
	// TessdataPrefix overrides where language data is looked up.
	TessdataPrefix string
}

func New(tessdataPrefix string) *Engine {
	return &Engine{TessdataPrefix: tessdataPrefix}
}

func (e *Engine) Name() string {
	return "tesseract " + gosseract.Version()
}

func (e *Engine) Languages() ([]string, error) {
	return ocr.ListLanguages(ocr.ResolveTessdata(e.TessdataPrefix))
}

func (e *Engine) Recognize(ctx context.Context, img ocr.Image, opts ocr.Options) (ocr.Recognition, error) {
	lang := opts.Language
	if lang == "" {
		lang = ocr.DefaultLanguage
	}
	prefix := ocr.ResolveTessdata(e.TessdataPrefix)
	if prefix != "" {
		if missing := ocr.MissingLanguages(prefix, lang); len(missing) > 0 {
			return ocr.Recognition{}, errors.EngineInitError(fmt.Errorf("no traineddata for %s in %s", strings.Join(missing, ", "), prefix))
		}
	}

	ppm, err := img.EncodePPM()
	if err != nil {
		return ocr.Recognition{}, errors.ImageFetchError(err)
	}

	client := gosseract.NewClient()
	defer client.Close()
	if prefix != "" {
		client.TessdataPrefix = prefix
	}
	if err := client.SetLanguage(strings.Split(lang, "+")...); err != nil {
		return ocr.Recognition{}, errors.EngineInitError(err)
	}
	if err := client.SetImageFromBytes(ppm); err != nil {
		return ocr.Recognition{}, errors.ImageFetchError(err)
	}
	if err := ctx.Err(); err != nil {
		return ocr.Recognition{}, err
	}

	text, err := client.Text()
	if err != nil {
		return ocr.Recognition{}, classify(err)
	}
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		logger.Debug().Err(err).Msg("tesseract returned no line boxes")
		return ocr.Recognition{Text: text}, nil
	}

	rec := ocr.Recognition{Text: text, Segments: make([]ocr.Segment, 0, len(boxes))}
	var total float64
	for _, b := range boxes {
		if strings.TrimSpace(b.Word) == "" {
			continue
		}
		rec.Segments = append(rec.Segments, ocr.Segment{Text: b.Word, Confidence: b.Confidence})
		total += b.Confidence
	}
	if n := len(rec.Segments); n > 0 {
		rec.Confidence = total / float64(n)
	}
	return rec, nil
}

// classify maps a gosseract failure onto the engine or recognition kind.
// gosseract initializes lazily, so init failures surface from Text().
func classify(err error) error {
	if strings.Contains(strings.ToLower(err.Error()), "initialize") {
		return errors.EngineInitError(err)
	}
	return errors.NewWithError(errors.KindRecognition, "Text recognition failed", err)
}
