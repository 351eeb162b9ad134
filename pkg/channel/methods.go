package channel

import (
	"context"
	"encoding/json"

	"clipkind/pkg/ocr"
	"clipkind/pkg/service"
)

func withCallID(ctx context.Context, id string) context.Context {
	return service.WithCallID(ctx, id)
}

type ocrArgs struct {
	Language      string   `json:"language"`
	MinConfidence *float64 `json:"minConfidence"`
}

type richTextArgs struct {
	Type     string `json:"type"`
	Markdown bool   `json:"markdown"`
}

// Register wires every clipboard operation of svc onto s.
func Register(s *Server, svc *service.Service) {
	s.Register("getClipboardType", func(ctx context.Context, _ json.RawMessage) (any, error) {
		return svc.GetClipboardType(ctx)
	})
	s.Register("getClipboardSequence", func(ctx context.Context, _ json.RawMessage) (any, error) {
		return svc.GetClipboardSequence(ctx)
	})
	s.Register("getClipboardFilePaths", func(ctx context.Context, _ json.RawMessage) (any, error) {
		return svc.GetClipboardFilePaths(ctx)
	})
	s.Register("getClipboardImageData", func(ctx context.Context, _ json.RawMessage) (any, error) {
		return svc.GetClipboardImageData(ctx)
	})
	s.Register("performOCR", func(ctx context.Context, args json.RawMessage) (any, error) {
		var a ocrArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		return svc.PerformOCR(ctx, ocr.Options{Language: a.Language, MinConfidence: a.MinConfidence})
	})
	s.Register("getClipboardFormats", func(ctx context.Context, _ json.RawMessage) (any, error) {
		return svc.GetClipboardFormats(ctx)
	})
	s.Register("getRichTextData", func(ctx context.Context, args json.RawMessage) (any, error) {
		var a richTextArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		rt, err := svc.GetRichTextData(ctx, a.Type, a.Markdown)
		if err != nil || rt == nil {
			return nil, err
		}
		return rt, nil
	})
	s.Register("isOCRAvailable", func(context.Context, json.RawMessage) (any, error) {
		return svc.IsOCRAvailable().Available, nil
	})
	s.Register("getSupportedOCRLanguages", func(context.Context, json.RawMessage) (any, error) {
		return svc.GetSupportedOCRLanguages()
	})
}
