package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/strikethrough"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"clipkind/pkg/clipboard"
	"clipkind/pkg/errors"
	"clipkind/pkg/extract"
)

// RichTextTypes are the accepted values for GetRichTextData.
var RichTextTypes = []string{string(clipboard.FormatRTF), string(clipboard.FormatHTML)}

// RichText is the payload returned by GetRichTextData.
type RichText struct {
	Type     string `json:"type" yaml:"type"`
	Data     string `json:"data" yaml:"data"`
	Markdown bool   `json:"markdown,omitempty" yaml:"markdown,omitempty"`
}

// GetRichTextData returns the raw rtf or html payload, or nil when that
// format is absent. With markdown set, html is converted to Markdown.
func (s *Service) GetRichTextData(ctx context.Context, typ string, markdown bool) (*RichText, error) {
	f := clipboard.Format(strings.ToLower(strings.TrimSpace(typ)))
	if f != clipboard.FormatRTF && f != clipboard.FormatHTML {
		return nil, errors.InvalidArgument(fmt.Sprintf("UNSUPPORTED_TYPE: %q is not one of %s", typ, strings.Join(RichTextTypes, ", ")))
	}
	if markdown && f != clipboard.FormatHTML {
		return nil, errors.InvalidArgument("markdown conversion is only available for html")
	}

	return run(ctx, s, "getRichTextData", s.timeout, func(ctx context.Context) (*RichText, error) {
		read, err := clipboard.Query(ctx, s.src, func(snap clipboard.Snapshot) (richRead, error) {
			text, ok, err := extract.RichText(snap, f)
			return richRead{text: text, ok: ok}, err
		})
		if err != nil || !read.ok {
			return nil, err
		}
		if markdown {
			return &RichText{Type: string(f), Data: htmlToMarkdown(read.text), Markdown: true}, nil
		}
		return &RichText{Type: string(f), Data: read.text}, nil
	})
}

type richRead struct {
	text string
	ok   bool
}

func htmlToMarkdown(html string) string {
	if html == "" {
		return ""
	}

	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			strikethrough.NewStrikethroughPlugin(),
			table.NewTablePlugin(),
		),
	)

	markdown, err := conv.ConvertString(html)
	if err != nil {
		return html
	}
	return strings.TrimSpace(markdown)
}
