package ocr

import (
	"fmt"

	"clipkind/pkg/clipboard"
	"clipkind/pkg/errors"
)

// ToPackedRGB copies a 3 or 4 channel bitmap into tightly packed RGB,
// dropping alpha and row padding.
func ToPackedRGB(b *clipboard.Bitmap) ([]byte, error) {
	if b.Channels != 3 && b.Channels != 4 {
		return nil, errors.UnsupportedPixelFormat(b.Channels)
	}
	if err := b.Validate(); err != nil {
		return nil, errors.ImageFetchError(err)
	}

	out := make([]byte, b.Width*b.Height*3)
	for y := 0; y < b.Height; y++ {
		row := b.Pix[y*b.Stride:]
		dst := out[y*b.Width*3:]
		if b.Channels == 3 {
			copy(dst[:b.Width*3], row)
			continue
		}
		for x := 0; x < b.Width; x++ {
			dst[x*3] = row[x*4]
			dst[x*3+1] = row[x*4+1]
			dst[x*3+2] = row[x*4+2]
		}
	}
	return out, nil
}

// EncodePPM wraps packed RGB as a binary PPM (P6), which leptonica reads
// from memory without a temp file.
func (img Image) EncodePPM() ([]byte, error) {
	if len(img.Pix) != img.Width*img.Height*3 {
		return nil, fmt.Errorf("pixel buffer has %d bytes, want %d", len(img.Pix), img.Width*img.Height*3)
	}
	header := fmt.Sprintf("P6\n%d %d\n255\n", img.Width, img.Height)
	out := make([]byte, 0, len(header)+len(img.Pix))
	out = append(out, header...)
	return append(out, img.Pix...), nil
}
