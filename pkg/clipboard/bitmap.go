package clipboard

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Bitmap is a decoded clipboard image. Rows are Stride bytes apart, which may
// exceed Width*Channels when the backend pads rows.
type Bitmap struct {
	Width    int
	Height   int
	Channels int
	Stride   int
	Pix      []byte
}

// Validate checks that the buffer is large enough for the declared geometry.
func (b *Bitmap) Validate() error {
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("invalid bitmap size %dx%d", b.Width, b.Height)
	}
	if b.Stride < b.Width*b.Channels {
		return fmt.Errorf("stride %d shorter than row of %d bytes", b.Stride, b.Width*b.Channels)
	}
	need := (b.Height-1)*b.Stride + b.Width*b.Channels
	if len(b.Pix) < need {
		return fmt.Errorf("pixel buffer has %d bytes, need %d", len(b.Pix), need)
	}
	return nil
}

// Image converts a 3 or 4 channel bitmap into an image.NRGBA.
func (b *Bitmap) Image() (image.Image, error) {
	if b.Channels != 3 && b.Channels != 4 {
		return nil, fmt.Errorf("unsupported channel count %d", b.Channels)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	img := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	for y := 0; y < b.Height; y++ {
		src := b.Pix[y*b.Stride:]
		dst := img.Pix[y*img.Stride:]
		for x := 0; x < b.Width; x++ {
			s := src[x*b.Channels:]
			d := dst[x*4:]
			d[0], d[1], d[2] = s[0], s[1], s[2]
			if b.Channels == 4 {
				d[3] = s[3]
			} else {
				d[3] = 0xff
			}
		}
	}
	return img, nil
}

// EncodePNG returns the bitmap as PNG bytes.
func (b *Bitmap) EncodePNG() ([]byte, error) {
	img, err := b.Image()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FromImage returns a 4 channel bitmap of img. An *image.NRGBA is shared
// rather than copied, keeping its stride.
func FromImage(img image.Image) *Bitmap {
	if n, ok := img.(*image.NRGBA); ok {
		r := n.Rect
		return &Bitmap{
			Width:    r.Dx(),
			Height:   r.Dy(),
			Channels: 4,
			Stride:   n.Stride,
			Pix:      n.Pix[n.PixOffset(r.Min.X, r.Min.Y):],
		}
	}
	r := img.Bounds()
	n := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(n, n.Bounds(), img, r.Min, draw.Src)
	return FromImage(n)
}

// DecodeBitmap decodes any registered image encoding (png, jpeg, gif, bmp,
// tiff, webp) and returns the bitmap with the detected format name.
func DecodeBitmap(data []byte) (*Bitmap, string, error) {
	img, name, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", err
	}
	return FromImage(img), name, nil
}
