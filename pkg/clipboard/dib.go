package clipboard

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

const (
	bmpFileHeaderSize = 14
	biBitfields       = 3
)

// dibToBMP prefixes a packed DIB (BITMAPINFOHEADER or later, palette, pixels)
// with the BITMAPFILEHEADER a .bmp decoder expects.
func dibToBMP(dib []byte) ([]byte, error) {
	if len(dib) < 40 {
		return nil, fmt.Errorf("dib too short: %d bytes", len(dib))
	}
	headerSize := binary.LittleEndian.Uint32(dib[0:4])
	if headerSize < 40 || int(headerSize) > len(dib) {
		return nil, fmt.Errorf("invalid dib header size %d", headerSize)
	}
	bitCount := binary.LittleEndian.Uint16(dib[14:16])
	compression := binary.LittleEndian.Uint32(dib[16:20])
	clrUsed := binary.LittleEndian.Uint32(dib[32:36])

	offset := bmpFileHeaderSize + headerSize
	if compression == biBitfields && headerSize == 40 {
		offset += 12
	}
	switch {
	case clrUsed > 0:
		offset += clrUsed * 4
	case bitCount <= 8:
		offset += (1 << bitCount) * 4
	}

	out := make([]byte, bmpFileHeaderSize+len(dib))
	out[0], out[1] = 'B', 'M'
	binary.LittleEndian.PutUint32(out[2:6], uint32(len(out)))
	binary.LittleEndian.PutUint32(out[10:14], offset)
	copy(out[bmpFileHeaderSize:], dib)
	return out, nil
}

// cfHTMLFragment extracts the HTML document from a Windows "HTML Format"
// payload, whose header carries byte offsets such as "StartHTML:00000097".
// Payloads without a usable header are returned unchanged.
func cfHTMLFragment(payload string) string {
	payload = strings.TrimRight(payload, "\x00")
	start := cfHTMLOffset(payload, "StartHTML:")
	end := cfHTMLOffset(payload, "EndHTML:")
	if start < 0 || start > len(payload) {
		return payload
	}
	if end < start || end > len(payload) {
		end = len(payload)
	}
	return payload[start:end]
}

func cfHTMLOffset(payload, key string) int {
	i := strings.Index(payload, key)
	if i < 0 {
		return -1
	}
	rest := payload[i+len(key):]
	if j := strings.IndexAny(rest, "\r\n"); j >= 0 {
		rest = rest[:j]
	}
	n, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil {
		return -1
	}
	return n
}
