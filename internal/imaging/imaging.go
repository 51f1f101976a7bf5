// Package imaging adapts user-supplied image inputs for inference: decoding,
// validation and resizing to a model's input resolution.
package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"os"
	"strings"
)

// maxPixelDim rejects absurd inputs before they allocate a giant pixel buffer.
const maxPixelDim = 8192

// Decode reads a PNG or JPEG image and validates its dimensions.
// Returns the decoded image and the format name ("png" or "jpeg").
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, "", fmt.Errorf("degenerate image dimensions %dx%d", b.Dx(), b.Dy())
	}
	if b.Dx() > maxPixelDim || b.Dy() > maxPixelDim {
		return nil, "", fmt.Errorf("image too large: %dx%d exceeds %d px limit", b.Dx(), b.Dy(), maxPixelDim)
	}
	return img, format, nil
}

// DecodeFile opens and decodes an image file from disk.
func DecodeFile(path string) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// DecodeBase64 decodes a base64 payload, tolerating an optional data: URL prefix.
func DecodeBase64(s string) (image.Image, string, error) {
	if i := strings.Index(s, ";base64,"); i >= 0 {
		s = s[i+len(";base64,"):]
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, "", fmt.Errorf("decode base64: %w", err)
	}
	return Decode(bytes.NewReader(raw))
}

// Resize scales img to w x h using bilinear interpolation. Classifier inputs
// are small (224px), so quality beats speed here.
func Resize(img image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	b := img.Bounds()
	sw, sh := float64(b.Dx()), float64(b.Dy())
	for y := 0; y < h; y++ {
		sy := (float64(y) + 0.5) * sh / float64(h)
		// Floor, not truncate: near the top/left edge sy-0.5 is negative and
		// truncation would leave a negative fractional weight behind.
		y0 := int(math.Floor(sy - 0.5))
		y1 := y0 + 1
		fy := sy - 0.5 - float64(y0)
		if y0 < 0 {
			y0, fy = 0, 0
		}
		if y1 > b.Dy()-1 {
			y1 = b.Dy() - 1
		}
		for x := 0; x < w; x++ {
			sx := (float64(x) + 0.5) * sw / float64(w)
			x0 := int(math.Floor(sx - 0.5))
			x1 := x0 + 1
			fx := sx - 0.5 - float64(x0)
			if x0 < 0 {
				x0, fx = 0, 0
			}
			if x1 > b.Dx()-1 {
				x1 = b.Dx() - 1
			}
			c00 := rgbaAt(img, b.Min.X+x0, b.Min.Y+y0)
			c10 := rgbaAt(img, b.Min.X+x1, b.Min.Y+y0)
			c01 := rgbaAt(img, b.Min.X+x0, b.Min.Y+y1)
			c11 := rgbaAt(img, b.Min.X+x1, b.Min.Y+y1)
			i := dst.PixOffset(x, y)
			for c := 0; c < 4; c++ {
				top := c00[c]*(1-fx) + c10[c]*fx
				bot := c01[c]*(1-fx) + c11[c]*fx
				v := top*(1-fy) + bot*fy + 0.5
				if v < 0 {
					v = 0
				} else if v > 255 {
					v = 255
				}
				dst.Pix[i+c] = uint8(v)
			}
		}
	}
	return dst
}

func rgbaAt(img image.Image, x, y int) [4]float64 {
	r, g, b, a := img.At(x, y).RGBA()
	return [4]float64{float64(r >> 8), float64(g >> 8), float64(b >> 8), float64(a >> 8)}
}

// EncodePNG serializes img as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeJPEG serializes img as JPEG bytes at the given quality (1-100).
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if quality <= 0 || quality > 100 {
		quality = 90
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
