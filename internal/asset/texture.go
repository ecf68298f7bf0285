// Package asset loads the card face image and watches it for changes.
package asset

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Result is the outcome of an asynchronous load. Image is never nil: when
// decoding fails or no path was given it is a solid placeholder, Fallback
// is set and Err says what went wrong (nil for an empty path).
type Result struct {
	Image    *image.RGBA
	Path     string
	Format   string
	Fallback bool
	Err      error
}

// Load decodes the image at path (png, jpeg, gif, bmp, webp or tiff) and
// scales it to w x h.
func Load(path string, w, h int) (*image.RGBA, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	src, format, err := image.Decode(f)
	if err != nil {
		return nil, "", fmt.Errorf("decode %s: %w", path, err)
	}
	return Scale(src, w, h), format, nil
}

// Scale resamples src to exactly w x h.
func Scale(src image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if src.Bounds().Dx() == w && src.Bounds().Dy() == h {
		draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
		return dst
	}
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// Placeholder is a solid card face with a darker border.
func Placeholder(w, h int, fill color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: fill}, image.Point{}, draw.Src)

	r, g, b, a := fill.RGBA()
	edge := color.RGBA{R: uint8(r >> 9), G: uint8(g >> 9), B: uint8(b >> 9), A: uint8(a >> 8)}
	border := max(1, min(w, h)/32)
	for _, rect := range []image.Rectangle{
		image.Rect(0, 0, w, border),
		image.Rect(0, h-border, w, h),
		image.Rect(0, 0, border, h),
		image.Rect(w-border, 0, w, h),
	} {
		draw.Draw(img, rect, &image.Uniform{C: edge}, image.Point{}, draw.Src)
	}
	return img
}

// LoadAsync loads path on a new goroutine. The channel yields exactly one
// Result and is then closed. A cancelled ctx yields the placeholder with
// ctx.Err().
func LoadAsync(ctx context.Context, path string, w, h int, fallback color.Color) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		res := Result{Path: path}
		if path != "" {
			res.Image, res.Format, res.Err = Load(path, w, h)
		}
		if err := ctx.Err(); err != nil && res.Err == nil {
			res.Image, res.Err = nil, err
		}
		if res.Image == nil {
			res.Image = Placeholder(w, h, fallback)
			res.Fallback = true
			res.Format = ""
		}
		ch <- res
	}()
	return ch
}
