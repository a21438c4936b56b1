package vision

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	"image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register decoder
)

// MaxImageSide is the longest edge of an image sent to the model.
const MaxImageSide = 1024

// CropBoard guesses the board area of a screenshot: a square three quarters
// of the shorter side, slightly in from the left edge and centred
// vertically, which matches the usual layout of online chess sites.
func CropBoard(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	size := min(w, h) * 3 / 4
	if size == 0 {
		return img
	}

	left := b.Min.X + w*5/100
	top := b.Min.Y + (h-size)/2
	rect := image.Rect(left, top, left+size, top+size).Intersect(b)

	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), img, rect.Min, draw.Src)
	return dst
}

// scaleDown shrinks img so its longest side is at most maxSide.
func scaleDown(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxSide && h <= maxSide {
		return img
	}
	if w >= h {
		h = h * maxSide / w
		w = maxSide
	} else {
		w = w * maxSide / h
		h = maxSide
	}
	dst := image.NewRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// PrepareImage decodes a PNG, JPEG, GIF or WebP screenshot, crops it to the
// likely board area, scales it down and re-encodes it as PNG.
func PrepareImage(data []byte) ([]byte, string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("vision: decoding image: %w", err)
	}
	img = scaleDown(CropBoard(img), MaxImageSide)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, "", fmt.Errorf("vision: encoding image: %w", err)
	}
	return buf.Bytes(), "image/png", nil
}
