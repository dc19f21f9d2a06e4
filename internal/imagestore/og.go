package imagestore

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"

	"github.com/nfnt/resize"
)

// Open Graph image size.
const (
	OGWidth  = 1200
	OGHeight = 630
)

// RenderOG decodes src, scales it to OGWidth keeping the aspect ratio, crops
// the top-left OGWidth x OGHeight region and writes it to w as PNG. Images
// shorter than OGHeight after scaling are padded with transparency.
func RenderOG(w io.Writer, src io.Reader) error {
	img, _, err := image.Decode(src)
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}

	scaled := resize.Resize(OGWidth, 0, img, resize.Lanczos3)

	dst := image.NewRGBA(image.Rect(0, 0, OGWidth, OGHeight))
	draw.Draw(dst, dst.Bounds(), scaled, scaled.Bounds().Min, draw.Src)

	if err := png.Encode(w, dst); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}
