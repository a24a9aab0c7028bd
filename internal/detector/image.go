package detector

import (
	"fmt"
	"image"
	"image/color"
	"os"

	// Image formats the scraper downloads from channels.
	_ "image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
)

// letterboxPad is the fill value for the padded border, matching the gray
// border the model was trained with.
const letterboxPad = 114

// loadImage opens and decodes an image file.
func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}

// transform maps coordinates from the letterboxed model input square back to
// the original image's pixel space.
type transform struct {
	scale float32
	padX  float32
	padY  float32
	srcW  float32
	srcH  float32
}

// toOriginal converts a box from letterbox space to original pixel space,
// clamped to the image bounds.
func (t transform) toOriginal(d Detection) Detection {
	d.X1 = clamp((d.X1-t.padX)/t.scale, 0, t.srcW)
	d.Y1 = clamp((d.Y1-t.padY)/t.scale, 0, t.srcH)
	d.X2 = clamp((d.X2-t.padX)/t.scale, 0, t.srcW)
	d.Y2 = clamp((d.Y2-t.padY)/t.scale, 0, t.srcH)
	return d
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// letterbox scales the image to fit a size x size square preserving aspect
// ratio, centers it and pads the border. It returns the padded image and the
// transform back to the original coordinate space.
func letterbox(src image.Image, size int) (*image.RGBA, transform) {
	bounds := src.Bounds()
	srcW := bounds.Dx()
	srcH := bounds.Dy()

	scale := min(float32(size)/float32(srcW), float32(size)/float32(srcH))
	dstW := int(float32(srcW) * scale)
	dstH := int(float32(srcH) * scale)
	padX := (size - dstW) / 2
	padY := (size - dstH) / 2

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	fill := image.NewUniform(color.RGBA{letterboxPad, letterboxPad, letterboxPad, 255})
	xdraw.Draw(dst, dst.Bounds(), fill, image.Point{}, xdraw.Src)

	target := image.Rect(padX, padY, padX+dstW, padY+dstH)
	xdraw.ApproxBiLinear.Scale(dst, target, src, bounds, xdraw.Src, nil)

	return dst, transform{
		scale: scale,
		padX:  float32(padX),
		padY:  float32(padY),
		srcW:  float32(srcW),
		srcH:  float32(srcH),
	}
}

// fillInputTensor writes the letterboxed image into the model input buffer as
// normalized RGB float32 values in HWC order.
func fillInputTensor(img *image.RGBA, buf []float32, size int) {
	idx := 0
	for y := range size {
		row := img.Pix[y*img.Stride : y*img.Stride+size*4]
		for x := range size {
			buf[idx] = float32(row[x*4]) / 255.0
			buf[idx+1] = float32(row[x*4+1]) / 255.0
			buf[idx+2] = float32(row[x*4+2]) / 255.0
			idx += 3
		}
	}
}
