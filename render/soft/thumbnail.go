package soft

import (
	"bytes"
	"image"

	"github.com/HugoSmits86/nativewebp"
	"github.com/pkg/errors"
	"golang.org/x/image/draw"
)

type ThumbnailOptions struct {
	Size        int
	Supersample int
}

func (o ThumbnailOptions) normalized() ThumbnailOptions {
	if o.Size <= 0 {
		o.Size = 256
	}
	if o.Supersample <= 0 {
		o.Supersample = 1
	}
	return o
}

// Downsample scales premultiplied image, so transparent edges keep no dark halo
func Downsample(img *image.NRGBA, size int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() <= size && b.Dy() <= size {
		return img
	}

	premul := image.NewRGBA(b)
	draw.Draw(premul, b, img, b.Min, draw.Src)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), premul, b, draw.Src, nil)

	out := image.NewNRGBA(dst.Bounds())
	draw.Draw(out, out.Rect, dst, image.Point{}, draw.Src)
	return out
}

// RenderThumbnail renders square image with fn on fresh soft device and encodes it as webp
func RenderThumbnail(opts ThumbnailOptions, fn func(dev *Device, width, height int) error) ([]byte, error) {
	opts = opts.normalized()
	side := opts.Size * opts.Supersample

	dev := NewDevice()
	if err := fn(dev, side, side); err != nil {
		return nil, err
	}
	img := dev.Snapshot()
	if img == nil {
		return nil, errors.Errorf("Nothing was presented")
	}
	img = Downsample(img, opts.Size)

	var buf bytes.Buffer
	if err := nativewebp.Encode(&buf, img, nil); err != nil {
		return nil, errors.Wrapf(err, "Encoding webp")
	}
	return buf.Bytes(), nil
}
