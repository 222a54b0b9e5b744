package imagepipe

import (
	"bytes"
	"image"
	"image/jpeg"
	"log/slog"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

func decodeDimensions(data []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

// Optimize downscales a raster image to fit within maxWidth x maxHeight,
// preserving aspect ratio, and re-encodes it as JPEG at the given quality
// (0 means the default 0.8). The bound is applied in two passes, width
// first, then height on the intermediate result. SVG files, images already
// within bounds, and anything that fails to decode or re-encode come back
// unchanged.
func (p *Pipeline) Optimize(f File, maxWidth, maxHeight int, quality float64) File {
	if f.contentType() == "image/svg+xml" {
		return f
	}
	if quality <= 0 {
		quality = DefaultQuality
	}

	src, _, err := image.Decode(bytes.NewReader(f.Data))
	if err != nil {
		p.logger.Debug("optimize skipped undecodable image",
			slog.String("name", f.Name),
			slog.String("error", err.Error()),
		)
		return f
	}

	w := src.Bounds().Dx()
	h := src.Bounds().Dy()
	if w <= maxWidth && h <= maxHeight {
		return f
	}

	if w > maxWidth {
		h = h * maxWidth / w
		w = maxWidth
	}
	if h > maxHeight {
		w = w * maxHeight / h
		h = maxHeight
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: int(quality * 100)}); err != nil {
		p.logger.Warn("optimize re-encode failed",
			slog.String("name", f.Name),
			slog.String("error", err.Error()),
		)
		return f
	}

	return File{Name: f.Name, Data: buf.Bytes(), ContentType: "image/jpeg"}
}

// Thumbnail produces a size x size crop-to-cover JPEG thumbnail, or nil when
// the image cannot be decoded.
func (p *Pipeline) Thumbnail(f File, size int) *File {
	src, _, err := image.Decode(bytes.NewReader(f.Data))
	if err != nil {
		return nil
	}

	b := src.Bounds()
	side := b.Dx()
	if b.Dy() < side {
		side = b.Dy()
	}
	x0 := b.Min.X + (b.Dx()-side)/2
	y0 := b.Min.Y + (b.Dy()-side)/2
	crop := image.Rect(x0, y0, x0+side, y0+side)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: int(ThumbnailQuality * 100)}); err != nil {
		return nil
	}

	return &File{Name: f.Name, Data: buf.Bytes(), ContentType: "image/jpeg"}
}
