package processor

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Normalize transcodes WebP to PNG and shrinks images whose longest side is
// above the configured maximum. Anything else is returned untouched.
func (p *ImageProcessor) Normalize(data []byte, info *ImageInfo) (*NormalizedImage, error) {
	needsTranscode := info.Format == FormatWebP
	needsResize := p.maxDimension > 0 && (info.Width > p.maxDimension || info.Height > p.maxDimension)

	if !needsTranscode && !needsResize {
		return &NormalizedImage{
			Data:   data,
			Format: info.Format,
			Width:  info.Width,
			Height: info.Height,
		}, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	if needsResize {
		img = p.resizeImage(img)
	}

	outputFormat := info.Format
	if needsTranscode {
		outputFormat = FormatPNG
	}

	buffer := &bytes.Buffer{}
	if err := encodeImage(buffer, img, outputFormat); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	bounds := img.Bounds()
	return &NormalizedImage{
		Data:        buffer.Bytes(),
		Format:      outputFormat,
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		Transformed: true,
	}, nil
}

func (p *ImageProcessor) resizeImage(img image.Image) image.Image {
	return imaging.Fit(img, p.maxDimension, p.maxDimension, imaging.Lanczos)
}
