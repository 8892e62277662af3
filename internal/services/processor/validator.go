package processor

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp"
)

func (p *ImageProcessor) ValidateImage(data []byte) (*ImageInfo, error) {
	size := int64(len(data))
	if size == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidImage)
	}

	if p.maxFileSize > 0 && size > p.maxFileSize {
		return nil, fmt.Errorf("%w: file size %d exceeds maximum allowed size %d", ErrTooLarge, size, p.maxFileSize)
	}

	mt := mimetype.Detect(data)
	if !p.isAllowed(mt) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mt.String())
	}

	// Decoding the header is enough to reject truncated or mislabelled files.
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	return &ImageInfo{
		ContentType: mt.String(),
		Format:      format,
		Width:       cfg.Width,
		Height:      cfg.Height,
		Size:        size,
	}, nil
}
