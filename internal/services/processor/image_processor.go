package processor

import (
	"errors"

	"github.com/gabriel-vasile/mimetype"
)

const (
	DefaultQuality = 90
	FormatJPEG     = "jpeg"
	FormatPNG      = "png"
	FormatWebP     = "webp"
)

var (
	ErrTooLarge        = errors.New("image exceeds maximum file size")
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrInvalidImage    = errors.New("invalid image")
)

// ImageProcessor checks uploads and prepares them for the analyzer, which
// only understands JPEG and PNG.
type ImageProcessor struct {
	maxFileSize  int64
	maxDimension int
	allowedTypes []string
}

// ImageInfo describes a validated upload.
type ImageInfo struct {
	ContentType string
	Format      string
	Width       int
	Height      int
	Size        int64
}

// NormalizedImage is the payload forwarded to the analyzer.
type NormalizedImage struct {
	Data        []byte
	Format      string
	Width       int
	Height      int
	Transformed bool
}

func NewImageProcessor(maxFileSize int64, maxDimension int, allowedTypes []string) *ImageProcessor {
	return &ImageProcessor{
		maxFileSize:  maxFileSize,
		maxDimension: maxDimension,
		allowedTypes: allowedTypes,
	}
}

func (p *ImageProcessor) MaxFileSize() int64 {
	return p.maxFileSize
}

func (p *ImageProcessor) isAllowed(mt *mimetype.MIME) bool {
	for _, allowed := range p.allowedTypes {
		if mt.Is(allowed) {
			return true
		}
	}
	return false
}
