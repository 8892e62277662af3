package processor

import (
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
)

// encodeImage writes img in one of the formats the analyzer accepts.
func encodeImage(w io.Writer, img image.Image, format string) error {
	switch format {
	case FormatPNG:
		return imaging.Encode(w, img, imaging.PNG)
	case FormatJPEG:
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(DefaultQuality))
	default:
		return fmt.Errorf("%w: cannot encode %s", ErrUnsupportedType, format)
	}
}
