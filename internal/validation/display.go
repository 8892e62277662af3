package validation

import (
	"fmt"
	"strconv"

	"github.com/phambaophuc/image-validator/internal/models"
)

// ErrorMessage replaces the result text for every failed validation.
const ErrorMessage = "❌ Error validating image"

// FormatResult renders a result as "<label> • 100% Clear Image" when no blur
// was detected and "<label> • <v>% Blur Detected" otherwise.
func FormatResult(r models.ValidationResult) string {
	if r.IsClear() {
		return r.Result + " • 100% Clear Image"
	}
	return fmt.Sprintf("%s • %s%% Blur Detected", r.Result, strconv.FormatFloat(r.BlurPercentage, 'f', -1, 64))
}
