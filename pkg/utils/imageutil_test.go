package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentHash(t *testing.T) {
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		ContentHash(nil))
	assert.NotEqual(t, ContentHash([]byte("a")), ContentHash([]byte("b")))
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"photo.png":            "photo.png",
		"../../etc/passwd":     "passwd",
		`C:\Users\me\scan.jpg`: "scan.jpg",
		"my holiday (1).jpeg":  "my_holiday_1_.jpeg",
		"":                     "upload",
		"...":                  "upload",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeFilename(in), in)
	}
}

func TestGenerateStorageKey(t *testing.T) {
	key := GenerateStorageKey("scan 1.png")
	assert.Regexp(t, regexp.MustCompile(`^uploads/scan_1_\d+_[0-9a-f-]{8}\.png$`), key)
	assert.NotEqual(t, key, GenerateStorageKey("scan 1.png"))
}
