package validation

import (
	"context"
	"errors"
	"sync"

	"github.com/phambaophuc/image-validator/internal/models"
	"go.uber.org/zap"
)

var (
	ErrNoImageSelected      = errors.New("no image selected")
	ErrSubmissionInProgress = errors.New("a submission is already in progress")
)

type Validator interface {
	Validate(ctx context.Context, filename string, image []byte) (*models.ValidationResult, error)
}

// Session holds the state of one upload form: the selected image, whether a
// submission is outstanding and the last displayed result. At most one
// request is in flight per session.
type Session struct {
	validator Validator
	logger    *zap.Logger

	mu       sync.Mutex
	filename string
	image    []byte
	loading  bool
	result   string
}

func NewSession(validator Validator, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		validator: validator,
		logger:    logger.Named("validation_session"),
	}
}

// Select replaces the chosen image and clears the previous result.
func (s *Session) Select(filename string, image []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.filename = filename
	s.image = image
	s.result = ""
}

// Submit sends the selected image and returns the text to display. Without a
// selection, or while another submission is outstanding, nothing is sent.
func (s *Session) Submit(ctx context.Context) (string, error) {
	s.mu.Lock()
	if len(s.image) == 0 {
		s.mu.Unlock()
		return "", ErrNoImageSelected
	}
	if s.loading {
		s.mu.Unlock()
		return "", ErrSubmissionInProgress
	}
	s.loading = true
	filename, image := s.filename, s.image
	s.mu.Unlock()

	display, err := s.validate(ctx, filename, image)

	s.mu.Lock()
	s.loading = false
	s.result = display
	s.mu.Unlock()

	return display, err
}

func (s *Session) validate(ctx context.Context, filename string, image []byte) (string, error) {
	result, err := s.validator.Validate(ctx, filename, image)
	if err != nil {
		s.logger.Error("Image validation failed", zap.String("filename", filename), zap.Error(err))
		return ErrorMessage, err
	}
	return FormatResult(*result), nil
}

func (s *Session) Result() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}
