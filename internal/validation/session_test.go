package validation

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/phambaophuc/image-validator/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubValidator struct {
	calls   int
	result  *models.ValidationResult
	err     error
	started chan struct{}
	release chan struct{}
}

func (s *stubValidator) Validate(ctx context.Context, filename string, image []byte) (*models.ValidationResult, error) {
	s.calls++
	if s.started != nil {
		close(s.started)
		<-s.release
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func TestSession_SubmitWithoutImageSendsNothing(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
	}))
	defer server.Close()

	session := NewSession(NewClient(server.URL), nil)
	display, err := session.Submit(context.Background())

	assert.ErrorIs(t, err, ErrNoImageSelected)
	assert.Empty(t, display)
	assert.Zero(t, atomic.LoadInt32(&requests))
}

func TestSession_SubmitDisplaysResult(t *testing.T) {
	validator := &stubValidator{result: &models.ValidationResult{Result: "OK", BlurPercentage: 0}}
	session := NewSession(validator, nil)
	session.Select("a.png", pngHeader)

	display, err := session.Submit(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "OK • 100% Clear Image", display)
	assert.Equal(t, display, session.Result())
	assert.False(t, session.Loading())
	assert.Equal(t, 1, validator.calls)
}

func TestSession_SubmitFailureShowsFixedMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"image too dark"}`))
	}))
	defer server.Close()

	session := NewSession(NewClient(server.URL), nil)
	session.Select("a.png", pngHeader)

	display, err := session.Submit(context.Background())

	assert.ErrorIs(t, err, ErrValidationFailed)
	assert.Equal(t, "❌ Error validating image", display)
	assert.Equal(t, ErrorMessage, session.Result())
	assert.False(t, session.Loading())
}

func TestSession_RejectsConcurrentSubmission(t *testing.T) {
	validator := &stubValidator{
		result:  &models.ValidationResult{Result: "FAIL", BlurPercentage: 37},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	session := NewSession(validator, nil)
	session.Select("a.png", pngHeader)

	done := make(chan string, 1)
	go func() {
		display, _ := session.Submit(context.Background())
		done <- display
	}()

	<-validator.started
	assert.True(t, session.Loading())

	_, err := session.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmissionInProgress)

	close(validator.release)
	assert.Equal(t, "FAIL • 37% Blur Detected", <-done)
	assert.Equal(t, 1, validator.calls)
}

func TestSession_SelectClearsResult(t *testing.T) {
	validator := &stubValidator{err: errors.New("boom")}
	session := NewSession(validator, nil)
	session.Select("a.png", pngHeader)

	_, err := session.Submit(context.Background())
	require.Error(t, err)
	require.Equal(t, ErrorMessage, session.Result())

	session.Select("b.png", pngHeader)
	assert.Empty(t, session.Result())
}
