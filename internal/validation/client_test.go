package validation

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func TestClient_Validate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, ValidatePath, r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		file, header, err := r.FormFile(FieldName)
		require.NoError(t, err)
		defer file.Close()

		data, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, pngHeader, data)
		assert.Equal(t, "photo.png", header.Filename)
		assert.Equal(t, "image/png", header.Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":"FAIL","blurPercentage":37}`))
	}))
	defer server.Close()

	client := NewClient(server.URL + "/")
	result, err := client.Validate(context.Background(), "photo.png", pngHeader)

	require.NoError(t, err)
	assert.Equal(t, "FAIL", result.Result)
	assert.Equal(t, 37.0, result.BlurPercentage)
}

func TestClient_Validate_FailuresCollapse(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"result":"OK","blurPercentage":0}`},
		{"bad request", http.StatusBadRequest, `unsupported format`},
		{"redirect status", http.StatusMultipleChoices, ``},
		{"malformed json", http.StatusOK, `{"result":`},
		{"missing result", http.StatusOK, `{"blurPercentage":10}`},
		{"missing percentage", http.StatusOK, `{"result":"OK"}`},
		{"negative percentage", http.StatusOK, `{"result":"OK","blurPercentage":-1}`},
		{"percentage above range", http.StatusOK, `{"result":"OK","blurPercentage":100.5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			result, err := NewClient(server.URL).Validate(context.Background(), "a.png", pngHeader)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, ErrValidationFailed)
		})
	}
}

func TestClient_Validate_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewClient(url).Validate(context.Background(), "a.png", pngHeader)
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestClient_Validate_BoundaryPercentages(t *testing.T) {
	for _, body := range []string{`{"result":"OK","blurPercentage":0}`, `{"result":"Blurred","blurPercentage":100}`} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))

		_, err := NewClient(server.URL).Validate(context.Background(), "", pngHeader)
		assert.NoError(t, err, body)
		server.Close()
	}
}

func TestWithHTTPClient(t *testing.T) {
	custom := &http.Client{}
	client := NewClient("http://localhost", WithHTTPClient(custom))
	assert.Same(t, custom, client.httpClient)

	client = NewClient("http://localhost", WithHTTPClient(nil))
	assert.NotNil(t, client.httpClient)
	assert.Equal(t, defaultTimeout, client.httpClient.Timeout)
}

func TestFailedWrapsCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := failed(cause)
	assert.ErrorIs(t, err, ErrValidationFailed)
	assert.ErrorIs(t, err, cause)
}
