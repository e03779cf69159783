package veo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGenerationRequest(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		req, err := NewGenerationRequest("  a cat on a skateboard ", Options{})
		require.NoError(t, err)
		assert.Equal(t, "a cat on a skateboard", req.Prompt())
		assert.Equal(t, Options{AspectRatio: "16:9", DurationSeconds: 8, Resolution: "720p"}, req.Options())
	})

	t.Run("keeps explicit options", func(t *testing.T) {
		opts := Options{AspectRatio: "9:16", DurationSeconds: 4, Resolution: "1080p", NegativePrompt: "text overlays"}
		req, err := NewGenerationRequest("a cat", opts)
		require.NoError(t, err)
		assert.Equal(t, opts, req.Options())
	})

	invalid := []struct {
		name   string
		prompt string
		opts   Options
	}{
		{"empty prompt", "   ", Options{}},
		{"aspect ratio", "x", Options{AspectRatio: "4:3"}},
		{"duration", "x", Options{DurationSeconds: 5}},
		{"resolution", "x", Options{Resolution: "4k"}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGenerationRequest(tt.prompt, tt.opts)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestSubmitter_Start(t *testing.T) {
	var (
		gotPath string
		gotKey  string
		gotBody map[string]any
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get(APIKeyHeader)
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"name":"models/veo-3.1-generate-preview/operations/op-1"}`))
	}))
	defer server.Close()

	submitter := NewSubmitter(newProviderClient(server.URL, 3), "", discardLogger)
	req, err := NewGenerationRequest("a lighthouse at dusk", Options{NegativePrompt: "people"})
	require.NoError(t, err)

	handle, err := submitter.Start(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, OperationHandle("models/veo-3.1-generate-preview/operations/op-1"), handle)
	assert.Equal(t, "/models/veo-3.1-generate-preview:predictLongRunning", gotPath)
	assert.Equal(t, testAPIKey, gotKey)

	instances := gotBody["instances"].([]any)
	require.Len(t, instances, 1)
	assert.Equal(t, "a lighthouse at dusk", instances[0].(map[string]any)["prompt"])

	params := gotBody["parameters"].(map[string]any)
	assert.Equal(t, "16:9", params["aspectRatio"])
	assert.Equal(t, float64(8), params["durationSeconds"])
	assert.Equal(t, "720p", params["resolution"])
	assert.Equal(t, "people", params["negativePrompt"])
}

func TestSubmitter_OmitsEmptyNegativePrompt(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"name":"operations/op-2"}`))
	}))
	defer server.Close()

	submitter := NewSubmitter(newProviderClient(server.URL, 1), "veo-test", discardLogger)
	req, err := NewGenerationRequest("a river", Options{})
	require.NoError(t, err)

	_, err = submitter.Start(context.Background(), req)
	require.NoError(t, err)

	params := gotBody["parameters"].(map[string]any)
	_, present := params["negativePrompt"]
	assert.False(t, present)
}

func TestSubmitter_Failures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "bad request",
			status:     http.StatusBadRequest,
			body:       `{"error":{"code":400,"message":"prompt blocked","status":"INVALID_ARGUMENT"}}`,
			wantStatus: http.StatusBadRequest,
			wantMsg:    `{"error":{"code":400,"message":"prompt blocked","status":"INVALID_ARGUMENT"}}`,
		},
		{
			name:       "unauthorized",
			status:     http.StatusUnauthorized,
			body:       `denied`,
			wantStatus: http.StatusUnauthorized,
			wantMsg:    "denied",
		},
		{
			name:       "server error after retries",
			status:     http.StatusInternalServerError,
			body:       `boom`,
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "boom",
		},
		{
			name:       "missing operation name",
			status:     http.StatusOK,
			body:       `{}`,
			wantStatus: http.StatusOK,
			wantMsg:    "response carried no operation name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			submitter := NewSubmitter(newProviderClient(server.URL, 2), "", discardLogger)
			req, err := NewGenerationRequest("x", Options{})
			require.NoError(t, err)

			handle, err := submitter.Start(context.Background(), req)

			assert.Empty(t, handle)
			var subErr *SubmissionError
			require.True(t, errors.As(err, &subErr))
			assert.Equal(t, tt.wantStatus, subErr.StatusCode)
			assert.Equal(t, tt.wantMsg, subErr.Message)
		})
	}
}
