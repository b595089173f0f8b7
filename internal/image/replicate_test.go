package image

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedPrediction struct {
	Version string `json:"version"`
	Input   struct {
		Prompt       string  `json:"prompt"`
		Width        int     `json:"width"`
		Height       int     `json:"height"`
		Steps        int     `json:"num_inference_steps"`
		Guidance     float64 `json:"guidance_scale"`
		OutputFormat string  `json:"output_format"`
		Seed         *int64  `json:"seed"`
	} `json:"input"`
}

// fakeReplicate serves a single blocking prediction call plus the output
// image.
type fakeReplicate struct {
	srv      *httptest.Server
	captured capturedPrediction
	path     string
	respond  func(w http.ResponseWriter, outputURL string)
}

func newFakeReplicate(t *testing.T) *fakeReplicate {
	f := &fakeReplicate{
		respond: func(w http.ResponseWriter, outputURL string) {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"status": "succeeded",
				"output": []string{outputURL},
			})
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/", func(w http.ResponseWriter, r *http.Request) {
		f.path = r.URL.Path
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "wait", r.Header.Get("Prefer"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&f.captured))
		f.respond(w, f.srv.URL+"/out.png")
	})
	mux.HandleFunc("/out.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngBytes)
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeReplicate) generator(model string) *ReplicateGenerator {
	return &ReplicateGenerator{
		Client: f.srv.Client(),
		Config: Config{BaseURL: f.srv.URL, APIKey: "test-key", Model: model},
	}
}

func TestReplicateGenerate(t *testing.T) {
	f := newFakeReplicate(t)
	g := f.generator("prunaai/z-image-turbo:abc123")

	data, contentType, err := g.Generate(context.Background(), Params{Prompt: "a fox", AspectRatio: "3:4"})
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)
	assert.Equal(t, "image/png", contentType)

	// Pinned models go through the version endpoint.
	assert.Equal(t, "/v1/predictions", f.path)
	assert.Equal(t, "abc123", f.captured.Version)
	assert.Equal(t, "a fox", f.captured.Input.Prompt)
	assert.Equal(t, 896, f.captured.Input.Width)
	assert.Equal(t, 1152, f.captured.Input.Height)
	assert.Equal(t, defaultSteps, f.captured.Input.Steps)
	assert.Zero(t, f.captured.Input.Guidance)
	assert.Equal(t, "png", f.captured.Input.OutputFormat)
	assert.Nil(t, f.captured.Input.Seed)
}

func TestReplicateOptionalParams(t *testing.T) {
	f := newFakeReplicate(t)
	g := f.generator("prunaai/z-image-turbo:abc123")

	_, _, err := g.Generate(context.Background(), Params{
		Prompt:   "a fox",
		Seed:     lo.ToPtr(int64(42)),
		Steps:    4,
		Guidance: 1.5,
	})
	require.NoError(t, err)
	require.NotNil(t, f.captured.Input.Seed)
	assert.EqualValues(t, 42, *f.captured.Input.Seed)
	assert.Equal(t, 4, f.captured.Input.Steps)
	assert.Equal(t, 1.5, f.captured.Input.Guidance)
}

func TestReplicateModelEndpoint(t *testing.T) {
	f := newFakeReplicate(t)
	g := f.generator("prunaai/z-image-turbo")

	_, _, err := g.Generate(context.Background(), Params{Prompt: "a fox"})
	require.NoError(t, err)
	assert.Equal(t, "/v1/models/prunaai/z-image-turbo/predictions", f.path)
	assert.Empty(t, f.captured.Version)
}

func TestReplicateSingleURLOutput(t *testing.T) {
	f := newFakeReplicate(t)
	f.respond = func(w http.ResponseWriter, outputURL string) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "succeeded", "output": outputURL})
	}

	data, _, err := f.generator("").Generate(context.Background(), Params{Prompt: "a fox"})
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)
}

func TestReplicateRemoteError(t *testing.T) {
	f := newFakeReplicate(t)
	f.respond = func(w http.ResponseWriter, _ string) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "failed", "error": "NSFW content detected"})
	}

	_, _, err := f.generator("").Generate(context.Background(), Params{Prompt: "a fox"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "image generation failed")
	assert.Contains(t, err.Error(), "NSFW content detected")
}

func TestReplicateEmptyOutput(t *testing.T) {
	f := newFakeReplicate(t)
	f.respond = func(w http.ResponseWriter, _ string) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "succeeded", "output": []string{}})
	}

	_, _, err := f.generator("").Generate(context.Background(), Params{Prompt: "a fox"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no output")
}

func TestReplicateDownloadError(t *testing.T) {
	f := newFakeReplicate(t)
	f.respond = func(w http.ResponseWriter, _ string) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "succeeded", "output": f.srv.URL + "/missing.png"})
	}

	_, _, err := f.generator("").Generate(context.Background(), Params{Prompt: "a fox"})
	var dlErr *DownloadError
	require.ErrorAs(t, err, &dlErr)
}

func TestReplicateValidate(t *testing.T) {
	g := &ReplicateGenerator{Client: http.DefaultClient}
	require.ErrorIs(t, g.Validate(), ErrMissingAPIKey)

	_, _, err := g.Generate(context.Background(), Params{Prompt: "a fox"})
	require.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestReplicateCapabilities(t *testing.T) {
	g := &ReplicateGenerator{}
	assert.Equal(t, "replicate", g.Name())
	assert.Len(t, g.SupportedAspectRatios(), 5)
	assert.Contains(t, g.SupportedSizes(), "1344x768")
	for _, ratio := range g.SupportedAspectRatios() {
		assert.Contains(t, g.SupportedSizes(), size(ratio))
	}
}
