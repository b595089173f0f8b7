package image

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"paintbot/internal/log"

	"github.com/samber/do"
	"github.com/samber/lo"
)

const (
	// Z-Image Turbo hosted on Replicate, pinned to a version hash.
	defaultReplicateModel = "prunaai/z-image-turbo:0870559624690b3709350177b9d521d84e54d297026d725358b8f73193429e91"

	defaultSteps = 9
)

// ReplicateGenerator generates images through Replicate's synchronous
// prediction API: one blocking call that returns output URLs, then a fetch
// of the first URL. There is no polling state; the remote side holds the
// connection until the image is ready.
type ReplicateGenerator struct {
	Client *http.Client
	Config Config
}

func NewReplicateGenerator(i *do.Injector) (Generator, error) {
	return &ReplicateGenerator{
		Client: do.MustInvoke[*http.Client](i),
		Config: Config{
			APIKey: do.MustInvokeNamed[string](i, "replicate_key"),
			Model:  do.MustInvokeNamed[string](i, "model"),
		},
	}, nil
}

func (g *ReplicateGenerator) Name() string { return "replicate" }

func (g *ReplicateGenerator) Validate() error {
	if g.Config.APIKey == "" {
		return fmt.Errorf("replicate: %w", ErrMissingAPIKey)
	}
	return nil
}

func (g *ReplicateGenerator) SupportedAspectRatios() []string {
	return []string{"1:1", "3:4", "4:3", "9:16", "16:9"}
}

func (g *ReplicateGenerator) SupportedSizes() []string {
	return lo.Map(g.SupportedAspectRatios(), func(ratio string, _ int) string {
		return size(ratio)
	})
}

func (g *ReplicateGenerator) config() Config {
	cfg := g.Config
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.replicate.com"
	}
	if cfg.Model == "" {
		cfg.Model = defaultReplicateModel
	}
	return cfg
}

type predictionInput struct {
	Prompt       string  `json:"prompt"`
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	Steps        int     `json:"num_inference_steps"`
	Guidance     float64 `json:"guidance_scale"`
	OutputFormat string  `json:"output_format"`
	Seed         *int64  `json:"seed,omitempty"`
}

type predictionRequest struct {
	Version string          `json:"version,omitempty"`
	Input   predictionInput `json:"input"`
}

type predictionResponse struct {
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  string          `json:"error"`
}

func (g *ReplicateGenerator) Generate(ctx context.Context, params Params) ([]byte, string, error) {
	if err := g.Validate(); err != nil {
		return nil, "", err
	}

	cfg := g.config()
	logger := log.FromContextOrDiscard(ctx).WithGroup("replicate").With("model", cfg.Model)
	logger.Info("generating image", "ratio", params.AspectRatio)

	width, height := Dimensions(params.AspectRatio)
	input := predictionInput{
		Prompt:       params.Prompt,
		Width:        width,
		Height:       height,
		Steps:        lo.Ternary(params.Steps > 0, params.Steps, defaultSteps),
		Guidance:     params.Guidance,
		OutputFormat: "png",
		Seed:         params.Seed,
	}

	url, err := g.run(ctx, cfg, input)
	if err != nil {
		return nil, "", fmt.Errorf("image generation failed: %w", err)
	}
	logger.Info("prediction finished, downloading image")

	data, contentType, err := download(ctx, g.Client, url)
	if err != nil {
		return nil, "", fmt.Errorf("image generation failed: %w", err)
	}
	return data, contentType, nil
}

// run performs the blocking prediction call. Models pinned as
// "owner/name:version" go through /v1/predictions with the version hash;
// bare "owner/name" models use the model-scoped endpoint.
func (g *ReplicateGenerator) run(ctx context.Context, cfg Config, input predictionInput) (string, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	endpoint := base + "/v1/models/" + cfg.Model + "/predictions"
	payload := predictionRequest{Input: input}
	if _, version, ok := strings.Cut(cfg.Model, ":"); ok {
		payload.Version = version
		endpoint = base + "/v1/predictions"
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+g.Config.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "wait")

	resp, err := g.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, detail)
	}

	var pred predictionResponse
	if err := json.NewDecoder(resp.Body).Decode(&pred); err != nil {
		return "", err
	}
	if pred.Error != "" {
		return "", errors.New(pred.Error)
	}
	return firstOutput(pred.Output)
}

// firstOutput handles both shapes Replicate returns: a single URL string or
// a list of URLs.
func firstOutput(raw json.RawMessage) (string, error) {
	var url string
	if err := json.Unmarshal(raw, &url); err == nil && url != "" {
		return url, nil
	}
	var urls []string
	if err := json.Unmarshal(raw, &urls); err == nil && len(urls) > 0 {
		return urls[0], nil
	}
	return "", errors.New("prediction returned no output")
}
