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
	"time"
	"unicode/utf8"

	"paintbot/internal/log"

	"github.com/samber/do"
)

// The ModelScope inference API rejects prompts past roughly 2000 characters;
// we truncate a bit short of that instead of failing the request. The limit
// counts characters, not bytes.
const maxPromptLength = 1800

// ModelScopeGenerator generates images through the asynchronous ModelScope
// inference API: submit a task, poll its status until terminal, then fetch
// the output binary.
type ModelScopeGenerator struct {
	Client *http.Client
	Config Config
}

func NewModelScopeGenerator(i *do.Injector) (Generator, error) {
	return &ModelScopeGenerator{
		Client: do.MustInvoke[*http.Client](i),
		Config: Config{
			APIKey: do.MustInvokeNamed[string](i, "modelscope_key"),
			Model:  do.MustInvokeNamed[string](i, "model"),
		},
	}, nil
}

func (g *ModelScopeGenerator) Name() string { return "modelscope" }

func (g *ModelScopeGenerator) Validate() error {
	if g.Config.APIKey == "" {
		return fmt.Errorf("modelscope: %w", ErrMissingAPIKey)
	}
	return nil
}

func (g *ModelScopeGenerator) SupportedSizes() []string { return []string{"1024x1024"} }

func (g *ModelScopeGenerator) SupportedAspectRatios() []string { return []string{"1:1"} }

func (g *ModelScopeGenerator) config() Config {
	cfg := g.Config
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api-inference.modelscope.cn/"
	}
	if cfg.Model == "" {
		cfg.Model = "Tongyi-MAI/Z-Image-Turbo"
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = time.Minute
	}
	return cfg
}

type submitRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Size   string `json:"size,omitempty"`
	Seed   *int64 `json:"seed,omitempty"`
}

type submitResponse struct {
	TaskID string `json:"task_id"`
}

type taskResponse struct {
	TaskStatus   string   `json:"task_status"`
	OutputImages []string `json:"output_images"`
	Message      string   `json:"message"`
}

func (g *ModelScopeGenerator) Generate(ctx context.Context, params Params) ([]byte, string, error) {
	if err := g.Validate(); err != nil {
		return nil, "", err
	}

	cfg := g.config()
	logger := log.FromContextOrDiscard(ctx).WithGroup("modelscope").With("model", cfg.Model)

	prompt := params.Prompt
	if n := utf8.RuneCountInString(prompt); n > maxPromptLength {
		logger.Warn("truncating prompt", "length", n, "limit", maxPromptLength)
		prompt = string([]rune(prompt)[:maxPromptLength])
	}

	base := cfg.BaseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}

	payload := submitRequest{Model: cfg.Model, Prompt: prompt, Seed: params.Seed}
	if params.AspectRatio != "" {
		payload.Size = size(params.AspectRatio)
	}

	taskID, err := g.submit(ctx, base, payload)
	if err != nil {
		return nil, "", err
	}
	logger.Info("task submitted", "task", taskID)

	// The timeout is the only hard stop while polling; transport errors in
	// this phase are transient and just cost one more interval.
	start := time.Now()
	for {
		if time.Since(start) > cfg.Timeout {
			return nil, "", fmt.Errorf("%w after %s", ErrTimeout, cfg.Timeout)
		}

		task, err := g.poll(ctx, base, taskID)
		switch {
		case err != nil:
			logger.Warn("polling task status", "task", taskID, "error", err)
		case task.TaskStatus == "SUCCEED":
			if len(task.OutputImages) == 0 {
				return nil, "", &TaskError{Message: "task succeeded with no output images"}
			}
			logger.Info("task succeeded, downloading image", "task", taskID)
			return download(ctx, g.Client, task.OutputImages[0])
		case task.TaskStatus == "FAILED":
			msg := task.Message
			if msg == "" {
				msg = "unknown error"
			}
			return nil, "", &TaskError{Message: msg}
		}

		select {
		case <-ctx.Done():
			return nil, "", ctx.Err()
		case <-time.After(cfg.PollInterval):
		}
	}
}

func (g *ModelScopeGenerator) submit(ctx context.Context, base string, payload submitRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"v1/images/generations", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+g.Config.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-ModelScope-Async-Mode", "true")

	resp, err := g.Client.Do(req)
	if err != nil {
		return "", &SubmissionError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &SubmissionError{Err: fmt.Errorf("status %d: %s", resp.StatusCode, detail)}
	}

	var sub submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&sub); err != nil {
		return "", &SubmissionError{Err: err}
	}
	if sub.TaskID == "" {
		return "", &SubmissionError{Err: errors.New("response missing task_id")}
	}
	return sub.TaskID, nil
}

func (g *ModelScopeGenerator) poll(ctx context.Context, base, taskID string) (*taskResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"v1/tasks/"+taskID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+g.Config.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-ModelScope-Task-Type", "image_generation")

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var task taskResponse
	if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
		return nil, err
	}
	return &task, nil
}
