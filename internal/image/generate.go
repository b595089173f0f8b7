package image

import "context"

// Params carries one generation request. Seed is sent to the backend only
// when set; Steps and Guidance fall back to backend defaults when zero.
type Params struct {
	Prompt      string  `json:"prompt"`
	AspectRatio string  `json:"aspect_ratio,omitempty"`
	Seed        *int64  `json:"seed,omitempty"`
	Steps       int     `json:"steps,omitempty"`
	Guidance    float64 `json:"guidance,omitempty"`
}

// Generator is implemented by each text-to-image backend. Generate blocks
// until the remote service produces an image and returns the raw bytes plus
// their content type; it is all-or-nothing, partial results are never
// returned.
type Generator interface {
	Name() string
	Validate() error
	Generate(context.Context, Params) ([]byte, string, error)
	SupportedSizes() []string
	SupportedAspectRatios() []string
}
