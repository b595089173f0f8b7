package image

import "time"

// Config holds the constructor-time settings shared by both backends. Zero
// fields are filled with backend defaults, so an empty Config plus an API
// key is enough.
type Config struct {
	BaseURL      string
	Model        string
	APIKey       string
	PollInterval time.Duration
	Timeout      time.Duration
}
