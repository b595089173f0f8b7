package param

import "context"

// Fetcher resolves process configuration: single values (API keys) and
// lists (the prompt pool).
type Fetcher interface {
	Fetch(context.Context, string) (string, error)
	FetchAll(context.Context, string) ([]string, error)
}
