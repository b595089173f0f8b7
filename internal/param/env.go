package param

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/samber/do"
	"github.com/samber/lo"
)

// EnvFetcher resolves parameters from the environment for local runs; lists
// are comma separated.
type EnvFetcher struct{}

func NewEnvFetcher(i *do.Injector) (Fetcher, error) {
	return &EnvFetcher{}, nil
}

func (f *EnvFetcher) Fetch(_ context.Context, name string) (string, error) {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return "", fmt.Errorf("environment variable %s is not set", name)
	}
	return v, nil
}

func (f *EnvFetcher) FetchAll(ctx context.Context, name string) ([]string, error) {
	v, err := f.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	return lo.Map(strings.Split(v, ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	}), nil
}
