package prompt

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"

	"paintbot/internal/log"

	"github.com/samber/do"
)

// Randomizer picks an "aspect ratio|prompt" pair from the configured pool
// when an invocation doesn't bring its own.
type Randomizer struct {
	prompts []string
	rnd     *rand.Rand
}

func NewRandomizer(i *do.Injector) (*Randomizer, error) {
	prompts := do.MustInvokeNamed[[]string](i, "prompts")
	rnd := rand.New(rand.NewSource(time.Now().UTC().UnixNano()))
	return &Randomizer{prompts, rnd}, nil
}

func (r *Randomizer) Randomize(ctx context.Context) (string, string, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("randomizer")
	log.Info("picking random ratio and prompt")
	if len(r.prompts) == 0 {
		return "", "", errors.New("prompt pool is empty")
	}
	idx := r.rnd.Intn(len(r.prompts))
	ratio, prompt, found := strings.Cut(r.prompts[idx], "|")
	if !found {
		// Entry without a ratio prefix; let the backend pick the default.
		return "", ratio, nil
	}
	return ratio, prompt, nil
}
