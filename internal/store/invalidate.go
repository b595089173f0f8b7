package store

import (
	"context"
)

type Invalidator interface {
	Invalidate(context.Context, []string) error
}

// NoopInvalidator stands in when there is no CDN in front of the bucket,
// such as local runs.
type NoopInvalidator struct{}

func (*NoopInvalidator) Invalidate(context.Context, []string) error { return nil }
