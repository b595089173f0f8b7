package post

import "context"

type Params struct {
	Date    string
	Backend string
	Prompt  string
	Ratio   string
}

type Poster interface {
	Post(context.Context, Params) error
}

// NoopPoster is wired when no subreddit is configured.
type NoopPoster struct{}

func (*NoopPoster) Post(context.Context, Params) error { return nil }
