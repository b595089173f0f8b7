package post

import (
	"context"
	"fmt"
	"runtime/debug"

	"paintbot/internal/log"

	"github.com/samber/do"
	"github.com/samber/lo"
	"github.com/vartanbeno/go-reddit/v2/reddit"
)

// RedditPoster announces the day's painting as a link post, using script-app
// credentials.
type RedditPoster struct {
	client    *reddit.Client
	subreddit string
	siteURL   string
}

func NewRedditPoster(i *do.Injector) (Poster, error) {
	creds := reddit.Credentials{
		ID:       do.MustInvokeNamed[string](i, "reddit_client_id"),
		Secret:   do.MustInvokeNamed[string](i, "reddit_client_secret"),
		Username: do.MustInvokeNamed[string](i, "reddit_username"),
		Password: do.MustInvokeNamed[string](i, "reddit_password"),
	}
	subreddit := do.MustInvokeNamed[string](i, "subreddit")
	siteURL := do.MustInvokeNamed[string](i, "site_url")

	revision := "unknown"
	if info, ok := debug.ReadBuildInfo(); ok {
		setting := lo.FindOrElse(info.Settings, debug.BuildSetting{Value: revision}, func(s debug.BuildSetting) bool {
			return s.Key == "vcs.revision"
		})
		revision = setting.Value
	}

	client, err := reddit.NewClient(creds, reddit.WithUserAgent("web:paintbot:"+revision))
	if err != nil {
		return nil, err
	}

	return &RedditPoster{client, subreddit, siteURL}, nil
}

func (p *RedditPoster) Post(ctx context.Context, params Params) error {
	log.FromContextOrDiscard(ctx).Info("posting to reddit", "subreddit", p.subreddit)
	_, _, err := p.client.Post.SubmitLink(ctx, reddit.SubmitLinkRequest{
		Subreddit:   p.subreddit,
		Title:       fmt.Sprintf("%s - %s (%s)", params.Date, params.Prompt, params.Backend),
		URL:         fmt.Sprintf("%s/%s.html", p.siteURL, params.Date),
		SendReplies: lo.ToPtr(false),
	})
	return err
}
