package inject

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"paintbot/internal/feed"
	"paintbot/internal/handler"
	"paintbot/internal/image"
	"paintbot/internal/log"
	"paintbot/internal/page"
	"paintbot/internal/param"
	"paintbot/internal/post"
	"paintbot/internal/prompt"
	"paintbot/internal/store"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/samber/do"
)

// Setup wires the lambda deployment: secrets from Parameter Store, S3 +
// CloudFront publication, Reddit announcements.
func Setup(ctx context.Context) *do.Injector {
	injector := newInjector(ctx)

	do.Provide[aws.Config](injector, func(i *do.Injector) (aws.Config, error) {
		return config.LoadDefaultConfig(ctx)
	})
	do.Provide[*ssm.Client](injector, func(i *do.Injector) (*ssm.Client, error) {
		return ssm.NewFromConfig(do.MustInvoke[aws.Config](i)), nil
	})
	do.Provide[*s3.Client](injector, func(i *do.Injector) (*s3.Client, error) {
		return s3.NewFromConfig(do.MustInvoke[aws.Config](i)), nil
	})
	do.Provide[*cloudfront.Client](injector, func(i *do.Injector) (*cloudfront.Client, error) {
		return cloudfront.NewFromConfig(do.MustInvoke[aws.Config](i)), nil
	})

	do.Provide[param.Fetcher](injector, param.NewParameterStoreFetcher)
	do.Provide[store.Uploader](injector, store.NewS3Uploader)
	do.Provide[store.Invalidator](injector, store.NewCloudFrontInvalidator)
	do.Provide[*feed.Generator](injector, feed.NewS3Generator)
	do.Provide[post.Poster](injector, func(i *do.Injector) (post.Poster, error) {
		if do.MustInvokeNamed[string](i, "subreddit") == "" {
			return &post.NoopPoster{}, nil
		}
		return post.NewRedditPoster(i)
	})

	do.ProvideNamed[string](injector, "modelscope_key", func(i *do.Injector) (string, error) {
		return do.MustInvoke[param.Fetcher](i).Fetch(ctx, os.Getenv("MODELSCOPE_KEY_PARAM"))
	})
	do.ProvideNamed[string](injector, "replicate_key", func(i *do.Injector) (string, error) {
		return do.MustInvoke[param.Fetcher](i).Fetch(ctx, os.Getenv("REPLICATE_KEY_PARAM"))
	})
	do.ProvideNamed[[]string](injector, "prompts", func(i *do.Injector) ([]string, error) {
		return do.MustInvoke[param.Fetcher](i).FetchAll(ctx, os.Getenv("PROMPTS_PARAM"))
	})
	do.ProvideNamed[string](injector, "reddit_client_id", func(i *do.Injector) (string, error) {
		return do.MustInvoke[param.Fetcher](i).Fetch(ctx, os.Getenv("REDDIT_CLIENT_ID_PARAM"))
	})
	do.ProvideNamed[string](injector, "reddit_client_secret", func(i *do.Injector) (string, error) {
		return do.MustInvoke[param.Fetcher](i).Fetch(ctx, os.Getenv("REDDIT_CLIENT_SECRET_PARAM"))
	})
	do.ProvideNamed[string](injector, "reddit_username", func(i *do.Injector) (string, error) {
		return do.MustInvoke[param.Fetcher](i).Fetch(ctx, os.Getenv("REDDIT_USERNAME_PARAM"))
	})
	do.ProvideNamed[string](injector, "reddit_password", func(i *do.Injector) (string, error) {
		return do.MustInvoke[param.Fetcher](i).Fetch(ctx, os.Getenv("REDDIT_PASSWORD_PARAM"))
	})
	do.ProvideNamedValue[string](injector, "bucket", os.Getenv("BUCKET"))
	do.ProvideNamedValue[string](injector, "distribution", os.Getenv("DISTRIBUTION"))
	do.ProvideNamedValue[string](injector, "subreddit", os.Getenv("SUBREDDIT"))
	do.ProvideNamedValue[string](injector, "site_url", os.Getenv("SITE_URL"))

	return injector
}

// SetupLocal wires a one-shot run on a workstation: keys straight from the
// environment, output to the working directory, no CDN and no announcing.
func SetupLocal(ctx context.Context) *do.Injector {
	injector := newInjector(ctx)

	do.Provide[param.Fetcher](injector, param.NewEnvFetcher)
	do.ProvideValue[store.Uploader](injector, &store.FileUploader{})
	do.ProvideValue[store.Invalidator](injector, &store.NoopInvalidator{})
	do.ProvideValue[post.Poster](injector, &post.NoopPoster{})
	do.ProvideValue[*feed.Generator](injector, (*feed.Generator)(nil))

	do.ProvideNamedValue[string](injector, "modelscope_key", os.Getenv("MODELSCOPE_API_KEY"))
	do.ProvideNamedValue[string](injector, "replicate_key", os.Getenv("REPLICATE_API_KEY"))
	do.ProvideNamed[[]string](injector, "prompts", func(i *do.Injector) ([]string, error) {
		return do.MustInvoke[param.Fetcher](i).FetchAll(ctx, "PROMPTS")
	})

	return injector
}

func newInjector(ctx context.Context) *do.Injector {
	log := log.FromContextOrDiscard(ctx)

	injector := do.NewWithOpts(&do.InjectorOpts{
		Logf: func(format string, args ...any) {
			log.Info(fmt.Sprintf(format, args...))
		},
	})
	do.ProvideValue[*http.Client](injector, http.DefaultClient)

	do.Provide[*prompt.Randomizer](injector, prompt.NewRandomizer)
	do.Provide[*page.Templator](injector, page.NewTemplator)
	do.Provide[image.Generator](injector, func(i *do.Injector) (image.Generator, error) {
		switch backend := do.MustInvokeNamed[string](i, "backend"); backend {
		case "", "modelscope":
			return image.NewModelScopeGenerator(i)
		case "replicate":
			return image.NewReplicateGenerator(i)
		default:
			return nil, fmt.Errorf("unknown backend %q", backend)
		}
	})
	do.ProvideNamedValue[string](injector, "backend", os.Getenv("BACKEND"))
	do.ProvideNamedValue[string](injector, "model", os.Getenv("MODEL"))

	do.Provide[*handler.Handler](injector, handler.NewHandler)

	return injector
}
